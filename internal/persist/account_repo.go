package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned by single-row lookups that matched nothing.
var ErrNotFound = errors.New("not found")

// Account is the Gateway's canonical account record (§6 "Persisted state").
type Account struct {
	AccountID    int32
	Name         string
	PasswordHash []byte
	Email        string
	AccessLevel  int16
	BannedUntil  *time.Time
}

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) GetByName(ctx context.Context, name string) (*Account, error) {
	return r.scanOne(ctx,
		`SELECT account_id, name, password_hash, email, access_level, banned_until
		 FROM accounts WHERE name = $1`, name)
}

func (r *AccountRepo) GetByID(ctx context.Context, id int32) (*Account, error) {
	return r.scanOne(ctx,
		`SELECT account_id, name, password_hash, email, access_level, banned_until
		 FROM accounts WHERE account_id = $1`, id)
}

func (r *AccountRepo) scanOne(ctx context.Context, query string, arg any) (*Account, error) {
	var a Account
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&a.AccountID, &a.Name, &a.PasswordHash, &a.Email, &a.AccessLevel, &a.BannedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &a, nil
}

// Add creates a new account. Any insert failure, including a violated
// unique constraint on the name, comes back as a wrapped error; there is
// no separate sentinel for a taken name.
func (r *AccountRepo) Add(ctx context.Context, name string, passwordHash []byte, email string) (int32, error) {
	var id int32
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (name, password_hash, email) VALUES ($1, $2, $3) RETURNING account_id`,
		name, passwordHash, email,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

func (r *AccountRepo) Delete(ctx context.Context, id int32) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (r *AccountRepo) DoesEmailExist(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (r *AccountRepo) UpdateEmail(ctx context.Context, id int32, email string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET email = $1 WHERE account_id = $2`, email, id)
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	return nil
}

func (r *AccountRepo) UpdatePassword(ctx context.Context, id int32, passwordHash []byte) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET password_hash = $1 WHERE account_id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
