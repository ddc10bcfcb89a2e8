package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CharacterRow is a character record as stored in the Gateway: the
// queryable columns plus the opaque snapshot blob.
type CharacterRow struct {
	CharID    int32
	AccountID int32
	Slot      int16
	Name      string
	Snapshot  *CharacterSnapshot
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// ListForAccount returns the non-deleted characters on an account, used to
// answer the login character-info listing (spec §6 inter-server contract).
func (r *CharacterRepo) ListForAccount(ctx context.Context, accountID int32) ([]*CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT char_id, account_id, slot, name, snapshot FROM characters
		 WHERE account_id = $1 AND deleted_at IS NULL ORDER BY slot`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []*CharacterRow
	for rows.Next() {
		row, err := scanCharacterRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *CharacterRepo) GetByID(ctx context.Context, charID int32) (*CharacterRow, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT char_id, account_id, slot, name, snapshot FROM characters
		 WHERE char_id = $1 AND deleted_at IS NULL`, charID)
	c, err := scanCharacterRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *CharacterRepo) GetByName(ctx context.Context, name string) (*CharacterRow, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT char_id, account_id, slot, name, snapshot FROM characters
		 WHERE name = $1 AND deleted_at IS NULL`, name)
	c, err := scanCharacterRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *CharacterRepo) DoesNameExist(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE name = $1 AND deleted_at IS NULL)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check character name: %w", err)
	}
	return exists, nil
}

// Create inserts a new character at the given account slot.
func (r *CharacterRepo) Create(ctx context.Context, accountID int32, slot int16, name string, snap *CharacterSnapshot) (int32, error) {
	var id int32
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (account_id, slot, name, snapshot, map_id, x, y)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING char_id`,
		accountID, slot, name, snap.Encode(), snap.MapID, snap.X, snap.Y,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert character: %w", err)
	}
	return id, nil
}

// UpdateSnapshot flushes a dirtied snapshot. Called on every map change and
// after any stat/inventory/quest mutation of consequence (spec §6
// "Persisted state").
func (r *CharacterRepo) UpdateSnapshot(ctx context.Context, charID int32, snap *CharacterSnapshot) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET snapshot = $1, map_id = $2, x = $3, y = $4, updated_at = now()
		 WHERE char_id = $5`,
		snap.Encode(), snap.MapID, snap.X, snap.Y, charID)
	if err != nil {
		return fmt.Errorf("update character snapshot: %w", err)
	}
	return nil
}

func (r *CharacterRepo) SoftDelete(ctx context.Context, charID int32) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE characters SET deleted_at = now() WHERE char_id = $1`, charID)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacterRow(rs rowScanner) (*CharacterRow, error) {
	var row CharacterRow
	var snapBytes []byte
	if err := rs.Scan(&row.CharID, &row.AccountID, &row.Slot, &row.Name, &snapBytes); err != nil {
		return nil, fmt.Errorf("scan character row: %w", err)
	}
	snap, err := DecodeSnapshot(snapBytes)
	if err != nil {
		return nil, fmt.Errorf("character %d: %w", row.CharID, err)
	}
	row.Snapshot = snap
	return &row, nil
}
