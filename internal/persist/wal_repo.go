package persist

import (
	"context"
	"fmt"
)

// TxKind distinguishes the two mutually-exclusive transaction kinds a
// Character can hold (spec §3 Character invariant 8).
type TxKind string

const (
	TxTrade  TxKind = "trade"
	TxBuySell TxKind = "buy_sell"
)

// WALEntry records one economic transaction (a trade leg or a shop
// buy/sell). WALRepo can append entries, list the unprocessed ones and
// mark them processed. The trade and shop code in internal/world does not
// write entries, and cmd/worldserver only counts and logs unprocessed
// entries at startup; nothing replays them (the WAL itself is a
// supplement the error-handling table does not name explicitly).
type WALEntry struct {
	WALID       int64
	TxType      TxKind
	FromChar    int32
	ToChar      int32
	ItemID      int32
	Amount      int32
	MoneyAmount int64
	Processed   bool
}

type WALRepo struct {
	db *DB
}

func NewWALRepo(db *DB) *WALRepo {
	return &WALRepo{db: db}
}

// Append writes a new unprocessed WAL entry and returns its id.
func (r *WALRepo) Append(ctx context.Context, e WALEntry) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO economic_wal (tx_type, from_char, to_char, item_id, amount, money_amount)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING wal_id`,
		string(e.TxType), e.FromChar, e.ToChar, e.ItemID, e.Amount, e.MoneyAmount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append wal entry: %w", err)
	}
	return id, nil
}

func (r *WALRepo) MarkProcessed(ctx context.Context, walID int64) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE economic_wal SET processed = TRUE WHERE wal_id = $1`, walID)
	if err != nil {
		return fmt.Errorf("mark wal entry processed: %w", err)
	}
	return nil
}

// Unprocessed returns WAL entries left over from a crash, oldest first, for
// replay on startup.
func (r *WALRepo) Unprocessed(ctx context.Context) ([]WALEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT wal_id, tx_type, from_char, to_char, item_id, amount, money_amount, processed
		 FROM economic_wal WHERE processed = FALSE ORDER BY wal_id`)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed wal entries: %w", err)
	}
	defer rows.Close()

	var out []WALEntry
	for rows.Next() {
		var e WALEntry
		var txType string
		if err := rows.Scan(&e.WALID, &txType, &e.FromChar, &e.ToChar, &e.ItemID, &e.Amount, &e.MoneyAmount, &e.Processed); err != nil {
			return nil, fmt.Errorf("scan wal entry: %w", err)
		}
		e.TxType = TxKind(txType)
		out = append(out, e)
	}
	return out, rows.Err()
}
