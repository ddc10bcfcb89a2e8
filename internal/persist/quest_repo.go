package persist

import (
	"context"
	"fmt"
)

// QuestRepo persists the quest-variable name→value map a Character caches
// at runtime (spec §3 Character, §6 "getQuestVar/setQuestVar").
type QuestRepo struct {
	db *DB
}

func NewQuestRepo(db *DB) *QuestRepo {
	return &QuestRepo{db: db}
}

// LoadAll returns every quest variable for a character, used to prime the
// runtime's cache on login.
func (r *QuestRepo) LoadAll(ctx context.Context, charID int32) (map[string]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT name, value FROM quest_vars WHERE char_id = $1`, charID)
	if err != nil {
		return nil, fmt.Errorf("load quest vars: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan quest var: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

func (r *QuestRepo) Get(ctx context.Context, charID int32, name string) (string, bool, error) {
	var value string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT value FROM quest_vars WHERE char_id = $1 AND name = $2`, charID, name).Scan(&value)
	if err != nil {
		return "", false, nil
	}
	return value, true, nil
}

// Set upserts a quest variable. An empty value deletes it, matching the
// convention that quest vars track presence as well as content.
func (r *QuestRepo) Set(ctx context.Context, charID int32, name, value string) error {
	if value == "" {
		_, err := r.db.Pool.Exec(ctx, `DELETE FROM quest_vars WHERE char_id = $1 AND name = $2`, charID, name)
		if err != nil {
			return fmt.Errorf("delete quest var: %w", err)
		}
		return nil
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO quest_vars (char_id, name, value) VALUES ($1, $2, $3)
		 ON CONFLICT (char_id, name) DO UPDATE SET value = EXCLUDED.value`,
		charID, name, value)
	if err != nil {
		return fmt.Errorf("set quest var: %w", err)
	}
	return nil
}
