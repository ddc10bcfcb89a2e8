package persist

import (
	"context"
	"fmt"
)

// Channel is a persisted public chat channel (spec §6
// "getChannelList/updateChannels").
type Channel struct {
	ChannelID int32
	Name      string
	Topic     string
	Password  string
}

type ChannelRepo struct {
	db *DB
}

func NewChannelRepo(db *DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

func (r *ChannelRepo) List(ctx context.Context) ([]Channel, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT channel_id, name, topic, password FROM public_channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ChannelID, &c.Name, &c.Topic, &c.Password); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChannelRepo) Create(ctx context.Context, name, topic, password string) (int32, error) {
	var id int32
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO public_channels (name, topic, password) VALUES ($1, $2, $3) RETURNING channel_id`,
		name, topic, password).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert channel: %w", err)
	}
	return id, nil
}

func (r *ChannelRepo) UpdateTopic(ctx context.Context, channelID int32, topic string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE public_channels SET topic = $1 WHERE channel_id = $2`, topic, channelID)
	if err != nil {
		return fmt.Errorf("update channel topic: %w", err)
	}
	return nil
}

func (r *ChannelRepo) Delete(ctx context.Context, channelID int32) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM public_channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}
