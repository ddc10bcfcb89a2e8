package persist

import (
	"context"
	"fmt"
)

// GuildMember is one row of a guild's roster.
type GuildMember struct {
	CharID int32
	Name   string
	Perms  int32
}

// Guild is a guild record as answered by getGuildList (spec §6, §4.11
// Guild/Party).
type Guild struct {
	GuildID      int32
	Name         string
	LeaderID     int32
	ChannelID    int32
	Announcement string
}

type GuildRepo struct {
	db *DB
}

func NewGuildRepo(db *DB) *GuildRepo {
	return &GuildRepo{db: db}
}

func (r *GuildRepo) GetByID(ctx context.Context, guildID int32) (*Guild, error) {
	var g Guild
	err := r.db.Pool.QueryRow(ctx,
		`SELECT guild_id, name, leader_id, channel_id, announcement FROM guilds WHERE guild_id = $1`,
		guildID).Scan(&g.GuildID, &g.Name, &g.LeaderID, &g.ChannelID, &g.Announcement)
	if err != nil {
		return nil, fmt.Errorf("get guild: %w", err)
	}
	return &g, nil
}

func (r *GuildRepo) GetByMember(ctx context.Context, charID int32) (*Guild, error) {
	var g Guild
	err := r.db.Pool.QueryRow(ctx,
		`SELECT g.guild_id, g.name, g.leader_id, g.channel_id, g.announcement
		 FROM guilds g JOIN guild_members m ON m.guild_id = g.guild_id
		 WHERE m.char_id = $1`, charID,
	).Scan(&g.GuildID, &g.Name, &g.LeaderID, &g.ChannelID, &g.Announcement)
	if err != nil {
		return nil, ErrNotFound
	}
	return &g, nil
}

// ListMembers returns the full guild roster, used to answer retrieve-members
// (spec §4.11).
func (r *GuildRepo) ListMembers(ctx context.Context, guildID int32) ([]GuildMember, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT m.char_id, c.name, m.perms FROM guild_members m
		 JOIN characters c ON c.char_id = m.char_id
		 WHERE m.guild_id = $1 ORDER BY m.perms DESC, c.name`, guildID)
	if err != nil {
		return nil, fmt.Errorf("list guild members: %w", err)
	}
	defer rows.Close()

	var out []GuildMember
	for rows.Next() {
		var m GuildMember
		if err := rows.Scan(&m.CharID, &m.Name, &m.Perms); err != nil {
			return nil, fmt.Errorf("scan guild member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *GuildRepo) Add(ctx context.Context, name string, leaderID int32, channelID int32) (int32, error) {
	var id int32
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO guilds (name, leader_id, channel_id) VALUES ($1, $2, $3) RETURNING guild_id`,
		name, leaderID, channelID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert guild: %w", err)
	}
	if _, err := r.db.Pool.Exec(ctx,
		`INSERT INTO guild_members (guild_id, char_id, perms) VALUES ($1, $2, $3)`,
		id, leaderID, leaderPerms); err != nil {
		return 0, fmt.Errorf("insert guild leader: %w", err)
	}
	return id, nil
}

const leaderPerms = ^int32(0)

func (r *GuildRepo) Remove(ctx context.Context, guildID int32) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM guilds WHERE guild_id = $1`, guildID)
	if err != nil {
		return fmt.Errorf("delete guild: %w", err)
	}
	return nil
}

func (r *GuildRepo) AddMember(ctx context.Context, guildID, charID int32, perms int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO guild_members (guild_id, char_id, perms) VALUES ($1, $2, $3)`,
		guildID, charID, perms)
	if err != nil {
		return fmt.Errorf("add guild member: %w", err)
	}
	return nil
}

func (r *GuildRepo) RemoveMember(ctx context.Context, guildID, charID int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM guild_members WHERE guild_id = $1 AND char_id = $2`, guildID, charID)
	if err != nil {
		return fmt.Errorf("remove guild member: %w", err)
	}
	return nil
}

func (r *GuildRepo) SetMemberPerms(ctx context.Context, guildID, charID int32, perms int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE guild_members SET perms = $1 WHERE guild_id = $2 AND char_id = $3`, perms, guildID, charID)
	if err != nil {
		return fmt.Errorf("update member perms: %w", err)
	}
	return nil
}
