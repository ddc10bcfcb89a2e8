package broker

import (
	"context"

	"github.com/embervale/worldserver/internal/persist"
	"github.com/embervale/worldserver/internal/resultcode"
)

// Guild permission bits, governing invite/kick/topic-change (spec
// §4.11 "the permission mask governs invite, kick, topic-change").
const (
	PermInvite      int32 = 1 << 0
	PermKick        int32 = 1 << 1
	PermChangeTopic int32 = 1 << 2
)

// GuildService wraps the Gateway's guild repo with the Hub-level
// semantics spec §4.11 describes: every guild auto-owns a channel named
// after the guild.
type GuildService struct {
	guilds   *persist.GuildRepo
	channels *persist.ChannelRepo
}

func NewGuildService(guilds *persist.GuildRepo, channels *persist.ChannelRepo) *GuildService {
	return &GuildService{guilds: guilds, channels: channels}
}

// Create makes a new guild, its owned channel, and the leader's
// all-permissions membership row.
func (g *GuildService) Create(ctx context.Context, name string, leaderCharID int32) (*persist.Guild, resultcode.Code) {
	channelID, err := g.channels.Create(ctx, name, "", "")
	if err != nil {
		return nil, resultcode.Failure
	}
	guildID, err := g.guilds.Add(ctx, name, leaderCharID, channelID)
	if err != nil {
		return nil, resultcode.Failure
	}
	return &persist.Guild{GuildID: guildID, LeaderID: leaderCharID, ChannelID: channelID, Name: name}, resultcode.OK
}

func (g *GuildService) Disband(ctx context.Context, guildID int32) resultcode.Code {
	if err := g.guilds.Remove(ctx, guildID); err != nil {
		return resultcode.Failure
	}
	return resultcode.OK
}

// Invite adds a member if the acting character holds PermInvite.
func (g *GuildService) Invite(ctx context.Context, guildID, actingCharID, newMemberCharID int32) resultcode.Code {
	if !g.hasPerm(ctx, guildID, actingCharID, PermInvite) {
		return resultcode.InsufficientRights
	}
	if err := g.guilds.AddMember(ctx, guildID, newMemberCharID, 0); err != nil {
		return resultcode.Failure
	}
	return resultcode.OK
}

// Kick removes a member if the acting character holds PermKick.
func (g *GuildService) Kick(ctx context.Context, guildID, actingCharID, targetCharID int32) resultcode.Code {
	if !g.hasPerm(ctx, guildID, actingCharID, PermKick) {
		return resultcode.InsufficientRights
	}
	if err := g.guilds.RemoveMember(ctx, guildID, targetCharID); err != nil {
		return resultcode.Failure
	}
	return resultcode.OK
}

func (g *GuildService) hasPerm(ctx context.Context, guildID, charID int32, bit int32) bool {
	members, err := g.guilds.ListMembers(ctx, guildID)
	if err != nil {
		return false
	}
	for _, m := range members {
		if m.CharID == charID {
			return m.Perms&bit != 0
		}
	}
	return false
}
