package broker

import (
	"context"
	"time"

	"go.uber.org/zap"

	gonet "github.com/embervale/worldserver/internal/net"
	"github.com/embervale/worldserver/internal/net/packet"
	"github.com/embervale/worldserver/internal/persist"
	"github.com/embervale/worldserver/internal/resultcode"
)

// HandlerDeps is the Hub's service surface bound to message ids by
// RegisterHandlers (spec §6 message catalog): login/character-select,
// chat (also carrying GM/guild/party command lines), and party/guild
// invites.
type HandlerDeps struct {
	Accounts   *persist.AccountRepo
	Characters *persist.CharacterRepo
	Auth       *Auth
	Chat       *ChatHub
	Guilds     *GuildService
	Parties    *PartyService
	Commands   *Dispatcher
	Log        *zap.Logger
}

// RegisterHandlers wires the Hub's services to the client-facing wire
// protocol (closes the maintainer review's gap (b): packet.Registry had
// no caller on the Broker side).
func RegisterHandlers(registry *packet.Registry, deps *HandlerDeps) {
	registry.Register(packet.MsgLoginRequest, []packet.SessionState{packet.StateHandshake}, deps.handleLogin)
	registry.Register(packet.MsgCharSelect, []packet.SessionState{packet.StateAuthenticated}, deps.handleCharSelect)
	registry.Register(packet.MsgChatLine, []packet.SessionState{packet.StateAuthenticated, packet.StateInWorld}, deps.handleChatLine)
	registry.Register(packet.MsgPartyInvite, []packet.SessionState{packet.StateInWorld}, deps.handlePartyInvite)
	registry.Register(packet.MsgGuildInvite, []packet.SessionState{packet.StateInWorld}, deps.handleGuildInvite)
}

func (d *HandlerDeps) session(sessAny any) (*gonet.Session, bool) {
	sess, ok := sessAny.(*gonet.Session)
	return sess, ok
}

func (d *HandlerDeps) handleLogin(sessAny any, r *packet.Reader) {
	sess, ok := d.session(sessAny)
	if !ok {
		return
	}
	name := r.ReadString()
	password := r.ReadString()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acct, code := d.Auth.Login(ctx, name, password)
	if code != resultcode.OK {
		w := packet.NewWriter()
		w.WriteByte(byte(code))
		sess.Send(packet.MsgLoginResponse, w.Bytes())
		return
	}

	rows, err := d.Characters.ListForAccount(ctx, acct.AccountID)
	if err != nil {
		d.Log.Error("list characters failed", zap.Error(err))
		w := packet.NewWriter()
		w.WriteByte(byte(resultcode.Failure))
		sess.Send(packet.MsgLoginResponse, w.Bytes())
		return
	}

	sess.AccountName = acct.Name
	sess.SetState(packet.StateAuthenticated)

	w := packet.NewWriter()
	w.WriteByte(byte(resultcode.OK))
	w.WriteByte(byte(len(rows)))
	for _, row := range rows {
		w.WriteInt32(row.CharID)
		w.WriteString(row.Name)
		w.WriteByte(byte(row.Slot))
	}
	sess.Send(packet.MsgLoginResponse, w.Bytes())
}

func (d *HandlerDeps) handleCharSelect(sessAny any, r *packet.Reader) {
	sess, ok := d.session(sessAny)
	if !ok {
		return
	}
	charID := r.ReadInt32()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row, err := d.Characters.GetByID(ctx, charID)
	if err != nil {
		w := packet.NewWriter()
		w.WriteByte(byte(resultcode.InvalidArgument))
		sess.Send(packet.MsgCharSelectOK, w.Bytes())
		return
	}

	addr, token, code := d.Auth.SelectCharacter(ctx, charID)
	if code != resultcode.OK {
		w := packet.NewWriter()
		w.WriteByte(byte(code))
		sess.Send(packet.MsgCharSelectOK, w.Bytes())
		return
	}

	sess.CharName = row.Name

	w := packet.NewWriter()
	w.WriteByte(byte(resultcode.OK))
	w.WriteString(addr.Host)
	w.WriteUint16(uint16(addr.Port))
	w.WriteBytes(token[:])
	sess.Send(packet.MsgCharSelectOK, w.Bytes())
}

// handleChatLine either runs a "."-prefixed administrative command
// (spec §6 "Command syntax") or, for an ordinary line, rebroadcasts it
// on the implicit public channel (channel id 0).
func (d *HandlerDeps) handleChatLine(sessAny any, r *packet.Reader) {
	sess, ok := d.session(sessAny)
	if !ok {
		return
	}
	line := r.ReadString()
	if sess.CharName == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	caller, err := d.Characters.GetByName(ctx, sess.CharName)
	if err != nil {
		return
	}

	if d.Commands != nil && len(line) > 0 && line[0] == CommandPrefix {
		rights := int32(0)
		if acct, err := d.Accounts.GetByID(ctx, caller.AccountID); err == nil {
			rights = int32(acct.AccessLevel)
		}
		cmdCtx := &CommandContext{
			CallerCharID: caller.CharID,
			CallerRights: rights,
			SelfCharID:   caller.CharID,
			CurrentMapID: int32(caller.Snapshot.MapID),
		}
		if consumed, code := d.Commands.Dispatch(cmdCtx, line); consumed {
			w := packet.NewWriter()
			w.WriteByte(byte(code))
			sess.Send(packet.MsgChatLine, w.Bytes())
			return
		}
	}

	w := packet.NewWriter()
	w.WriteString(sess.CharName)
	w.WriteString(line)
	d.Chat.Broadcast(0, packet.MsgChatLine, w.Bytes())
}

func (d *HandlerDeps) handlePartyInvite(sessAny any, r *packet.Reader) {
	sess, ok := d.session(sessAny)
	if !ok {
		return
	}
	partyID := r.ReadInt32()
	targetName := r.ReadString()
	if sess.CharName == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	target, err := d.Characters.GetByName(ctx, targetName)
	if err != nil {
		return
	}

	if partyID == 0 {
		caller, err := d.Characters.GetByName(ctx, sess.CharName)
		if err != nil {
			return
		}
		partyID = d.Parties.Form(caller.CharID)
	}
	d.Parties.Join(partyID, target.CharID)
}

func (d *HandlerDeps) handleGuildInvite(sessAny any, r *packet.Reader) {
	sess, ok := d.session(sessAny)
	if !ok {
		return
	}
	guildID := r.ReadInt32()
	targetName := r.ReadString()
	if sess.CharName == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	caller, err := d.Characters.GetByName(ctx, sess.CharName)
	if err != nil {
		return
	}
	target, err := d.Characters.GetByName(ctx, targetName)
	if err != nil {
		return
	}

	code := d.Guilds.Invite(ctx, guildID, caller.CharID, target.CharID)
	w := packet.NewWriter()
	w.WriteByte(byte(code))
	sess.Send(packet.MsgGuildInvite, w.Bytes())
}
