package system

import (
	"strconv"

	"github.com/embervale/worldserver/internal/broker"
	"github.com/embervale/worldserver/internal/core/ecs"
	gonet "github.com/embervale/worldserver/internal/net"
	"github.com/embervale/worldserver/internal/resultcode"
	"github.com/embervale/worldserver/internal/world"
	"go.uber.org/zap"
)

// CommandSystem is the worldserver-side GM command dispatcher reached
// from chat lines prefixed '.' (spec §3.13 "Command syntax"). It reuses
// broker.Dispatcher's CommandSpec grammar — character reference, item
// class id, map id, integer, with "#" self/current-map resolution — since
// that grammar is identical on both sides of the Broker/runtime split;
// only the registered commands differ.
type CommandSystem struct {
	dispatcher *broker.Dispatcher
	log        *zap.Logger

	// Set for the duration of a single Dispatch call so a CommandSpec's
	// Run closure can reach the caller's live map/entity without
	// broker.CommandContext growing simulation-specific fields.
	callerMap *world.Map
	callerID  ecs.EntityID
}

func NewCommandSystem(log *zap.Logger) *CommandSystem {
	s := &CommandSystem{dispatcher: broker.NewDispatcher(log), log: log}
	s.registerCommands()
	return s
}

func (s *CommandSystem) registerCommands() {
	s.dispatcher.Register(broker.CommandSpec{
		Name:      "warp",
		MinRights: 1,
		Args:      []broker.ArgKind{broker.ArgMapID, broker.ArgInt, broker.ArgInt},
		Run:       s.runWarp,
	})
}

// Dispatch parses and runs a chat line as a GM command; lines with no
// command prefix are silently ignored (spec §6 "Protocol violation").
func (s *CommandSystem) Dispatch(_ *gonet.Session, m *world.Map, id ecs.EntityID, char *world.Character, line string) {
	s.callerMap, s.callerID = m, id
	ctx := &broker.CommandContext{
		CallerCharID: char.CharID,
		CallerRights: int32(char.AccountLevel),
		SelfCharID:   char.CharID,
		CurrentMapID: m.ID,
	}
	consumed, code := s.dispatcher.Dispatch(ctx, line)
	s.callerMap, s.callerID = nil, 0
	if consumed && code != resultcode.OK {
		s.log.Debug("command rejected", zap.Int32("char_id", char.CharID), zap.Uint8("code", uint8(code)))
	}
}

// runWarp queues a deferred warp for the invoking character to
// destMapID/x/y, applied during PhaseHousekeeping by RedirectSystem
// (spec §3.11/§4.10).
func (s *CommandSystem) runWarp(_ *broker.CommandContext, args []string) resultcode.Code {
	if s.callerMap == nil {
		return resultcode.Failure
	}
	destMapID, err1 := strconv.ParseInt(args[0], 10, 32)
	x, err2 := strconv.ParseInt(args[1], 10, 32)
	y, err3 := strconv.ParseInt(args[2], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return resultcode.InvalidArgument
	}
	s.callerMap.Deferred.QueueWarp(s.callerID, world.WarpSpec{
		DestMapID: int32(destMapID),
		DestX:     int32(x),
		DestY:     int32(y),
	})
	return resultcode.OK
}
