package system

import (
	"time"

	coresys "github.com/embervale/worldserver/internal/core/system"
	gonet "github.com/embervale/worldserver/internal/net"
	"github.com/embervale/worldserver/internal/net/packet"
	"go.uber.org/zap"
)

// InputSystem drains each connected session's inbound packet queue and
// dispatches the messages through the packet registry. It owns none of
// the session lifecycle itself (cmd/worldserver's main loop adds/removes
// sessions from the SessionStore as connections come and go); its only
// job is phase 0's "drain packet queues" step (spec §4 PhaseInput).
type InputSystem struct {
	sessions   *gonet.SessionStore
	registry   *packet.Registry
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(sessions *gonet.SessionStore, registry *packet.Registry, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{sessions: sessions, registry: registry, maxPerTick: maxPerTick, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Update drains up to maxPerTick messages from every live session,
// non-blocking per session so one backlogged client cannot starve the
// rest (mirrors the teacher's internal/system/input.go drain loop).
func (s *InputSystem) Update(_ time.Duration) {
	s.sessions.Each(func(sess *gonet.Session) {
		if sess.IsClosed() {
			return
		}
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case msg := <-sess.InQueue:
				s.registry.Dispatch(sess, sess.State(), msg.MsgID, msg.Payload)
			default:
				return
			}
		}
	})
}
