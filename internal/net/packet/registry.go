package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateHandshake         SessionState = iota
	StateAuthenticated                  // logged in, at character select
	StateInWorld                        // playing
	StateReturningToSelect              // returning to char select from world
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateAuthenticated:
		return "Authenticated"
	case StateInWorld:
		return "InWorld"
	case StateReturningToSelect:
		return "ReturningToSelect"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for message handlers. The
// session is passed as an opaque interface to avoid an import cycle
// back into the net package.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps message ids to handlers with state-based access control.
type Registry struct {
	handlers map[uint16]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[uint16]*handlerEntry),
		log:      log,
	}
}

// Register maps a message id to a handler, restricted to the given session states.
func (reg *Registry) Register(msgID uint16, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[msgID] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Dispatch finds the handler for msgID, validates the session state, and
// calls the handler. Malformed payloads and unknown ids are logged and
// dropped (§7 "Protocol violation") rather than surfaced as errors.
func (reg *Registry) Dispatch(sess any, state SessionState, msgID uint16, payload []byte) {
	entry, ok := reg.handlers[msgID]
	if !ok {
		reg.log.Debug("unknown message id", zap.Uint16("msg_id", msgID), zap.String("state", state.String()))
		return
	}

	if !entry.allowedStates[state] {
		reg.log.Debug("message id not allowed in state",
			zap.Uint16("msg_id", msgID),
			zap.String("state", state.String()),
		)
		return
	}

	r := NewReader(payload)
	reg.safeCall(entry.fn, sess, r, msgID)
}

// safeCall executes a handler with panic recovery so one malformed
// packet cannot take down the whole tick loop (§7 distinguishes this
// from a simulation-internal assertion, which is allowed to be fatal).
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, msgID uint16) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint16("msg_id", msgID),
				zap.Any("panic", rec),
			)
		}
	}()
	fn(sess, r)
}
