// Package session implements the cross-server token handoff (spec §4.9):
// a TokenCollector pairs a client-side pending token with server-side
// pending data, in either order, and sweeps out whichever side times out
// first. The Broker and a runtime each run one instance per handoff kind
// (game login, chat login).
package session

import "time"

// Handler receives the three token-collector callbacks. DeletePendingClient
// and DeletePendingConnect fire when the collector considers an entry
// obsolete and is about to remove it; TokenMatched fires when both
// halves of a token arrive.
type Handler[Client, ServerData any] interface {
	DeletePendingClient(Client)
	DeletePendingConnect(ServerData)
	TokenMatched(Client, ServerData)
}

type pendingEntry[T any] struct {
	token     string
	data      T
	timestamp time.Time
}

// TokenCollector stores and matches tokens arriving from two independent
// directions — a client presenting a token, and a server registering the
// data that token should unlock — in whichever order they happen to
// arrive.
type TokenCollector[Handler_ Handler[Client, ServerData], Client, ServerData any] struct {
	handler Handler_

	pendingClients  []pendingEntry[Client]
	pendingConnects []pendingEntry[ServerData]
}

func NewTokenCollector[Handler_ Handler[Client, ServerData], Client, ServerData any](h Handler_) *TokenCollector[Handler_, Client, ServerData] {
	return &TokenCollector[Handler_, Client, ServerData]{handler: h}
}

// AddPendingClient checks whether a server already registered this
// token; if so it fires TokenMatched immediately, otherwise the client
// is queued pending a matching AddPendingConnect.
func (c *TokenCollector[Handler_, Client, ServerData]) AddPendingClient(token string, data Client) {
	for i, e := range c.pendingConnects {
		if e.token == token {
			c.pendingConnects = removeAt(c.pendingConnects, i)
			c.handler.TokenMatched(data, e.data)
			return
		}
	}
	c.pendingClients = append(c.pendingClients, pendingEntry[Client]{token: token, data: data, timestamp: time.Now()})
}

// AddPendingConnect is AddPendingClient's mirror image, called by the
// side registering server data ahead of the client's reconnect.
func (c *TokenCollector[Handler_, Client, ServerData]) AddPendingConnect(token string, data ServerData) {
	for i, e := range c.pendingClients {
		if e.token == token {
			c.pendingClients = removeAt(c.pendingClients, i)
			c.handler.TokenMatched(e.data, data)
			return
		}
	}
	c.pendingConnects = append(c.pendingConnects, pendingEntry[ServerData]{token: token, data: data, timestamp: time.Now()})
}

// DeletePendingClient removes a pending client without invoking
// DeletePendingClient on the handler (mirrors the original's note:
// "does not call destroyPendingClient" — the caller already knows why
// it's going away).
func (c *TokenCollector[Handler_, Client, ServerData]) DeletePendingClient(pred func(Client) bool) {
	for i, e := range c.pendingClients {
		if pred(e.data) {
			c.pendingClients = removeAt(c.pendingClients, i)
			return
		}
	}
}

// Sweep removes every pending entry older than maxAge, invoking the
// handler's delete callback for each. Call periodically (spec §4.9: "A
// periodic sweep removes entries older than a timeout").
func (c *TokenCollector[Handler_, Client, ServerData]) Sweep(maxAge time.Duration) {
	now := time.Now()

	kept := c.pendingClients[:0]
	for _, e := range c.pendingClients {
		if now.Sub(e.timestamp) > maxAge {
			c.handler.DeletePendingClient(e.data)
			continue
		}
		kept = append(kept, e)
	}
	c.pendingClients = kept

	keptConn := c.pendingConnects[:0]
	for _, e := range c.pendingConnects {
		if now.Sub(e.timestamp) > maxAge {
			c.handler.DeletePendingConnect(e.data)
			continue
		}
		keptConn = append(keptConn, e)
	}
	c.pendingConnects = keptConn
}

func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
