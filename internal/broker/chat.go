package broker

import (
	"context"
	"strings"
	"sync"

	"github.com/embervale/worldserver/internal/net"
	"github.com/embervale/worldserver/internal/persist"
	"github.com/embervale/worldserver/internal/resultcode"
)

// ChatHub routes channel joins, channel messages, and private messages
// (spec §4.11 "Chat is routed through the Hub"). A client's chat session
// rides its own net.Session, bootstrapped by the same token-collector
// pattern as the game handoff (a separate TokenCollector instance, since
// §4.9 says the pattern "is reused identically" per handoff kind).
type ChatHub struct {
	channels *persist.ChannelRepo
	sessions *net.SessionStore

	mu       sync.Mutex
	members  map[int32]map[string]struct{} // channel id -> member char names
}

func NewChatHub(channels *persist.ChannelRepo, sessions *net.SessionStore) *ChatHub {
	return &ChatHub{
		channels: channels,
		sessions: sessions,
		members:  make(map[int32]map[string]struct{}),
	}
}

// JoinChannel finds the named channel or creates a public one on demand;
// a password-protected channel requires a match (spec §4.11).
func (h *ChatHub) JoinChannel(ctx context.Context, charName, channelName, password string) (*persist.Channel, resultcode.Code) {
	list, err := h.channels.List(ctx)
	if err != nil {
		return nil, resultcode.Failure
	}
	for i := range list {
		ch := &list[i]
		if !strings.EqualFold(ch.Name, channelName) {
			continue
		}
		if ch.Password != "" && ch.Password != password {
			return nil, resultcode.InsufficientRights
		}
		h.addMember(ch.ChannelID, charName)
		return ch, resultcode.OK
	}

	id, err := h.channels.Create(ctx, channelName, "", password)
	if err != nil {
		return nil, resultcode.Failure
	}
	ch := &persist.Channel{ChannelID: id, Name: channelName, Password: password}
	h.addMember(id, charName)
	return ch, resultcode.OK
}

func (h *ChatHub) LeaveChannel(channelID int32, charName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.members[channelID]; ok {
		delete(m, charName)
	}
}

func (h *ChatHub) addMember(channelID int32, charName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.members[channelID]
	if !ok {
		m = make(map[string]struct{})
		h.members[channelID] = m
	}
	m[charName] = struct{}{}
}

// Broadcast sends a channel message to every member whose session is
// currently connected to this Broker.
func (h *ChatHub) Broadcast(channelID int32, msgID uint16, payload []byte) {
	h.mu.Lock()
	names := make([]string, 0, len(h.members[channelID]))
	for name := range h.members[channelID] {
		names = append(names, name)
	}
	h.mu.Unlock()

	for _, name := range names {
		if s := h.sessions.GetByCharName(name); s != nil {
			s.Send(msgID, payload)
		}
	}
}

// PrivateMessage scans the client table by name (spec §4.11 "Private
// messages scan the client table by name").
func (h *ChatHub) PrivateMessage(toCharName string, msgID uint16, payload []byte) resultcode.Code {
	s := h.sessions.GetByCharName(toCharName)
	if s == nil {
		return resultcode.InvalidArgument
	}
	s.Send(msgID, payload)
	return resultcode.OK
}
