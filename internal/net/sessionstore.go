package net

import "sync"

// SessionStore indexes live sessions by id and, once authenticated, by
// account/character name. Accessed only from the game loop goroutine —
// no internal locking needed there; the mutex guards the rare case of a
// diagnostic read from another goroutine (e.g. an admin endpoint).
type SessionStore struct {
	mu      sync.RWMutex
	byID    map[uint64]*Session
	byChar  map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:   make(map[uint64]*Session),
		byChar: make(map[string]*Session),
	}
}

func (st *SessionStore) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.byID[s.ID] = s
}

func (st *SessionStore) Remove(id uint64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.byID[id]
	if !ok {
		return
	}
	delete(st.byID, id)
	if s.CharName != "" {
		delete(st.byChar, s.CharName)
	}
}

func (st *SessionStore) Get(id uint64) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.byID[id]
}

// BindCharacter indexes a session by its character's name, once known,
// so private-message lookup (§4.11) is O(1).
func (st *SessionStore) BindCharacter(s *Session, charName string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s.CharName = charName
	st.byChar[charName] = s
}

func (st *SessionStore) GetByCharName(name string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.byChar[name]
}

// Each calls fn for every currently connected session.
func (st *SessionStore) Each(fn func(*Session)) {
	st.mu.RLock()
	sessions := make([]*Session, 0, len(st.byID))
	for _, s := range st.byID {
		sessions = append(sessions, s)
	}
	st.mu.RUnlock()
	for _, s := range sessions {
		fn(s)
	}
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}
