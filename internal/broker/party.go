package broker

import "sync"

// PartyUpdateSink is notified whenever a character's party id changes,
// so the runtime can tag experience and loot eligibility accordingly
// (spec §4.11 "the runtime is informed of a character's party id
// changes").
type PartyUpdateSink interface {
	PartyChanged(charID int32, partyID int32)
}

// PartyService tracks parties entirely in memory; they dissolve when
// membership drops below one (spec §4.11 "Parties are memory-only and
// dissolve when they drop below one member").
type PartyService struct {
	mu      sync.Mutex
	nextID  int32
	parties map[int32]map[int32]struct{} // party id -> member char ids
	sink    PartyUpdateSink
}

func NewPartyService(sink PartyUpdateSink) *PartyService {
	return &PartyService{parties: make(map[int32]map[int32]struct{}), sink: sink}
}

// Form creates a new party from a leader and returns its id.
func (p *PartyService) Form(leaderCharID int32) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.parties[id] = map[int32]struct{}{leaderCharID: {}}
	p.notify(leaderCharID, id)
	return id
}

// Join adds a member to an existing party.
func (p *PartyService) Join(partyID, charID int32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	members, ok := p.parties[partyID]
	if !ok {
		return false
	}
	members[charID] = struct{}{}
	p.notify(charID, partyID)
	return true
}

// Leave removes a member; the party dissolves if membership drops below
// one.
func (p *PartyService) Leave(partyID, charID int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	members, ok := p.parties[partyID]
	if !ok {
		return
	}
	delete(members, charID)
	p.notify(charID, 0)
	if len(members) < 1 {
		delete(p.parties, partyID)
	}
}

// Members returns the current roster of a party.
func (p *PartyService) Members(partyID int32) []int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	members, ok := p.parties[partyID]
	if !ok {
		return nil
	}
	out := make([]int32, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

func (p *PartyService) notify(charID, partyID int32) {
	if p.sink != nil {
		p.sink.PartyChanged(charID, partyID)
	}
}
