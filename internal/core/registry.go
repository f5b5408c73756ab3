package core

import (
	"sync"

	"github.com/reelmates/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomRegistry is a threadsafe in-memory registry. It never closes
// adapter-owned resources; it only tracks subscriptions.
type roomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.PartyID]map[ConnID]struct{}
}

func NewRoomRegistry() RoomRegistry {
	return &roomRegistry{rooms: make(map[domain.PartyID]map[ConnID]struct{})}
}

func (r *roomRegistry) Subscribe(partyID domain.PartyID, connID ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.rooms[partyID]
	if !ok {
		set = make(map[ConnID]struct{})
		r.rooms[partyID] = set
	}
	set[connID] = struct{}{}
	log.Info().Str("module", "core.registry").Str("party", string(partyID)).Str("conn", string(connID)).Msg("subscribed")
}

// Unsubscribe is idempotent; removing an absent connection is a no-op.
func (r *roomRegistry) Unsubscribe(partyID domain.PartyID, connID ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.rooms[partyID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.rooms, partyID)
	}
	log.Info().Str("module", "core.registry").Str("party", string(partyID)).Str("conn", string(connID)).Msg("unsubscribed")
}

// MembersOf returns a snapshot slice so callers never deliver while the
// registry lock is held.
func (r *roomRegistry) MembersOf(partyID domain.PartyID) []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.rooms[partyID]
	out := make([]ConnID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
