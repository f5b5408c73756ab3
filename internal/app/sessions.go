package app

import (
	"context"
	"sync"

	"github.com/reelmates/watchparty/internal/core"
	"github.com/reelmates/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	UserID  domain.UserID
	PartyID domain.PartyID
	Conn    core.Conn
	Cancel  context.CancelFunc
}

// SessionTable tracks every authenticated live connection. PartyID is ""
// while the connection is not in a room.
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[core.ConnID]*sessionEntry
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[core.ConnID]*sessionEntry)}
}

func (t *SessionTable) Bind(id core.ConnID, uid domain.UserID, conn core.Conn, cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[id] = &sessionEntry{UserID: uid, Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.sessions").Str("conn", string(id)).Str("user", string(uid)).Msg("bound session")
}

func (t *SessionTable) Unbind(id core.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
	log.Info().Str("module", "app.sessions").Str("conn", string(id)).Msg("unbound session")
}

func (t *SessionTable) UserOf(id core.ConnID) (domain.UserID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.sessions[id]
	if !ok {
		return "", false
	}
	return e.UserID, true
}

// PartyOf reports the room the connection is currently subscribed to, if any.
func (t *SessionTable) PartyOf(id core.ConnID) (domain.PartyID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.sessions[id]
	if !ok || e.PartyID == "" {
		return "", false
	}
	return e.PartyID, true
}

func (t *SessionTable) UpdateParty(id core.ConnID, partyID domain.PartyID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.sessions[id]
	if !ok {
		return false
	}
	e.PartyID = partyID
	return true
}

func (t *SessionTable) ClearParty(id core.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.sessions[id]; ok {
		e.PartyID = ""
	}
}

// Conns resolves a snapshot of connection IDs to live transports. Entries
// unbound since the snapshot was taken are skipped.
func (t *SessionTable) Conns(ids []core.ConnID) []core.Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.Conn, 0, len(ids))
	for _, id := range ids {
		if e, ok := t.sessions[id]; ok {
			out = append(out, e.Conn)
		}
	}
	return out
}

func (t *SessionTable) Cancel(id core.ConnID) bool {
	t.mu.RLock()
	e, ok := t.sessions[id]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}
