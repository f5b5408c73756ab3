package core

import (
	"context"

	"github.com/reelmates/watchparty/internal/domain"
)

// Frame is a marshaled event ready for the wire.
type Frame []byte

// ConnID identifies one live connection for its process lifetime.
type ConnID string

// Conn abstracts the transport endpoint the gateway fans out to.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// Verifier resolves an opaque bearer token to a stable user identifier.
// It runs once during connection setup, never per message.
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.UserID, error)
}

// PartyDirectory is the authoritative record of parties. Implementations
// return parties with the password hash stripped.
type PartyDirectory interface {
	Create(ctx context.Context, title string, isPrivate bool, password string, creator domain.UserID, displayName string) (*domain.Party, error)
	Join(ctx context.Context, id domain.PartyID, uid domain.UserID, displayName, password string) (*domain.Party, error)
	Leave(ctx context.Context, id domain.PartyID, uid domain.UserID) (*domain.Party, error)
	AddTags(ctx context.Context, id domain.PartyID, tags []string) (*domain.Party, error)
	RemoveTags(ctx context.Context, id domain.PartyID, tags []string) (*domain.Party, error)
	Get(ctx context.Context, id domain.PartyID) (*domain.Party, error)
	List(ctx context.Context) ([]*domain.Party, error)
}

// MessageLog is the durable, append-only, time-ordered chat history.
// Append assigns the timestamp at persistence time.
type MessageLog interface {
	Append(ctx context.Context, partyID domain.PartyID, sender, displayName, content string) (*domain.Message, error)
	ListByParty(ctx context.Context, partyID domain.PartyID) ([]*domain.Message, error)
}

// RoomRegistry maps a party to the set of live connections subscribed to it.
// Pure in-memory state, scoped to the process lifetime.
type RoomRegistry interface {
	Subscribe(partyID domain.PartyID, connID ConnID)
	Unsubscribe(partyID domain.PartyID, connID ConnID)
	MembersOf(partyID domain.PartyID) []ConnID
}
