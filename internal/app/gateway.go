package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/reelmates/watchparty/internal/core"
	"github.com/reelmates/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownConn = errors.New("unknown connection")
	ErrNotInRoom   = errors.New("connection is not in a room")
)

// SessionGateway owns the real-time core: it authenticates connections,
// tracks room membership of live sessions and fans persisted messages out.
// Constructed once at process start; no ambient globals.
type SessionGateway struct {
	Verifier  core.Verifier
	Directory core.PartyDirectory
	Log       core.MessageLog
	Rooms     core.RoomRegistry
	Sessions  *SessionTable
}

func NewSessionGateway(v core.Verifier, d core.PartyDirectory, ml core.MessageLog, rr core.RoomRegistry) *SessionGateway {
	return &SessionGateway{
		Verifier:  v,
		Directory: d,
		Log:       ml,
		Rooms:     rr,
		Sessions:  NewSessionTable(),
	}
}

// Connect authenticates the bearer token and admits the connection. This is
// the only place a session enters the table; a failed verification never
// touches the registry.
func (g *SessionGateway) Connect(ctx context.Context, token string, conn core.Conn, cancel context.CancelFunc) (core.ConnID, domain.UserID, error) {
	uid, err := g.Verifier.Verify(ctx, token)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.gateway").Msg("connection rejected")
		return "", "", err
	}
	id := core.ConnID(uuid.NewString())
	g.Sessions.Bind(id, uid, conn, cancel)
	log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("user", string(uid)).Msg("connection admitted")
	return id, uid, nil
}

// Join subscribes the connection to a party's events. A connection holds at
// most one room: any prior subscription is detached first.
func (g *SessionGateway) Join(id core.ConnID, partyID domain.PartyID) error {
	if _, ok := g.Sessions.UserOf(id); !ok {
		return ErrUnknownConn
	}
	if prev, ok := g.Sessions.PartyOf(id); ok {
		g.Rooms.Unsubscribe(prev, id)
		log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("from_party", string(prev)).Msg("detached from previous room")
	}
	g.Rooms.Subscribe(partyID, id)
	g.Sessions.UpdateParty(id, partyID)
	log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("party", string(partyID)).Msg("joined room")
	return nil
}

// Leave detaches the connection from its current room, if any.
func (g *SessionGateway) Leave(id core.ConnID) {
	if partyID, ok := g.Sessions.PartyOf(id); ok {
		g.Rooms.Unsubscribe(partyID, id)
		g.Sessions.ClearParty(id)
		log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("party", string(partyID)).Msg("left room")
	}
}

// Disconnect must run exactly when the transport closes so no ghost member
// keeps receiving broadcasts.
func (g *SessionGateway) Disconnect(id core.ConnID) {
	g.Leave(id)
	g.Sessions.Cancel(id)
	g.Sessions.Unbind(id)
}

// BroadcastEvent is the wire shape of a fanned-out chat message.
type BroadcastEvent struct {
	Type        string         `json:"type"`
	PartyID     domain.PartyID `json:"party_id"`
	Sender      string         `json:"sender"`
	DisplayName string         `json:"display_name"`
	Content     string         `json:"content"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Send persists the message, then broadcasts it to every connection
// subscribed to the party, the sender's own included. Persistence strictly
// precedes fan-out: a message that cannot be replayed later is never
// delivered. An append failure is surfaced to the caller only.
func (g *SessionGateway) Send(ctx context.Context, id core.ConnID, sender, displayName, content string) (*domain.Message, error) {
	partyID, ok := g.Sessions.PartyOf(id)
	if !ok {
		return nil, ErrNotInRoom
	}

	msg, err := g.Log.Append(ctx, partyID, sender, displayName, content)
	if err != nil {
		log.Error().Err(err).Str("module", "app.gateway").Str("party", string(partyID)).Msg("append failed, broadcast suppressed")
		return nil, err
	}

	g.broadcast(partyID, BroadcastEvent{
		Type:        "message",
		PartyID:     msg.PartyID,
		Sender:      msg.Sender,
		DisplayName: msg.DisplayName,
		Content:     msg.Content,
		Timestamp:   msg.Timestamp,
	})
	return msg, nil
}

// broadcast snapshots the member set, then delivers without holding the
// registry lock. Slow consumers get the frame dropped, never block fan-out.
func (g *SessionGateway) broadcast(partyID domain.PartyID, ev BroadcastEvent) {
	frame, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.gateway").Msg("broadcast marshal")
		return
	}
	members := g.Rooms.MembersOf(partyID)
	sent, dropped := 0, 0
	for _, conn := range g.Sessions.Conns(members) {
		if err := conn.TrySend(core.Frame(frame)); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.gateway").Str("party", string(partyID)).Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast result")
}
