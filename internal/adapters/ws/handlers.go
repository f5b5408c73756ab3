package ws

import (
	"context"
	"errors"

	"github.com/reelmates/watchparty/internal/app"
	"github.com/reelmates/watchparty/internal/core"
	"github.com/reelmates/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *PartyWSController) handleEvent(ctx context.Context, connID core.ConnID, c *wsConn, data []byte) {
	env, err := decodePayload[envelope](data)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(connID, c, data)
	case "leave":
		ctl.handleLeave(connID, c)
	case "message":
		ctl.handleMessage(ctx, connID, c, data)
	case "ping":
		ctl.sendJSON(c, map[string]any{"type": "pong"})
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
		ctl.sendError(c, "unknown_event")
	}
}

func (ctl *PartyWSController) handleJoin(connID core.ConnID, c *wsConn, data []byte) {
	p, err := decodePayload[JoinRequest](data)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	if err := ctl.Gateway.Join(connID, domain.PartyID(p.PartyID)); err != nil {
		ctl.sendError(c, "join_failed")
		return
	}
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		PartyID string `json:"party_id"`
	}{
		Type:    "joined",
		PartyID: p.PartyID,
	})
}

// handleLeave detaches from the current room; the connection stays open.
func (ctl *PartyWSController) handleLeave(connID core.ConnID, c *wsConn) {
	ctl.Gateway.Leave(connID)
	ctl.sendJSON(c, map[string]any{"type": "left"})
}

// handleMessage persists then fans out; a failure is reported only to the
// originating connection and never retried.
func (ctl *PartyWSController) handleMessage(ctx context.Context, connID core.ConnID, c *wsConn, data []byte) {
	p, err := decodePayload[SendMessageRequest](data)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad message payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	if _, err := ctl.Gateway.Send(ctx, connID, p.Sender, p.DisplayName, p.Content); err != nil {
		switch {
		case errors.Is(err, app.ErrNotInRoom):
			ctl.sendError(c, "not_in_room")
		case errors.Is(err, domain.ErrPersistence):
			ctl.sendError(c, "persistence_failed")
		default:
			ctl.sendError(c, "send_failed")
		}
	}
}
