package ws

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Client events are tagged JSON payloads validated before dispatch.

type envelope struct {
	Type string `json:"type"`
}

type JoinRequest struct {
	Type    string `json:"type"`
	PartyID string `json:"party_id" validate:"required"`
}

type SendMessageRequest struct {
	Type        string `json:"type"`
	Sender      string `json:"sender" validate:"required"`
	DisplayName string `json:"display_name" validate:"required,max=36"`
	Content     string `json:"content" validate:"required"`
}

func decodePayload[T any](data []byte) (T, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}
	if err := validate.Struct(&p); err != nil {
		return p, err
	}
	return p, nil
}
