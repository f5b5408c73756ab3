package domain

import (
	"time"

	"github.com/google/uuid"
)

type PartyID string

// Party is the authoritative directory record of a watch party.
// PasswordHash is present iff IsPrivate; it is never serialized outward.
type Party struct {
	ID           PartyID   `bson:"_id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	IsPrivate    bool      `bson:"is_private" json:"is_private"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	Members      []Member  `bson:"members" json:"members"`
	Tags         []string  `bson:"tags" json:"tags"`
	CreatedBy    UserID    `bson:"created_by" json:"created_by"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Member is one entry of a party's member list. UserID is unique within the list.
type Member struct {
	UserID      UserID    `bson:"user_id" json:"user_id"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	JoinedAt    time.Time `bson:"joined_at" json:"joined_at"`
}

// NewParty avoids raw literals in stores and keeps construction obvious.
// The creator becomes the first member.
func NewParty(title string, isPrivate bool, creator UserID, displayName string) (*Party, error) {
	if title == "" {
		return nil, ErrTitleEmpty
	}
	if len(title) > MaxTitleLen {
		return nil, ErrTitleTooLong
	}
	now := time.Now()
	return &Party{
		ID:        PartyID(uuid.NewString()),
		Title:     title,
		IsPrivate: isPrivate,
		Members:   []Member{{UserID: creator, DisplayName: displayName, JoinedAt: now}},
		Tags:      []string{},
		CreatedBy: creator,
		CreatedAt: now,
	}, nil
}

// HasMember reports whether uid already appears in the member list.
func (p *Party) HasMember(uid UserID) bool {
	for _, m := range p.Members {
		if m.UserID == uid {
			return true
		}
	}
	return false
}

// Stripped returns a copy safe for serialization, with the password hash removed.
func (p *Party) Stripped() *Party {
	cp := *p
	cp.PasswordHash = ""
	return &cp
}
