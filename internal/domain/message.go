package domain

import "time"

// Message is one append-only chat log entry. PartyID is not validated for
// existence at write time; the log tolerates orphaned writes.
type Message struct {
	PartyID     PartyID   `bson:"party_id" json:"party_id"`
	Sender      string    `bson:"sender" json:"sender"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Content     string    `bson:"content" json:"content"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}
