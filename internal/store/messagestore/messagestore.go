// Package messagestore is the MongoDB-backed append-only message log.
package messagestore

import (
	"context"
	"fmt"
	"time"

	"github.com/reelmates/watchparty/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "party_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}

// Append assigns the timestamp at persistence time and writes durably.
// PartyID is not validated for existence; orphaned writes are tolerated.
func (s *Store) Append(ctx context.Context, partyID domain.PartyID, sender, displayName, content string) (*domain.Message, error) {
	msg := &domain.Message{
		PartyID:     partyID,
		Sender:      sender,
		DisplayName: displayName,
		Content:     content,
		Timestamp:   time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: append message: %v", domain.ErrPersistence, err)
	}
	return msg, nil
}

// ListByParty returns the party's history ascending by timestamp.
// Re-querying is safe and repeatable.
func (s *Store) ListByParty(ctx context.Context, partyID domain.PartyID) ([]*domain.Message, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"party_id": partyID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", domain.ErrPersistence, err)
	}
	defer cur.Close(ctx)

	var msgs []*domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("%w: decode messages: %v", domain.ErrPersistence, err)
	}
	return msgs, nil
}
