// Package partystore is the MongoDB-backed party directory.
package partystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reelmates/watchparty/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c    *mongo.Collection
	cost int
}

func New(db *mongo.Database, bcryptCost int) *Store {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{c: db.Collection("parties"), cost: bcryptCost}
}

// EnsureIndexes creates the unique title index. Two concurrent creates with
// the same title race at the database; exactly one insert wins.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Create inserts a new party with the creator as first member. The plaintext
// password is hashed immediately and never stored.
func (s *Store) Create(ctx context.Context, title string, isPrivate bool, password string, creator domain.UserID, displayName string) (*domain.Party, error) {
	p, err := domain.NewParty(title, isPrivate, creator, displayName)
	if err != nil {
		return nil, err
	}
	if isPrivate && password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = string(hash)
	}

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateTitle
		}
		return nil, persistence("insert party", err)
	}
	return p.Stripped(), nil
}

// Join appends a member after checking password and duplicate membership.
// The membership guard is re-checked in the update filter so two concurrent
// joins of the same user cannot both append.
func (s *Store) Join(ctx context.Context, id domain.PartyID, uid domain.UserID, displayName, password string) (*domain.Party, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.IsPrivate {
		if password == "" {
			return nil, domain.ErrPasswordRequired
		}
		if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
			return nil, domain.ErrInvalidPassword
		}
	}
	if p.HasMember(uid) {
		return nil, domain.ErrAlreadyMember
	}

	member := domain.Member{UserID: uid, DisplayName: displayName, JoinedAt: time.Now()}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members.user_id": bson.M{"$ne": uid}},
		bson.M{"$push": bson.M{"members": member}},
	)
	if err != nil {
		return nil, persistence("join party", err)
	}
	if res.ModifiedCount == 0 {
		return nil, domain.ErrAlreadyMember
	}

	p.Members = append(p.Members, member)
	return p.Stripped(), nil
}

// Leave removes the matching member entry. Idempotent: leaving a party the
// user is not a member of returns the party unchanged.
func (s *Store) Leave(ctx context.Context, id domain.PartyID, uid domain.UserID) (*domain.Party, error) {
	if _, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"members": bson.M{"user_id": uid}}},
	); err != nil {
		return nil, persistence("leave party", err)
	}
	return s.Get(ctx, id)
}

// AddTags merges the requested tags into the party's set. The whole batch is
// validated against the vocabulary first; no partial merge.
func (s *Store) AddTags(ctx context.Context, id domain.PartyID, tags []string) (*domain.Party, error) {
	for _, t := range tags {
		if !domain.IsAllowedTag(t) {
			return nil, domain.ErrInvalidTag
		}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"tags": bson.M{"$each": tags}}},
	)
	if err != nil {
		return nil, persistence("add tags", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	return s.Get(ctx, id)
}

// RemoveTags filters the requested tags out; absent tags are a no-op.
func (s *Store) RemoveTags(ctx context.Context, id domain.PartyID, tags []string) (*domain.Party, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"tags": bson.M{"$in": tags}}},
	)
	if err != nil {
		return nil, persistence("remove tags", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	return s.Get(ctx, id)
}

// Get loads one party with the password hash stripped.
func (s *Store) Get(ctx context.Context, id domain.PartyID) (*domain.Party, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Stripped(), nil
}

// List returns all parties, hashes stripped.
func (s *Store) List(ctx context.Context) ([]*domain.Party, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, persistence("list parties", err)
	}
	defer cur.Close(ctx)

	var parties []*domain.Party
	if err := cur.All(ctx, &parties); err != nil {
		return nil, persistence("decode parties", err)
	}
	out := make([]*domain.Party, 0, len(parties))
	for _, p := range parties {
		out = append(out, p.Stripped())
	}
	return out, nil
}

// load keeps the password hash; internal use only.
func (s *Store) load(ctx context.Context, id domain.PartyID) (*domain.Party, error) {
	var p domain.Party
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, persistence("load party", err)
	}
	return &p, nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}
