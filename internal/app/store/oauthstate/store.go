// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Entry is an OAuth2 state token issued when a sign-in redirect starts.
type Entry struct {
	State     string    `bson:"state"`
	ReturnURL string    `bson:"return_url,omitempty"` // where to go after sign-in
	EdirSlug  string    `bson:"edir_slug,omitempty"`  // Edir whose login page started the flow
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store keeps OAuth2 state tokens in MongoDB. The TTL index on expires_at
// removes stale tokens; Consume also ignores them.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// NewState returns a random URL-safe state token.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue creates and stores a fresh token valid for ttl.
func (s *Store) Issue(ctx context.Context, returnURL, edirSlug string, ttl time.Duration) (string, error) {
	state, err := NewState()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if err := s.Save(ctx, Entry{
		State:     state,
		ReturnURL: returnURL,
		EdirSlug:  edirSlug,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}
	return state, nil
}

// Save stores e as-is.
func (s *Store) Save(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Consume deletes the token and returns it when it exists and has not
// expired. ok is false for unknown, expired or already used tokens.
func (s *Store) Consume(ctx context.Context, state string) (e Entry, ok bool, err error) {
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// CleanupExpired removes expired tokens for when the TTL monitor lags.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
