// internal/app/store/logins/loginstore.go
package loginstore

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/ratelimit"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("login_records")}
}

// Create inserts a LoginRecord. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom builds a LoginRecord for u from the HTTP request and inserts it.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, u models.User, provider string) error {
	return s.Create(ctx, models.LoginRecord{
		UserID:   u.ID,
		EdirID:   u.EdirID,
		UserName: u.FullName,
		IP:       ratelimit.ClientIP(r),
		Provider: provider,
	})
}

// RecentByEdir returns the Edir's latest sign-ins, newest first.
func (s *Store) RecentByEdir(ctx context.Context, edirID primitive.ObjectID, limit int64) ([]models.LoginRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{"edir_id": edirID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LoginRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LastForUser returns the user's most recent sign-in, or nil if none.
func (s *Store) LastForUser(ctx context.Context, userID primitive.ObjectID) (*models.LoginRecord, error) {
	var rec models.LoginRecord
	err := s.c.FindOne(ctx, bson.M{"user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
