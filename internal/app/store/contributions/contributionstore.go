package contributionstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/edirhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrBadAmount = errors.New("amount must be greater than zero")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contributions")}
}

// Create records a contribution. PaidAt defaults to now.
func (s *Store) Create(ctx context.Context, c models.Contribution) (models.Contribution, error) {
	if c.AmountCents <= 0 {
		return models.Contribution{}, ErrBadAmount
	}
	c.ID = primitive.NewObjectID()
	c.Note = strings.TrimSpace(c.Note)
	if c.PaidAt.IsZero() {
		c.PaidAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Contribution{}, err
	}
	return c, nil
}

// ListByEdir returns the Edir's most recent contributions, newest first.
func (s *Store) ListByEdir(ctx context.Context, edirID primitive.ObjectID, limit int64) ([]models.Contribution, error) {
	return s.find(ctx, bson.M{"edir_id": edirID}, limit)
}

// ListByMember returns one member's contributions, newest first.
func (s *Store) ListByMember(ctx context.Context, edirID, memberID primitive.ObjectID, limit int64) ([]models.Contribution, error) {
	return s.find(ctx, bson.M{"edir_id": edirID, "member_id": memberID}, limit)
}

// TotalByEdir sums all contributions to the Edir.
func (s *Store) TotalByEdir(ctx context.Context, edirID primitive.ObjectID) (int64, error) {
	return s.sum(ctx, bson.M{"edir_id": edirID})
}

// TotalByMember sums one member's contributions.
func (s *Store) TotalByMember(ctx context.Context, edirID, memberID primitive.ObjectID) (int64, error) {
	return s.sum(ctx, bson.M{"edir_id": edirID, "member_id": memberID})
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]models.Contribution, error) {
	opts := options.Find().SetSort(bson.D{{Key: "paid_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Contribution
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) sum(ctx context.Context, match bson.M) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount_cents"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var row struct {
		Total int64 `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
	}
	return row.Total, cur.Err()
}
