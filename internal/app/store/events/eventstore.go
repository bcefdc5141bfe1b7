package eventstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrTitleRequired = errors.New("title is required")
	ErrStartRequired = errors.New("start time is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts an event for the Edir.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = primitive.NewObjectID()
	e.Title = normalize.Name(e.Title)
	e.TitleCI = text.Fold(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.Location = normalize.Name(e.Location)
	e.CreatedAt = time.Now().UTC()

	if e.Title == "" {
		return models.Event{}, ErrTitleRequired
	}
	if e.StartsAt.IsZero() {
		return models.Event{}, ErrStartRequired
	}
	e.StartsAt = e.StartsAt.UTC()

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// Upcoming returns the Edir's events starting at or after from, soonest first.
func (s *Store) Upcoming(ctx context.Context, edirID primitive.ObjectID, from time.Time, limit int64) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"edir_id": edirID, "starts_at": bson.M{"$gte": from.UTC()}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUpcoming counts the Edir's events starting at or after from.
func (s *Store) CountUpcoming(ctx context.Context, edirID primitive.ObjectID, from time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"edir_id": edirID, "starts_at": bson.M{"$gte": from.UTC()}})
}
