// internal/app/store/edirs/edirstore.go
package edirstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	ErrDuplicateSlug = errors.New("an Edir with this address already exists")
	ErrNotFound      = errors.New("edir not found")
	ErrBadStatus     = errors.New(`status must be "active"|"suspended"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("edirs")}
}

// Create inserts a new Edir. The slug is normalized; callers validate it
// against the reserved route segments first.
func (s *Store) Create(ctx context.Context, e models.Edir) (models.Edir, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Name = normalize.Name(e.Name)
	e.NameCI = text.Fold(e.Name)
	e.Slug = normalize.Slug(e.Slug)
	if e.Status == "" {
		e.Status = status.Active
	}
	if !status.IsValidEdir(e.Status) {
		return models.Edir{}, ErrBadStatus
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Edir{}, ErrDuplicateSlug
		}
		return models.Edir{}, err
	}
	return e, nil
}

// GetByID retrieves an Edir by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Edir, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug retrieves an Edir by its URL slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Edir, error) {
	return s.findOne(ctx, bson.M{"slug": normalize.Slug(slug)})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Edir, error) {
	var e models.Edir
	if err := s.c.FindOne(ctx, filter).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Edir{}, ErrNotFound
		}
		return models.Edir{}, err
	}
	return e, nil
}

// SlugExists reports whether an Edir already uses slug.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"slug": normalize.Slug(slug)}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// SetStatus suspends or reactivates an Edir.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	if !status.IsValidEdir(st) {
		return ErrBadStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an Edir. It only undoes an approval that failed part way.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns active Edirs sorted by name.
func (s *Store) ListActive(ctx context.Context) ([]models.Edir, error) {
	return s.Find(ctx, bson.M{"status": status.Active},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

// ListAll returns every Edir sorted by name.
func (s *Store) ListAll(ctx context.Context) ([]models.Edir, error) {
	return s.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

// Find returns Edirs matching the given filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Edir, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Edir
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of Edirs matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

