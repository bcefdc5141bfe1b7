// internal/store/resources/resourcestore.go
package resourcestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/normalize"
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
	ErrDuplicateName = errors.New("a resource with this name already exists")
	ErrNameRequired  = errors.New("name is required")
	ErrBadQuantity   = errors.New("quantity must be zero or more")
	ErrBadStatus     = errors.New(`status must be "available"|"in_use"|"maintenance"|"retired"`)
	ErrNotFound      = errors.New("resource not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("resources")}
}

// IsValidStatus reports whether s is a known resource status.
func IsValidStatus(s string) bool {
	for _, v := range models.ResourceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Create inserts a new resource for the Edir, setting NameCI and timestamps.
func (s *Store) Create(ctx context.Context, r models.Resource) (models.Resource, error) {
	now := time.Now().UTC()

	r.ID = primitive.NewObjectID()
	r.Name = normalize.Name(r.Name)
	r.NameCI = text.Fold(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	if r.Status == "" {
		r.Status = models.ResourceAvailable
	}
	r.CreatedAt = now
	r.UpdatedAt = now

	if r.Name == "" {
		return models.Resource{}, ErrNameRequired
	}
	if r.Quantity < 0 {
		return models.Resource{}, ErrBadQuantity
	}
	if !IsValidStatus(r.Status) {
		return models.Resource{}, ErrBadStatus
	}

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Resource{}, ErrDuplicateName
		}
		return models.Resource{}, err
	}
	return r, nil
}

// GetInEdir returns a resource by ID, only if it belongs to the Edir.
func (s *Store) GetInEdir(ctx context.Context, edirID, id primitive.ObjectID) (models.Resource, error) {
	var r models.Resource
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "edir_id": edirID}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Resource{}, ErrNotFound
		}
		return models.Resource{}, err
	}
	return r, nil
}

// SetStatus changes a resource's status within the Edir.
func (s *Store) SetStatus(ctx context.Context, edirID, id primitive.ObjectID, st string) error {
	if !IsValidStatus(st) {
		return ErrBadStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "edir_id": edirID},
		bson.M{"$set": bson.M{"status": st, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByEdir returns the Edir's resources with the given status ("" for all),
// sorted by name.
func (s *Store) ListByEdir(ctx context.Context, edirID primitive.ObjectID, st string) ([]models.Resource, error) {
	filter := bson.M{"edir_id": edirID}
	if st != "" {
		filter["status"] = st
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var resources []models.Resource
	if err := cur.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// CountByStatus returns the number of the Edir's resources per status.
func (s *Store) CountByStatus(ctx context.Context, edirID primitive.ObjectID) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"edir_id": edirID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64, len(models.ResourceStatuses))
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}
