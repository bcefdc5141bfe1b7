// internal/app/store/edirrequests/requeststore.go
package requeststore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound           = errors.New("edir request not found")
	ErrDuplicateReference = errors.New("edir request reference already used")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("edir_requests")}
}

// NewReference returns a short, human-friendly reference code such as
// "EDR-3F9A1C2B".
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "EDR-" + strings.ToUpper(id[:8])
}

// Create stores a pending request. A reference is assigned when empty.
func (s *Store) Create(ctx context.Context, req models.EdirRequest) (models.EdirRequest, error) {
	req.ID = primitive.NewObjectID()
	if req.Reference == "" {
		req.Reference = NewReference()
	}
	req.EdirName = normalize.Name(req.EdirName)
	req.Slug = normalize.Slug(req.Slug)
	req.RequesterName = normalize.Name(req.RequesterName)
	req.RequesterEmail = normalize.Email(req.RequesterEmail)
	req.RequesterPhone = normalize.Phone(req.RequesterPhone)
	req.Status = status.Pending
	req.CreatedAt = time.Now().UTC()
	req.DecidedAt = nil
	req.EdirID = nil

	if _, err := s.c.InsertOne(ctx, req); err != nil {
		if wafflemongo.IsDup(err) {
			return models.EdirRequest{}, ErrDuplicateReference
		}
		return models.EdirRequest{}, err
	}
	return req, nil
}

// GetByID loads a request.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.EdirRequest, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByReference loads a request by the code shown to the requester.
func (s *Store) GetByReference(ctx context.Context, ref string) (models.EdirRequest, error) {
	return s.findOne(ctx, bson.M{"reference": strings.ToUpper(strings.TrimSpace(ref))})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.EdirRequest, error) {
	var req models.EdirRequest
	if err := s.c.FindOne(ctx, filter).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.EdirRequest{}, ErrNotFound
		}
		return models.EdirRequest{}, err
	}
	return req, nil
}

// PendingSlugExists reports whether another pending request already asks
// for slug.
func (s *Store) PendingSlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"slug": normalize.Slug(slug), "status": status.Pending}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByStatus returns requests with the given status, oldest first.
func (s *Store) ListByStatus(ctx context.Context, st string) ([]models.EdirRequest, error) {
	cur, err := s.c.Find(ctx, bson.M{"status": st},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.EdirRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountPending returns the number of requests awaiting a decision.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": status.Pending})
}

// MarkApproved records that the request created edirID.
// Only pending requests can be decided; anything else is ErrNotFound.
func (s *Store) MarkApproved(ctx context.Context, id, edirID primitive.ObjectID) error {
	return s.decide(ctx, id, bson.M{
		"status":     status.Approved,
		"edir_id":    edirID,
		"decided_at": time.Now().UTC(),
	})
}

// MarkRejected records the rejection and its reason.
func (s *Store) MarkRejected(ctx context.Context, id primitive.ObjectID, reason string) error {
	return s.decide(ctx, id, bson.M{
		"status":     status.Rejected,
		"reason":     strings.TrimSpace(reason),
		"decided_at": time.Now().UTC(),
	})
}

func (s *Store) decide(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": status.Pending}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
