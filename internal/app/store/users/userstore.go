package userstore

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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when the email is already registered in the Edir.
	ErrDuplicateEmail = errors.New("a user with this email already exists in this Edir")
	ErrNotFound       = errors.New("user not found")
	ErrBadRole        = errors.New(`role must be "head"|"treasurer"|"propertymanager"|"eventcoordinator"|"member"`)
	ErrBadStatus      = errors.New(`status must be "pending"|"active"|"disabled"|"rejected"`)
	ErrEdirNeeded     = errors.New("edir users must have edir_id")
)

func decodeOne(res *mongo.SingleResult) (models.User, error) {
	var u models.User
	if err := res.Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return decodeOne(s.c.FindOne(ctx, bson.M{"_id": id}))
}

// GetInEdir loads a user by ID, only if they belong to the Edir.
func (s *Store) GetInEdir(ctx context.Context, edirID, id primitive.ObjectID) (models.User, error) {
	return decodeOne(s.c.FindOne(ctx, bson.M{"_id": id, "edir_id": edirID}))
}

// GetByEdirEmail looks up an Edir's user by email.
func (s *Store) GetByEdirEmail(ctx context.Context, edirID primitive.ObjectID, email string) (models.User, error) {
	return decodeOne(s.c.FindOne(ctx, bson.M{"edir_id": edirID, "email": normalize.Email(email)}))
}

// GetSuperAdminByEmail looks up the cross-tenant administrator.
func (s *Store) GetSuperAdminByEmail(ctx context.Context, email string) (models.User, error) {
	return decodeOne(s.c.FindOne(ctx, bson.M{"role": models.RoleSuperAdmin, "email": normalize.Email(email)}))
}

// FindByEmail returns every account using email, across all Edirs.
func (s *Store) FindByEmail(ctx context.Context, email string) ([]models.User, error) {
	return s.find(ctx, bson.M{"email": normalize.Email(email)}, options.Find().SetLimit(50))
}

// Create inserts a new Edir user after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Phone = normalize.Phone(u.Phone)
	u.Role = normalize.Role(u.Role)
	if u.Status == "" {
		u.Status = status.Pending
	}

	if !models.IsEdirRole(u.Role) {
		return models.User{}, ErrBadRole
	}
	if !status.IsValidUser(u.Status) {
		return models.User{}, ErrBadStatus
	}
	if u.EdirID == nil || u.EdirID.IsZero() {
		return models.User{}, ErrEdirNeeded
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Status == status.Active && u.ApprovedAt == nil {
		u.ApprovedAt = &now
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Delete removes a user by ID.
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

// EnsureSuperAdmin creates or refreshes the superadmin account for email.
// An existing account keeps its password unless passwordHash is non-empty.
func (s *Store) EnsureSuperAdmin(ctx context.Context, email, fullName, passwordHash string) (models.User, error) {
	now := time.Now().UTC()
	email = normalize.Email(email)
	fullName = normalize.Name(fullName)

	set := bson.M{
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"status":       status.Active,
		"updated_at":   now,
	}
	if passwordHash != "" {
		set["password_hash"] = passwordHash
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"role": models.RoleSuperAdmin, "email": email},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now, "approved_at": now},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return models.User{}, err
	}
	return s.GetSuperAdminByEmail(ctx, email)
}

// ListByEdir returns the Edir's users with the given status ("" for all),
// sorted by name.
func (s *Store) ListByEdir(ctx context.Context, edirID primitive.ObjectID, st string) ([]models.User, error) {
	filter := bson.M{"edir_id": edirID}
	if st != "" {
		filter["status"] = st
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

// CountByEdir counts the Edir's users with the given status ("" for all).
func (s *Store) CountByEdir(ctx context.Context, edirID primitive.ObjectID, st string) (int64, error) {
	filter := bson.M{"edir_id": edirID}
	if st != "" {
		filter["status"] = st
	}
	return s.c.CountDocuments(ctx, filter)
}

// Approve activates a pending registration.
func (s *Store) Approve(ctx context.Context, edirID, id primitive.ObjectID) error {
	now := time.Now().UTC()
	return s.transition(ctx, edirID, id, status.Pending, bson.M{
		"status":      status.Active,
		"approved_at": now,
		"updated_at":  now,
	})
}

// Reject declines a pending registration.
func (s *Store) Reject(ctx context.Context, edirID, id primitive.ObjectID) error {
	return s.transition(ctx, edirID, id, status.Pending, bson.M{
		"status":     status.Rejected,
		"updated_at": time.Now().UTC(),
	})
}

// SetRole changes an active user's role within the Edir.
func (s *Store) SetRole(ctx context.Context, edirID, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !models.IsEdirRole(role) {
		return ErrBadRole
	}
	return s.transition(ctx, edirID, id, status.Active, bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	})
}

func (s *Store) transition(ctx context.Context, edirID, id primitive.ObjectID, from string, set bson.M) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "edir_id": edirID, "status": from},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpirePending rejects registrations still pending since before cutoff and
// returns how many were changed.
func (s *Store) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": status.Pending, "created_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"status": status.Rejected, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
