package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password of every user the fixtures create.
const TestPassword = "password123"

var testHash string

func passwordHash(t *testing.T) string {
	t.Helper()
	if testHash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash test password: %v", err)
		}
		testHash = string(h)
	}
	return testHash
}

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	return WithChiURLParams(r, map[string]string{key: value})
}

// WithChiURLParams adds several chi URL parameters at once.
func WithChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc interface{}) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateEdir creates an active Edir.
func (f *Fixtures) CreateEdir(ctx context.Context, name, slug string) models.Edir {
	f.t.Helper()
	return f.CreateEdirWithStatus(ctx, name, slug, "active")
}

// CreateEdirWithStatus creates an Edir with the given status.
func (f *Fixtures) CreateEdirWithStatus(ctx context.Context, name, slug, status string) models.Edir {
	f.t.Helper()
	now := time.Now().UTC()
	e := models.Edir{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Slug:        slug,
		Description: "Mutual aid for " + name,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "edirs", e)
	return e
}

// CreateUser creates a user in the Edir with the given role and status.
// A nil edirID creates a cross-tenant user (the superadmin).
func (f *Fixtures) CreateUser(ctx context.Context, edirID *primitive.ObjectID, fullName, email, role, status string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		EdirID:       edirID,
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash(f.t),
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == "active" {
		u.ApprovedAt = &now
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateMember creates an active member of the Edir.
func (f *Fixtures) CreateMember(ctx context.Context, edirID primitive.ObjectID, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, &edirID, fullName, email, models.RoleMember, "active")
}

// CreateOfficer creates an active user with an officer role in the Edir.
func (f *Fixtures) CreateOfficer(ctx context.Context, edirID primitive.ObjectID, fullName, email, role string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, &edirID, fullName, email, role, "active")
}

// CreatePendingMember creates a registration awaiting approval.
func (f *Fixtures) CreatePendingMember(ctx context.Context, edirID primitive.ObjectID, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, &edirID, fullName, email, models.RoleMember, "pending")
}

// CreateSuperAdmin creates the cross-tenant administrator.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, nil, fullName, email, models.RoleSuperAdmin, "active")
}

// CreateResource creates a shared resource in the Edir.
func (f *Fixtures) CreateResource(ctx context.Context, edirID primitive.ObjectID, name string, qty int) models.Resource {
	f.t.Helper()
	now := time.Now().UTC()
	r := models.Resource{
		ID:        primitive.NewObjectID(),
		EdirID:    edirID,
		Name:      name,
		NameCI:    text.Fold(name),
		Quantity:  qty,
		Status:    models.ResourceAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "resources", r)
	return r
}

// CreateEvent creates an event in the Edir starting at startsAt.
func (f *Fixtures) CreateEvent(ctx context.Context, edirID primitive.ObjectID, title string, startsAt time.Time) models.Event {
	f.t.Helper()
	e := models.Event{
		ID:        primitive.NewObjectID(),
		EdirID:    edirID,
		Title:     title,
		TitleCI:   text.Fold(title),
		Location:  "Community hall",
		StartsAt:  startsAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "events", e)
	return e
}

// CreateContribution records a payment by member.
func (f *Fixtures) CreateContribution(ctx context.Context, edirID primitive.ObjectID, member models.User, amountCents int64) models.Contribution {
	f.t.Helper()
	c := models.Contribution{
		ID:          primitive.NewObjectID(),
		EdirID:      edirID,
		MemberID:    member.ID,
		MemberName:  member.FullName,
		AmountCents: amountCents,
		PaidAt:      time.Now().UTC(),
	}
	f.insert(ctx, "contributions", c)
	return c
}

// CreateEdirRequest creates a pending request to found an Edir.
func (f *Fixtures) CreateEdirRequest(ctx context.Context, edirName, slug, requesterEmail string) models.EdirRequest {
	f.t.Helper()
	req := models.EdirRequest{
		ID:             primitive.NewObjectID(),
		Reference:      "REF-" + primitive.NewObjectID().Hex()[16:],
		EdirName:       edirName,
		Slug:           slug,
		Description:    "Please approve " + edirName,
		RequesterName:  "Requester " + edirName,
		RequesterEmail: strings.ToLower(requesterEmail),
		PasswordHash:   passwordHash(f.t),
		Status:         "pending",
		CreatedAt:      time.Now().UTC(),
	}
	f.insert(ctx, "edir_requests", req)
	return req
}
