package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/validators"
	"github.com/dalemusser/edirhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{
		"edirs", "users", "edir_requests", "contributions", "events",
		"resources", "login_records", "oauth_states", "audit_events",
	} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestValidators_RejectBadDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	edirID := primitive.NewObjectID()
	tests := []struct {
		name string
		coll string
		doc  bson.M
	}{
		{"edir bad slug", "edirs", bson.M{"name": "Kebele", "name_ci": "kebele", "slug": "Bad Slug", "status": "active"}},
		{"edir bad status", "edirs", bson.M{"name": "Kebele", "name_ci": "kebele", "slug": "kebele", "status": "closed"}},
		{"user missing email", "users", bson.M{"full_name": "Abebe", "role": "member", "status": "active"}},
		{"user bad role", "users", bson.M{"full_name": "Abebe", "email": "a@example.com", "role": "chair", "status": "active"}},
		{"user bad status", "users", bson.M{"full_name": "Abebe", "email": "a@example.com", "role": "member", "status": "gone"}},
		{"request bad status", "edir_requests", bson.M{"reference": "r", "edir_name": "n", "slug": "s", "requester_email": "e", "status": "maybe"}},
		{"contribution zero", "contributions", bson.M{"edir_id": edirID, "member_id": primitive.NewObjectID(), "amount_cents": int64(0), "paid_at": time.Now()}},
		{"event blank title", "events", bson.M{"edir_id": edirID, "title": "   ", "starts_at": time.Now()}},
		{"resource bad status", "resources", bson.M{"edir_id": edirID, "name": "Tent", "name_ci": "tent", "status": "lost"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := db.Collection(tc.coll).InsertOne(ctx, tc.doc); err == nil {
				t.Errorf("expected validation error inserting into %s", tc.coll)
			}
		})
	}
}

func TestValidators_AcceptFixtureDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	edir := fx.CreateEdir(ctx, "Kebele 07 Edir", "kebele-07")
	member := fx.CreateMember(ctx, edir.ID, "Abebe Kebede", "abebe@example.com")
	fx.CreateSuperAdmin(ctx, "Site Admin", "admin@example.com")
	fx.CreateContribution(ctx, edir.ID, member, 5000)
	fx.CreateEvent(ctx, edir.ID, "Monthly meeting", time.Now().Add(48*time.Hour))
	fx.CreateResource(ctx, edir.ID, "Tent", 2)
	fx.CreateEdirRequest(ctx, "Piassa Edir", "piassa", "head@example.com")
}
