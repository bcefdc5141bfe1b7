package loginstore_test

import (
	"net/http/httptest"
	"testing"
	"time"

	loginstore "github.com/dalemusser/edirhub/internal/app/store/logins"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/edirhub/internal/testutil"
)

func TestStore_CreateFrom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	edir := fx.CreateEdir(ctx, "Bole Edir", "bole")
	u := fx.CreateMember(ctx, edir.ID, "Almaz", "almaz@example.com")

	req := httptest.NewRequest("POST", "/bole/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if err := store.CreateFrom(ctx, req, u, "password"); err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}

	last, err := store.LastForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("LastForUser failed: %v", err)
	}
	if last == nil {
		t.Fatal("expected a login record")
	}
	if last.IP != "203.0.113.9" {
		t.Errorf("expected client IP from X-Forwarded-For, got %q", last.IP)
	}
	if last.Provider != "password" || last.UserName != "Almaz" {
		t.Errorf("unexpected record %+v", last)
	}
	if last.EdirID == nil || *last.EdirID != edir.ID {
		t.Error("expected record to carry the Edir")
	}
}

func TestStore_RecentByEdir(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	edirID := testutil.NewObjectID()
	otherID := testutil.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		rec := models.LoginRecord{UserID: testutil.NewObjectID(), EdirID: &edirID, CreatedAt: base.Add(time.Duration(i) * time.Minute), Provider: "password"}
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := store.Create(ctx, models.LoginRecord{UserID: testutil.NewObjectID(), EdirID: &otherID}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	recs, err := store.RecentByEdir(ctx, edirID, 2)
	if err != nil {
		t.Fatalf("RecentByEdir failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if !recs[0].CreatedAt.After(recs[1].CreatedAt) {
		t.Error("expected newest first")
	}

	none, err := store.LastForUser(ctx, testutil.NewObjectID())
	if err != nil || none != nil {
		t.Errorf("expected nil for unknown user, got %+v, %v", none, err)
	}
}
