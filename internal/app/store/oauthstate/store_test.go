package oauthstate_test

import (
	"testing"
	"time"

	"github.com/dalemusser/edirhub/internal/app/store/oauthstate"
	"github.com/dalemusser/edirhub/internal/testutil"
)

func TestNewState_Unique(t *testing.T) {
	a, err := oauthstate.NewState()
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	b, _ := oauthstate.NewState()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty states, got %q and %q", a, b)
	}
}

func TestStore_IssueAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	state, err := store.Issue(ctx, "/bole/member/dashboard", "bole", 10*time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	e, ok, err := store.Consume(ctx, state)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !ok {
		t.Fatal("expected state to be valid")
	}
	if e.ReturnURL != "/bole/member/dashboard" || e.EdirSlug != "bole" {
		t.Errorf("unexpected entry %+v", e)
	}

	if _, ok, _ := store.Consume(ctx, state); ok {
		t.Error("state must be single use")
	}
	if _, ok, _ := store.Consume(ctx, "never-issued"); ok {
		t.Error("unknown state must be rejected")
	}
}

func TestStore_ExpiredStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	past := time.Now().UTC().Add(-time.Minute)
	for _, s := range []string{"old-1", "old-2"} {
		if err := store.Save(ctx, oauthstate.Entry{State: s, ExpiresAt: past}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	fresh, err := store.Issue(ctx, "", "", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, ok, _ := store.Consume(ctx, "old-1"); ok {
		t.Error("expired state must be rejected")
	}

	n, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if _, ok, _ := store.Consume(ctx, fresh); !ok {
		t.Error("unexpired state should survive cleanup")
	}
}

func TestStore_DuplicateState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := oauthstate.Entry{State: "same", ExpiresAt: time.Now().Add(time.Minute)}
	if err := store.Save(ctx, e); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(ctx, e); err == nil {
		t.Error("expected duplicate state to be rejected")
	}
}
