package edirstore_test

import (
	"errors"
	"testing"

	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/edirhub/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := edirstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e, err := store.Create(ctx, models.Edir{Name: "  Kebele   07 Edir ", Slug: " Kebele-07 "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if e.Name != "Kebele 07 Edir" {
		t.Errorf("expected normalized name, got %q", e.Name)
	}
	if e.Slug != "kebele-07" {
		t.Errorf("expected normalized slug, got %q", e.Slug)
	}
	if e.Status != "active" {
		t.Errorf("expected default status active, got %q", e.Status)
	}
	if e.NameCI == "" || e.CreatedAt.IsZero() {
		t.Error("expected NameCI and CreatedAt to be set")
	}

	if _, err := store.Create(ctx, models.Edir{Name: "Other", Slug: "kebele-07"}); !errors.Is(err, edirstore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
	if _, err := store.Create(ctx, models.Edir{Name: "Bad", Slug: "bad", Status: "closed"}); !errors.Is(err, edirstore.ErrBadStatus) {
		t.Errorf("expected ErrBadStatus, got %v", err)
	}
}

func TestStore_GetBySlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := edirstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	want := fx.CreateEdir(ctx, "Bole Edir", "bole")

	got, err := store.GetBySlug(ctx, "BOLE")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.ID != want.ID {
		t.Error("GetBySlug returned the wrong Edir")
	}
	if _, err := store.GetBySlug(ctx, "missing"); !errors.Is(err, edirstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	exists, err := store.SlugExists(ctx, "bole")
	if err != nil || !exists {
		t.Errorf("SlugExists(bole) = %v, %v", exists, err)
	}
	exists, err = store.SlugExists(ctx, "piassa")
	if err != nil || exists {
		t.Errorf("SlugExists(piassa) = %v, %v", exists, err)
	}
}

func TestStore_SetStatusAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := edirstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateEdir(ctx, "Bole Edir", "bole")
	fx.CreateEdir(ctx, "Arada Edir", "arada")

	if err := store.SetStatus(ctx, a.ID, "suspended"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := store.SetStatus(ctx, a.ID, "deleted"); !errors.Is(err, edirstore.ErrBadStatus) {
		t.Errorf("expected ErrBadStatus, got %v", err)
	}
	if err := store.SetStatus(ctx, testutil.NewObjectID(), "active"); !errors.Is(err, edirstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 1 || active[0].Slug != "arada" {
		t.Errorf("expected only arada active, got %+v", active)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 || all[0].Slug != "arada" || all[1].Slug != "bole" {
		t.Errorf("expected arada, bole sorted by name, got %+v", all)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := edirstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := fx.CreateEdir(ctx, "Bole Edir", "bole")
	if err := store.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetBySlug(ctx, "bole"); !errors.Is(err, edirstore.ErrNotFound) {
		t.Errorf("expected the Edir to be gone, got %v", err)
	}
	if err := store.Delete(ctx, e.ID); !errors.Is(err, edirstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second Delete, got %v", err)
	}
	if _, err := store.Create(ctx, models.Edir{Name: "Bole Edir", Slug: "bole"}); err != nil {
		t.Errorf("slug should be free after Delete: %v", err)
	}
}
