package home_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/features/home"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*home.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return home.NewHandler(db, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func TestServeRoot_DoesNotFail(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateEdir(ctx, "Bole Edir", "bole")
	fx.CreateEdirWithStatus(ctx, "Arada Edir", "arada", "suspended")

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeRoot, rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code == http.StatusInternalServerError {
		t.Error("landing page should not report a server error")
	}
}

func TestHandlers_BindHome(t *testing.T) {
	h, _ := newTestHandler(t)
	if home.Handlers(h)[routetable.Key{View: routetable.ViewHome}] == nil {
		t.Error("expected the home view to be bound")
	}
}
