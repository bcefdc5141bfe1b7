package ediradmin_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dalemusser/edirhub/internal/app/features/ediradmin"
	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/app/system/authutil"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/edirhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*ediradmin.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return ediradmin.NewHandler(db, uierrors.NewErrorLogger(logger), nil, logger), testutil.NewFixtures(t, db)
}

func post(h http.HandlerFunc, admin models.User, param, id string, form url.Values) *httptest.ResponseRecorder {
	req := testutil.NewFormRequest("/edir/admin/x", form)
	req = testutil.WithChiURLParam(testutil.WithUser(req, admin, ""), param, id)
	rec := httptest.NewRecorder()
	testutil.Serve(h, rec, req)
	return rec
}

func TestHandleApproveRequest(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "Admin", "admin@example.com")
	req := fx.CreateEdirRequest(ctx, "Bole Edir", "bole", "hana@example.com")

	rec := post(h.HandleApproveRequest, admin, "requestID", req.ID.Hex(), url.Values{})
	testutil.AssertRedirect(t, rec, "/edir/admin?notice=approved")

	e, err := h.Edirs.GetBySlug(ctx, "bole")
	if err != nil {
		t.Fatalf("expected the Edir to exist: %v", err)
	}
	if e.Status != status.Active || e.Name != "Bole Edir" {
		t.Errorf("unexpected Edir: %+v", e)
	}

	head, err := h.Users.GetByEdirEmail(ctx, e.ID, "hana@example.com")
	if err != nil {
		t.Fatalf("expected the head account to exist: %v", err)
	}
	if head.Role != models.RoleHead || head.Status != status.Active {
		t.Errorf("head: role %q status %q", head.Role, head.Status)
	}
	if !authutil.CheckPassword(testutil.TestPassword, head.PasswordHash) {
		t.Error("head should sign in with the password chosen in the request")
	}

	got, _ := h.Requests.GetByID(ctx, req.ID)
	if got.Status != status.Approved || got.EdirID == nil || *got.EdirID != e.ID || got.DecidedAt == nil {
		t.Errorf("request not marked approved: %+v", got)
	}
}

func TestHandleApproveRequest_TwiceIsNotFound(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "Admin", "admin@example.com")
	req := fx.CreateEdirRequest(ctx, "Bole Edir", "bole", "hana@example.com")

	post(h.HandleApproveRequest, admin, "requestID", req.ID.Hex(), url.Values{})
	rec := post(h.HandleApproveRequest, admin, "requestID", req.ID.Hex(), url.Values{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestHandleApproveRequest_SlugProblems(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "Admin", "admin@example.com")
	fx.CreateEdir(ctx, "Bole Edir", "bole")

	for name, slug := range map[string]string{
		"taken":    "bole",
		"reserved": "login",
		"format":   "no",
	} {
		t.Run(name, func(t *testing.T) {
			req := fx.CreateEdirRequest(ctx, "Another "+name, slug, name+"@example.com")
			rec := post(h.HandleApproveRequest, admin, "requestID", req.ID.Hex(), url.Values{})
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rec.Code)
			}
			got, _ := h.Requests.GetByID(ctx, req.ID)
			if got.Status != status.Pending {
				t.Errorf("request status changed to %q", got.Status)
			}
		})
	}

	n, _ := h.Edirs.Count(ctx, bson.M{})
	if n != 1 {
		t.Errorf("edirs: got %d, want 1", n)
	}
}

func TestHandleRejectRequest(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "Admin", "admin@example.com")
	req := fx.CreateEdirRequest(ctx, "Bole Edir", "bole", "hana@example.com")

	if rec := post(h.HandleRejectRequest, admin, "requestID", req.ID.Hex(), url.Values{"reason": {"  "}}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank reason: got %d, want 400", rec.Code)
	}

	rec := post(h.HandleRejectRequest, admin, "requestID", req.ID.Hex(), url.Values{"reason": {"Please use the <b>full</b> name"}})
	testutil.AssertRedirect(t, rec, "/edir/admin?notice=rejected")

	got, _ := h.Requests.GetByID(ctx, req.ID)
	if got.Status != status.Rejected {
		t.Errorf("status: got %q, want rejected", got.Status)
	}
	if got.Reason != "Please use the full name" {
		t.Errorf("reason: got %q", got.Reason)
	}

	if rec := post(h.HandleApproveRequest, admin, "requestID", req.ID.Hex(), url.Values{}); rec.Code != http.StatusNotFound {
		t.Errorf("approving a rejected request: got %d, want 404", rec.Code)
	}
}

func TestHandleSetEdirStatus(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "Admin", "admin@example.com")
	e := fx.CreateEdir(ctx, "Bole Edir", "bole")

	rec := post(h.HandleSetEdirStatus, admin, "edirID", e.ID.Hex(), url.Values{"status": {"Suspended"}})
	testutil.AssertRedirect(t, rec, "/edir/admin?notice=suspended")
	got, _ := h.Edirs.GetByID(ctx, e.ID)
	if got.Status != status.Suspended {
		t.Errorf("status: got %q, want suspended", got.Status)
	}

	rec = post(h.HandleSetEdirStatus, admin, "edirID", e.ID.Hex(), url.Values{"status": {"active"}})
	testutil.AssertRedirect(t, rec, "/edir/admin?notice=active")

	if rec := post(h.HandleSetEdirStatus, admin, "edirID", e.ID.Hex(), url.Values{"status": {"deleted"}}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: got %d, want 400", rec.Code)
	}
	if rec := post(h.HandleSetEdirStatus, admin, "edirID", testutil.NewObjectID().Hex(), url.Values{"status": {"active"}}); rec.Code != http.StatusNotFound {
		t.Errorf("unknown Edir: got %d, want 404", rec.Code)
	}
}

func TestServeAdmin_DoesNotFail(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "Admin", "admin@example.com")
	fx.CreateEdir(ctx, "Bole Edir", "bole")
	fx.CreateEdirRequest(ctx, "Arada Edir", "arada", "a@example.com")
	fx.CreateEdirRequest(ctx, "Taken Edir", "bole", "b@example.com")

	rec := httptest.NewRecorder()
	req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/edir/admin", nil), admin, "")
	testutil.Serve(h.ServeAdmin, rec, req)
	if rec.Code == http.StatusInternalServerError {
		t.Error("admin page reported a server error")
	}
}

func TestHandlers_BindAdminRows(t *testing.T) {
	h, _ := newTestHandler(t)
	hs := ediradmin.Handlers(h)
	for _, rt := range routetable.Default {
		if rt.View == routetable.ViewEdirAdmin && hs[rt.Key()] == nil {
			t.Errorf("no handler for %s", rt.String())
		}
	}
}
