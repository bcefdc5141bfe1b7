package edirrequest_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/edirhub/internal/app/features/edirrequest"
	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/app/system/authutil"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/edirhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*edirrequest.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return edirrequest.NewHandler(db, uierrors.NewErrorLogger(logger), nil, nil, logger), testutil.NewFixtures(t, db)
}

func validForm() url.Values {
	return url.Values{
		"edir_name":        {"  Kebele 07   Edir "},
		"slug":             {"Kebele 07"},
		"description":      {`<p>Burial support</p><script>alert(1)</script>`},
		"full_name":        {"Hana Girma"},
		"email":            {"Hana@Example.com"},
		"phone":            {"+251 911 111 111"},
		"password":         {"kebele-2024"},
		"confirm_password": {"kebele-2024"},
	}
}

func TestHandleSubmit_CreatesPendingRequest(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, testutil.NewFormRequest("/edir/request", validForm()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/edir/request?ref=EDR-") {
		t.Fatalf("unexpected redirect %q", loc)
	}

	var req models.EdirRequest
	if err := fx.DB().Collection("edir_requests").FindOne(ctx, bson.M{"slug": "kebele-07"}).Decode(&req); err != nil {
		t.Fatalf("request not stored: %v", err)
	}
	if req.Status != "pending" || req.EdirName != "Kebele 07 Edir" || req.RequesterEmail != "hana@example.com" {
		t.Errorf("unexpected request: %+v", req)
	}
	if strings.Contains(req.Description, "script") || !strings.Contains(req.Description, "Burial support") {
		t.Errorf("description not sanitized: %q", req.Description)
	}
	if !authutil.CheckPassword("kebele-2024", req.PasswordHash) {
		t.Error("stored password hash does not match")
	}
	if !strings.HasSuffix(loc, url.QueryEscape(req.Reference)) {
		t.Errorf("redirect %q does not carry reference %q", loc, req.Reference)
	}
}

func TestHandleSubmit_Rejections(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateEdir(ctx, "Bole Edir", "bole")
	fx.CreateEdirRequest(ctx, "Arada Edir", "arada", "a@example.com")

	tests := map[string]func(url.Values){
		"missing edir name":  func(f url.Values) { f.Set("edir_name", " ") },
		"reserved slug":      func(f url.Values) { f.Set("slug", "about") },
		"short slug":         func(f url.Values) { f.Set("slug", "ab") },
		"slug of an edir":    func(f url.Values) { f.Set("slug", "bole") },
		"slug asked for":     func(f url.Values) { f.Set("slug", "Arada") },
		"bad email":          func(f url.Values) { f.Set("email", "nope") },
		"short password":     func(f url.Values) { f.Set("password", "short"); f.Set("confirm_password", "short") },
		"password mismatch":  func(f url.Values) { f.Set("confirm_password", "different-2024") },
		"missing own name":   func(f url.Values) { f.Set("full_name", "") },
		"description length": func(f url.Values) { f.Set("description", strings.Repeat("x", 2001)) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			form := validForm()
			mutate(form)
			rec := httptest.NewRecorder()
			testutil.Serve(h.HandleSubmit, rec, testutil.NewFormRequest("/edir/request", form))
			if rec.Code == http.StatusSeeOther {
				t.Errorf("expected the form to be shown again, got redirect to %q", rec.Header().Get("Location"))
			}
		})
	}

	n, _ := fx.DB().Collection("edir_requests").CountDocuments(ctx, bson.M{})
	if n != 1 {
		t.Errorf("requests stored: got %d, want only the fixture", n)
	}
}

func TestServeRequest_DoesNotFail(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := fx.CreateEdirRequest(ctx, "Arada Edir", "arada", "a@example.com")

	for _, target := range []string{"/edir/request", "/edir/request?ref=" + req.Reference, "/edir/request?ref=EDR-MISSING"} {
		rec := httptest.NewRecorder()
		testutil.Serve(h.ServeRequest, rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code == http.StatusInternalServerError {
			t.Errorf("%s reported a server error", target)
		}
	}
}

func TestHandlers_BindRequestRows(t *testing.T) {
	h, _ := newTestHandler(t)
	hs := edirrequest.Handlers(h)
	for _, rt := range routetable.Default {
		if rt.View == routetable.ViewEdirRequest && hs[rt.Key()] == nil {
			t.Errorf("no handler for %s", rt.String())
		}
	}
}
