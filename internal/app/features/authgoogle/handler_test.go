package authgoogle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/edirhub/internal/app/features/authgoogle"
	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/features/login"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	"github.com/dalemusser/edirhub/internal/app/store/oauthstate"
	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// fakeGoogle serves a token endpoint and a userinfo endpoint for email.
func fakeGoogle(t *testing.T, email string, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "1234567890",
			"email":          email,
			"verified_email": verified,
			"name":           "Test User",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, clientID string) (*authgoogle.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	lh := login.NewHandler(db, sessionMgr, uierrors.NewErrorLogger(logger), nil, nil, nil, true, logger)
	h := authgoogle.NewHandler(lh, edirstore.New(db), oauthstate.New(db), clientID, "test-client-secret", "http://localhost:8080", logger)
	return h, testutil.NewFixtures(t, db)
}

func pointAt(h *authgoogle.Handler, srv *httptest.Server) {
	h.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	h.UserInfoURL = srv.URL + "/userinfo"
}

func TestIsConfigured(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id")
	if !h.IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
	h.ClientID = ""
	if h.IsConfigured() {
		t.Error("IsConfigured() should return false without a client ID")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t, "")

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google?edir=bole", nil))

	testutil.AssertRedirect(t, rec, "/bole/login?error=google_not_configured")
}

func TestServeLogin_RedirectsToProviderWithState(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id")

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google?edir=bole&return=/bole/member/dashboard", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if !strings.HasPrefix(loc.String(), "https://accounts.google.com/") {
		t.Errorf("expected a Google consent URL, got %q", loc.String())
	}
	if loc.Query().Get("state") == "" {
		t.Error("expected a state parameter")
	}
	if loc.Query().Get("client_id") != "test-client-id" {
		t.Errorf("client_id: got %q", loc.Query().Get("client_id"))
	}
}

func TestServeCallback_InvalidState(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id")

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nope&code=abc", nil))

	testutil.AssertRedirect(t, rec, "/login?error=invalid_state")
}

func TestServeCallback_ProviderError(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id")

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil))

	testutil.AssertRedirect(t, rec, "/login?error=google_denied")
}

func TestServeCallback_SignsInMember(t *testing.T) {
	h, fx := newTestHandler(t, "test-client-id")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := fx.CreateEdir(ctx, "Bole Edir", "bole")
	fx.CreateMember(ctx, e.ID, "Abebe", "abebe@example.com")
	pointAt(h, fakeGoogle(t, "Abebe@example.com", true))

	state, err := h.StateStore.Issue(ctx, "", "bole", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+state+"&code=abc", nil))

	testutil.AssertRedirect(t, rec, "/bole/member/dashboard")

	// State tokens are single use.
	rec = httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+state+"&code=abc", nil))
	testutil.AssertRedirect(t, rec, "/login?error=invalid_state")
}

func TestServeCallback_NoAccount(t *testing.T) {
	h, fx := newTestHandler(t, "test-client-id")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateEdir(ctx, "Bole Edir", "bole")
	pointAt(h, fakeGoogle(t, "stranger@example.com", true))

	state, err := h.StateStore.Issue(ctx, "", "bole", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+state+"&code=abc", nil))

	testutil.AssertRedirect(t, rec, "/bole/login?error=no_account")
}

func TestServeCallback_UnverifiedEmail(t *testing.T) {
	h, fx := newTestHandler(t, "test-client-id")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := fx.CreateEdir(ctx, "Bole Edir", "bole")
	fx.CreateMember(ctx, e.ID, "Abebe", "abebe@example.com")
	pointAt(h, fakeGoogle(t, "abebe@example.com", false))

	state, err := h.StateStore.Issue(ctx, "", "bole", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+state+"&code=abc", nil))

	testutil.AssertRedirect(t, rec, "/bole/login?error=email_unverified")
}

func TestServeCallback_PendingMember(t *testing.T) {
	h, fx := newTestHandler(t, "test-client-id")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := fx.CreateEdir(ctx, "Bole Edir", "bole")
	fx.CreatePendingMember(ctx, e.ID, "Abebe", "abebe@example.com")
	pointAt(h, fakeGoogle(t, "abebe@example.com", true))

	state, err := h.StateStore.Issue(ctx, "", "bole", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+state+"&code=abc", nil))

	testutil.AssertRedirect(t, rec, "/pending-approval")
}

func TestHandlers_BindGoogle(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id")
	hs := authgoogle.Handlers(h)
	if hs[routetable.Key{View: routetable.ViewGoogleAuth}] == nil || hs[routetable.Key{View: routetable.ViewGoogleAuth, Action: "callback"}] == nil {
		t.Error("expected both Google rows to be bound")
	}
}
