package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "x", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/pending-approval", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?return=") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireSignedIn_TenantPath_RedirectsToEdirLogin(t *testing.T) {
	sm := newTestSessionManager(t)

	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/{edirslug}/member/dashboard", okHandler().ServeHTTP)

	req := httptest.NewRequest("GET", "/addis/member/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	want := "/addis/login?return=%2Faddis%2Fmember%2Fdashboard"
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("expected redirect to %q, got %q", want, loc)
	}
}

func TestRequireSignedIn_NoUser_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_NoUser_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/pending-approval", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if hx := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(hx, "/login") {
		t.Errorf("expected HX-Redirect to /login, got %q", hx)
	}
}

func TestRequireRole_WrongRole_RedirectsToForbidden(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("head")(okHandler())

	req := httptest.NewRequest("GET", "/addis/head/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	req = withTestUser(req, "member")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/forbidden" {
		t.Errorf("expected redirect to /forbidden, got %q", loc)
	}
}

func TestRequireRole_WrongRole_API_Returns403(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("head")(okHandler())

	req := httptest.NewRequest("GET", "/addis/head/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	req = withTestUser(req, "member")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("treasurer", "head")(okHandler())

	tests := []struct {
		role     string
		expected int
	}{
		{"treasurer", http.StatusOK},
		{"head", http.StatusOK},
		{"HEAD", http.StatusOK},
		{"member", http.StatusSeeOther},
		{"propertymanager", http.StatusSeeOther},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/addis/treasurer/dashboard", nil)
			req.Header.Set("Accept", "text/html")
			req = withTestUser(req, tc.role)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Errorf("role %q: expected status %d, got %d", tc.role, tc.expected, rec.Code)
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if u, ok := auth.CurrentUser(req); ok || u != nil {
		t.Fatal("expected no user in a bare request")
	}

	req = withTestUser(req, "superadmin")
	u, ok := auth.CurrentUser(req)
	if !ok || u == nil {
		t.Fatal("expected user in context")
	}
	if !u.IsSuperAdmin() {
		t.Error("expected IsSuperAdmin to be true")
	}
}

type stubFetcher struct {
	users map[string]*auth.SessionUser
}

func (f stubFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser {
	return f.users[id]
}

func TestLoginThenLoadSessionUser(t *testing.T) {
	sm := newTestSessionManager(t)

	// Sign in and capture the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/addis/login", nil)
	u := &auth.SessionUser{ID: "507f1f77bcf86cd799439011", Name: "Abebe", Email: "abebe@example.com", Role: "treasurer", EdirSlug: "addis"}
	if err := sm.Login(rec, req, u); err != nil {
		t.Fatalf("Login: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	var got *auth.SessionUser
	capture := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	next := httptest.NewRequest("GET", "/addis/treasurer/dashboard", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	capture.ServeHTTP(httptest.NewRecorder(), next)
	if got == nil || got.Role != "treasurer" || got.EdirSlug != "addis" {
		t.Fatalf("expected treasurer from session, got %+v", got)
	}

	// With a fetcher, the database copy wins and a missing user is signed out.
	sm.SetUserFetcher(stubFetcher{users: map[string]*auth.SessionUser{
		u.ID: {ID: u.ID, Name: "Abebe", Role: "head"},
	}})
	got = nil
	capture.ServeHTTP(httptest.NewRecorder(), next)
	if got == nil || got.Role != "head" {
		t.Fatalf("expected fetched role head, got %+v", got)
	}

	sm.SetUserFetcher(stubFetcher{})
	got = nil
	capture.ServeHTTP(httptest.NewRecorder(), next)
	if got != nil {
		t.Fatalf("expected no user once the fetcher drops it, got %+v", got)
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	if err := sm.Logout(rec, httptest.NewRequest("POST", "/logout", nil)); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.Name() {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("expected negative MaxAge, got %d", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be written")
	}
}

func withTestUser(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    "507f1f77bcf86cd799439011",
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	})
}
