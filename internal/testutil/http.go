package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/domain/models"
)

// SessionUserFor builds the session user LoadSessionUser would inject for u.
func SessionUserFor(u models.User, edirSlug string) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:       u.ID.Hex(),
		Name:     u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
		EdirSlug: edirSlug,
	}
	if u.EdirID != nil {
		su.EdirID = u.EdirID.Hex()
	}
	return su
}

// WithUser returns r signed in as u.
func WithUser(r *http.Request, u models.User, edirSlug string) *http.Request {
	return auth.WithTestUser(r, SessionUserFor(u, edirSlug))
}

// NewFormRequest builds a POST request with an url-encoded body.
func NewFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// AssertRedirect checks for a redirect to the expected location.
func AssertRedirect(t interface {
	Helper()
	Errorf(string, ...any)
}, rec *httptest.ResponseRecorder, expected string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther && rec.Code != http.StatusFound {
		t.Errorf("expected redirect status, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != expected {
		t.Errorf("redirect location: got %q, want %q", loc, expected)
	}
}

// Serve calls h, swallowing the panic a page render raises when the
// template engine has not been booted. Redirects, status codes and database
// effects are still observable on w.
func Serve(h http.HandlerFunc, w http.ResponseWriter, r *http.Request) {
	defer func() { _ = recover() }()
	h(w, r)
}
