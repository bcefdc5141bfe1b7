// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/edirhub/internal/app/features/login"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	"github.com/dalemusser/edirhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateTTL           = 10 * time.Minute
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Handler handles Google OAuth sign-in for existing accounts. It never
// creates users; members still register and wait for approval.
type Handler struct {
	Log        *zap.Logger
	Login      *login.Handler
	Edirs      *edirstore.Store
	StateStore *oauthstate.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://edirhub.example/auth/google/callback"

	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler. Sessions are completed by
// the password sign-in handler so both paths record the same history.
func NewHandler(loginHandler *login.Handler, edirs *edirstore.Store, stateStore *oauthstate.Store, clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		Login:        loginHandler,
		Edirs:        edirs,
		StateStore:   stateStore,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google?edir=<slug>&return=<path>                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	slug := normalize.Slug(query.Get(r, "edir"))
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToLogin(w, r, slug, "google_not_configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	returnURL := query.Get(r, "return")
	state, err := h.StateStore.Issue(ctx, returnURL, slug, stateTTL)
	if err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, slug, "internal")
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state)
	h.Log.Debug("initiating Google OAuth flow",
		zap.String("return_url", returnURL),
		zap.String("edir", slug))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		h.redirectToLogin(w, r, "", "google_denied")
		return
	}

	state := query.Get(r, "state")
	if state == "" {
		h.redirectToLogin(w, r, "", "invalid_state")
		return
	}

	short, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	entry, ok, err := h.StateStore.Consume(short, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "", "internal")
		return
	}
	if !ok {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectToLogin(w, r, "", "invalid_state")
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		h.redirectToLogin(w, r, entry.EdirSlug, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectToLogin(w, r, entry.EdirSlug, "token_exchange")
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectToLogin(w, r, entry.EdirSlug, "user_info")
		return
	}
	if !info.EmailVerified || info.Email == "" {
		h.redirectToLogin(w, r, entry.EdirSlug, "email_unverified")
		return
	}

	edirID := primitive.NilObjectID
	if entry.EdirSlug != "" {
		e, err := h.Edirs.GetBySlug(short, entry.EdirSlug)
		if err != nil || e.Status != status.Active {
			h.redirectToLogin(w, r, "", "edir_unavailable")
			return
		}
		edirID = e.ID
	}

	u, err := h.Login.FindAccount(short, edirID, info.Email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.Log.Info("Google OAuth: no account", zap.String("email", info.Email), zap.String("edir", entry.EdirSlug))
		h.redirectToLogin(w, r, entry.EdirSlug, "no_account")
		return
	case errors.Is(err, login.ErrAmbiguous):
		h.redirectToLogin(w, r, "", "choose_edir")
		return
	case err != nil:
		h.Log.Error("failed to look up user", zap.Error(err))
		h.redirectToLogin(w, r, entry.EdirSlug, "internal")
		return
	}

	switch u.Status {
	case status.Active:
	case status.Pending:
		http.Redirect(w, r, "/pending-approval", http.StatusSeeOther)
		return
	default:
		h.redirectToLogin(w, r, entry.EdirSlug, "account_disabled")
		return
	}

	h.Login.CompleteSignIn(w, r, u, login.ProviderGoogle, entry.ReturnURL)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, slug, code string) {
	http.Redirect(w, r, routetable.LoginPath(slug)+"?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// Handlers binds the redirect and callback rows.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewGoogleAuth, h.ServeLogin)
	hs.Action(routetable.ViewGoogleAuth, "callback", h.ServeCallback)
	return hs
}
