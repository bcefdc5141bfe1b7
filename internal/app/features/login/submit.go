// internal/app/features/login/submit.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/authutil"
	"github.com/dalemusser/edirhub/internal/app/system/metrics"
	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/tenant"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const badCredentials = "Incorrect email or password."

// ErrAmbiguous means an email without an Edir matches accounts in several.
var ErrAmbiguous = errors.New("email belongs to several edirs")

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login, /{edirslug}/login                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", r.URL.Path)
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if email == "" || password == "" {
		h.renderForm(w, r, "Please enter your email and password.", email, ret)
		return
	}

	edirID := tenant.IDFromRequest(r)
	var edirIDPtr = &edirID
	if edirID.IsZero() {
		edirIDPtr = nil
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(r.Context(), r, edirIDPtr, email)
			h.Metrics.ObserveLogin(metrics.LoginLimited)
			w.WriteHeader(http.StatusTooManyRequests)
			h.renderForm(w, r, reason, email, ret)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.FindAccount(ctx, edirID, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, edirIDPtr, email)
		h.Metrics.ObserveLogin(metrics.LoginFailed)
		h.renderForm(w, r, badCredentials, email, ret)
		return
	case errors.Is(err, ErrAmbiguous):
		h.Metrics.ObserveLogin(metrics.LoginNoTenant)
		h.renderForm(w, r, "This email is registered with more than one Edir. Please sign in from your Edir's own sign-in page.", email, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "login lookup failed", err, "A database error occurred.", r.URL.Path)
		return
	}

	if !authutil.CheckPassword(password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.EdirID, email)
		h.Metrics.ObserveLogin(metrics.LoginFailed)
		h.renderForm(w, r, badCredentials, email, ret)
		return
	}

	switch u.Status {
	case status.Active:
	case status.Pending:
		h.AuditLog.LoginFailedInactive(ctx, r, u.ID, u.EdirID, email, u.Status)
		h.Metrics.ObserveLogin(metrics.LoginPending)
		http.Redirect(w, r, "/pending-approval", http.StatusSeeOther)
		return
	default:
		h.AuditLog.LoginFailedInactive(ctx, r, u.ID, u.EdirID, email, u.Status)
		h.Metrics.ObserveLogin(metrics.LoginFailed)
		h.renderForm(w, r, "This account is not active. Please contact the head of your Edir.", email, ret)
		return
	}

	h.Log.Debug("password accepted", zap.String("user_id", u.ID.Hex()))
	h.CompleteSignIn(w, r, u, ProviderPassword, ret)
}

// FindAccount resolves the account an email signs in to. With an Edir it
// searches that Edir's users and then the superadmin; with NilObjectID it
// searches globally.
func (h *Handler) FindAccount(ctx context.Context, edirID primitive.ObjectID, email string) (models.User, error) {
	if edirID.IsZero() {
		return h.lookupGlobal(ctx, email)
	}
	return h.lookupInEdir(ctx, edirID, email)
}

func (h *Handler) lookupInEdir(ctx context.Context, edirID primitive.ObjectID, email string) (models.User, error) {
	u, err := h.Users.GetByEdirEmail(ctx, edirID, email)
	if errors.Is(err, userstore.ErrNotFound) {
		return h.Users.GetSuperAdminByEmail(ctx, email)
	}
	return u, err
}

// lookupGlobal resolves an email without a tenant: the superadmin, the only
// account with that email, or the only active one. Anything else is
// ambiguous.
func (h *Handler) lookupGlobal(ctx context.Context, email string) (models.User, error) {
	u, err := h.Users.GetSuperAdminByEmail(ctx, email)
	if err == nil || !errors.Is(err, userstore.ErrNotFound) {
		return u, err
	}

	all, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	switch len(all) {
	case 0:
		return models.User{}, userstore.ErrNotFound
	case 1:
		return all[0], nil
	}

	var active []models.User
	for _, c := range all {
		if c.Status == status.Active {
			active = append(active, c)
		}
	}
	if len(active) == 1 {
		return active[0], nil
	}
	return models.User{}, ErrAmbiguous
}
