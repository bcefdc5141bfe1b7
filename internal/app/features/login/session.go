// internal/app/features/login/session.go
package login

import (
	"context"
	"net/http"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/app/system/metrics"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/tenant"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// Sign-in providers recorded in login history and audit events.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// CompleteSignIn starts a session for an active user who has already been
// authenticated and redirects to ret when it is a safe local path, otherwise
// to the user's dashboard.
func (h *Handler) CompleteSignIn(w http.ResponseWriter, r *http.Request, u models.User, provider, ret string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	slug := ""
	if u.EdirID != nil {
		if info := tenant.FromRequest(r); info != nil && info.ID == *u.EdirID {
			slug = info.Slug
		} else {
			e, err := h.Edirs.GetByID(ctx, *u.EdirID)
			if err != nil {
				h.ErrLog.LogServerError(w, r, "load edir for sign-in failed", err, "A database error occurred.", "/")
				return
			}
			if e.Status != status.Active {
				h.Metrics.ObserveLogin(metrics.LoginFailed)
				h.renderForm(w, r, "Your Edir is currently unavailable.", u.Email, ret)
				return
			}
			slug = e.Slug
		}
	}

	su := &auth.SessionUser{
		ID:       u.ID.Hex(),
		Name:     u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
		EdirSlug: slug,
	}
	if u.EdirID != nil {
		su.EdirID = u.EdirID.Hex()
	}
	if err := h.SessionMgr.Login(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", su.ID))
		h.renderForm(w, r, "Unable to create session. Please try again.", u.Email, ret)
		return
	}

	if h.Limiter != nil {
		h.Limiter.Reset(u.Email)
	}
	if err := h.Logins.CreateFrom(ctx, r, u, provider); err != nil {
		h.Log.Warn("record login failed", zap.Error(err), zap.String("user_id", su.ID))
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.EdirID, u.Email, provider)
	h.Metrics.ObserveLogin(metrics.LoginSuccess)

	dest := urlutil.SafeReturn(ret, "", routetable.DashboardPath(slug, u.Role))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
