// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/auditlog"
	"github.com/dalemusser/edirhub/internal/app/system/authutil"
	"github.com/dalemusser/edirhub/internal/app/system/metrics"
	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/tenant"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users    *userstore.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		ErrLog:   errLog,
		AuditLog: auditLog,
		Metrics:  m,
		Log:      logger,
	}
}

type formData struct {
	viewdata.BaseVM

	FullName      string
	Email         string
	Phone         string
	PasswordRules string
	Error         string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /{edirslug}/register                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, formData{})
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data formData) {
	data.BaseVM = viewdata.NewBaseVM(r, "Join", "/")
	if data.EdirName != "" {
		data.Title = "Join " + data.EdirName
	}
	data.PasswordRules = authutil.PasswordRules()
	templates.Render(w, r, "register", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /{edirslug}/register                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	info := tenant.FromRequest(r)
	if info == nil {
		uierrors.RenderNotFound(w, r, "That Edir does not exist.", "/")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", r.URL.Path)
		return
	}

	data := formData{
		FullName: normalize.Name(r.FormValue("full_name")),
		Email:    normalize.Email(r.FormValue("email")),
		Phone:    normalize.Phone(r.FormValue("phone")),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	if msg := validate(data, password, confirm); msg != "" {
		data.Error = msg
		h.renderForm(w, r, data)
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Something went wrong.", r.URL.Path)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		EdirID:       &info.ID,
		FullName:     data.FullName,
		Email:        data.Email,
		Phone:        data.Phone,
		PasswordHash: hash,
		Role:         models.RoleMember,
		Status:       status.Pending,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		data.Error = "An account with this email already exists in " + info.Name + "."
		h.renderForm(w, r, data)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create registration failed", err, "A database error occurred.", r.URL.Path)
		return
	}

	h.AuditLog.Registered(ctx, r, u.ID, info.ID, u.Email)
	h.Metrics.ObserveRegistration()
	h.Log.Info("member registered",
		zap.String("edir", info.Slug),
		zap.String("user_id", u.ID.Hex()))

	http.Redirect(w, r, "/pending-approval?edir="+info.Slug, http.StatusSeeOther)
}

func validate(d formData, password, confirm string) string {
	switch {
	case d.FullName == "":
		return "Please enter your full name."
	case !authutil.IsValidEmail(d.Email):
		return "Please enter a valid email address."
	}
	switch err := authutil.ValidateNewPassword(password, confirm); {
	case errors.Is(err, authutil.ErrPasswordMismatch):
		return "The passwords do not match."
	case err != nil:
		s := err.Error()
		return strings.ToUpper(s[:1]) + s[1:] + "."
	}
	return ""
}

// Handlers binds the registration page and its form.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewRegister, h.ServeRegister)
	hs.Action(routetable.ViewRegister, "submit", h.HandleRegister)
	return hs
}
