// internal/app/features/login/handler.go
package login

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	loginstore "github.com/dalemusser/edirhub/internal/app/store/logins"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/auditlog"
	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/app/system/metrics"
	"github.com/dalemusser/edirhub/internal/app/system/ratelimit"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Edirs      *edirstore.Store
	Logins     *loginstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter // nil disables rate limiting
	Metrics    *metrics.Metrics
	Log        *zap.Logger

	GoogleEnabled bool
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	auditLog *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	m *metrics.Metrics,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:         userstore.New(db),
		Edirs:         edirstore.New(db),
		Logins:        loginstore.New(db),
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      auditLog,
		Limiter:       limiter,
		Metrics:       m,
		GoogleEnabled: googleEnabled,
		Log:           logger,
	}
}

type loginFormData struct {
	viewdata.BaseVM

	ActionURL     string
	Email         string
	ReturnURL     string
	Error         string
	GoogleEnabled bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login, /{edirslug}/login                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, errorMessages[query.Get(r, "error")], "", query.Get(r, "return"))
}

// errorMessages maps the codes the Google sign-in flow redirects with.
var errorMessages = map[string]string{
	"google_not_configured": "Google sign-in is not available.",
	"google_denied":         "Google sign-in was cancelled.",
	"invalid_state":         "Your sign-in attempt expired. Please try again.",
	"invalid_code":          "Your sign-in attempt expired. Please try again.",
	"token_exchange":        "Google sign-in failed. Please try again.",
	"user_info":             "Google sign-in failed. Please try again.",
	"email_unverified":      "Your Google email address is not verified.",
	"edir_unavailable":      "That Edir is currently unavailable.",
	"no_account":            "No account uses that Google email. Ask to join your Edir first.",
	"choose_edir":           "This email is registered with more than one Edir. Please sign in from your Edir's own sign-in page.",
	"account_disabled":      "This account is not active. Please contact the head of your Edir.",
	"internal":              "Something went wrong. Please try again.",
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, msg, email, ret string) {
	title := "Sign in"
	vm := viewdata.NewBaseVM(r, title, "/")
	if vm.EdirName != "" {
		vm.Title = "Sign in to " + vm.EdirName
	}
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        vm,
		ActionURL:     r.URL.Path,
		Email:         email,
		ReturnURL:     strings.TrimSpace(ret),
		Error:         msg,
		GoogleEnabled: h.GoogleEnabled,
	})
}
