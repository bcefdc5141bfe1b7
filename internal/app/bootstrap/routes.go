// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	aboutfeature "github.com/dalemusser/edirhub/internal/app/features/about"
	authgooglefeature "github.com/dalemusser/edirhub/internal/app/features/authgoogle"
	dashboardfeature "github.com/dalemusser/edirhub/internal/app/features/dashboard"
	_ "github.com/dalemusser/edirhub/internal/app/features/dashboard/views"
	ediradminfeature "github.com/dalemusser/edirhub/internal/app/features/ediradmin"
	edirrequestfeature "github.com/dalemusser/edirhub/internal/app/features/edirrequest"
	errorsfeature "github.com/dalemusser/edirhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/edirhub/internal/app/features/health"
	homefeature "github.com/dalemusser/edirhub/internal/app/features/home"
	loginfeature "github.com/dalemusser/edirhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/edirhub/internal/app/features/logout"
	pendingapprovalfeature "github.com/dalemusser/edirhub/internal/app/features/pendingapproval"
	registerfeature "github.com/dalemusser/edirhub/internal/app/features/register"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	"github.com/dalemusser/edirhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/app/system/metrics"
	"github.com/dalemusser/edirhub/internal/app/system/ratelimit"
	"github.com/dalemusser/edirhub/internal/app/system/tenant"
	"github.com/dalemusser/edirhub/internal/app/system/timezones"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for EdirHub.
//
// Every page and form action is declared in routetable.Default; this
// function builds the feature handlers, binds them to the table's view keys
// and mounts the table behind the per-row guard. Static assets are the only
// paths served outside the table.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request: role changes, approvals and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	loc, ok := timezones.Location(appCfg.Timezone)
	if !ok {
		logger.Warn("timezone not loaded; using UTC", zap.String("timezone", appCfg.Timezone))
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := newAuditLogger(appCfg, deps, logger)
	m := metrics.New(routetable.Default)

	limiter := ratelimit.NewLoginLimiter()
	background.mu.Lock()
	background.limiter = limiter
	background.mu.Unlock()

	googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""
	edirs := edirstore.New(db)

	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, auditLog, limiter, m, googleEnabled, logger)
	googleHandler := authgooglefeature.NewHandler(loginHandler, edirs, oauthstate.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)

	hs := routetable.Handlers{}
	hs.Merge(homefeature.Handlers(homefeature.NewHandler(db, errLog, logger)))
	hs.Merge(aboutfeature.Handlers(aboutfeature.NewHandler(logger)))
	hs.Merge(loginfeature.Handlers(loginHandler))
	hs.Merge(logoutfeature.Handlers(logoutfeature.NewHandler(sessionMgr, auditLog, logger)))
	hs.Merge(authgooglefeature.Handlers(googleHandler))
	hs.Merge(registerfeature.Handlers(registerfeature.NewHandler(db, errLog, auditLog, m, logger)))
	hs.Merge(pendingapprovalfeature.Handlers(pendingapprovalfeature.NewHandler(db, logger)))
	hs.Merge(dashboardfeature.Handlers(dashboardfeature.NewHandler(db, errLog, auditLog, loc, logger)))
	hs.Merge(ediradminfeature.Handlers(ediradminfeature.NewHandler(db, errLog, auditLog, logger)))
	hs.Merge(edirrequestfeature.Handlers(edirrequestfeature.NewHandler(db, errLog, auditLog, m, logger)))
	hs.Merge(errorsfeature.NewHandler().Handlers())
	hs.Merge(healthfeature.Handlers(healthfeature.NewHandler(deps.MongoClient, logger)))
	hs.Page(routetable.ViewMetrics, m.Handler().ServeHTTP)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(m.Middleware)
	r.Use(csrfProtect(appCfg.CSRFKey, secure, logger))

	// Loads the SessionUser into context for every request.
	r.Use(sessionMgr.LoadSessionUser)

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	if err := routetable.Default.Mount(r, hs, routeGuard(sessionMgr, edirs, logger)); err != nil {
		logger.Error("route table mount failed", zap.Error(err))
		return nil, err
	}
	return r, nil
}

// routeGuard derives each row's middleware from its declaration:
// tenant rows load the Edir first, and rows with Roles require a signed-in
// user holding one of them (the superadmin always qualifies) who belongs to
// the Edir.
func routeGuard(sessionMgr *auth.SessionManager, edirs tenant.EdirStore, logger *zap.Logger) routetable.Guard {
	loadEdir := tenant.Middleware(edirs, logger)

	return func(rt routetable.Route) []func(http.Handler) http.Handler {
		var mw []func(http.Handler) http.Handler
		if rt.IsTenantScoped() {
			mw = append(mw, loadEdir)
		}
		if !rt.RequiresSignIn() {
			return mw
		}
		roles := append([]string{models.RoleSuperAdmin}, rt.Roles...)
		mw = append(mw, sessionMgr.RequireSignedIn, sessionMgr.RequireRole(roles...))
		if rt.IsTenantScoped() {
			mw = append(mw, tenant.RequireMembership)
		}
		return mw
	}
}

// csrfProtect guards every form post. Over plain http in dev the request is
// marked as such so the origin check does not demand a TLS referer.
func csrfProtect(key string, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	protect := csrf.Protect([]byte(key),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			http.Error(w, "invalid or missing form token; reload the page and try again", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
