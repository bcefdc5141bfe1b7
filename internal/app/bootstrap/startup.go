// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/edirhub/internal/app/resources"
	"github.com/dalemusser/edirhub/internal/app/store/audit"
	"github.com/dalemusser/edirhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/auditlog"
	"github.com/dalemusser/edirhub/internal/app/system/authutil"
	"github.com/dalemusser/edirhub/internal/app/system/ratelimit"
	"github.com/dalemusser/edirhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

const (
	superAdminName = "EdirHub Administrator"
	expirySweep    = time.Hour
)

// background holds the long-lived pieces started here and stopped in Shutdown.
var background struct {
	mu      sync.Mutex
	expiry  *workers.PendingExpiry
	limiter *ratelimit.LoginLimiter
}

// Startup runs one-time initialization after the database is reachable and
// the schema is in place: shared templates, the superadmin account and the
// pending-registration expiry worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, logger); err != nil {
			logger.Error("ensure superadmin failed", zap.Error(err))
			return err
		}
	}

	w := workers.NewPendingExpiry(
		userstore.New(deps.MongoDatabase),
		oauthstate.New(deps.MongoDatabase),
		newAuditLogger(appCfg, deps, logger),
		logger,
		expirySweep,
		appCfg.PendingExpiry,
	)
	w.Start()

	background.mu.Lock()
	background.expiry = w
	background.mu.Unlock()
	return nil
}

// ensureSuperAdmin creates or refreshes the cross-tenant administrator.
// A blank password leaves an existing hash untouched.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	var hash string
	if password != "" {
		h, err := authutil.HashPassword(password)
		if err != nil {
			return err
		}
		hash = h
	}

	u, err := userstore.New(deps.MongoDatabase).EnsureSuperAdmin(ctx, email, superAdminName, hash)
	if err != nil {
		return err
	}
	if u.PasswordHash == "" {
		logger.Warn("superadmin has no password; sign in with Google or set superadmin_password",
			zap.String("email", u.Email))
	}
	logger.Info("superadmin ensured", zap.String("email", u.Email))
	return nil
}

func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}
