// internal/app/features/dashboard/handler.go
package dashboard

import (
	"time"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	contributionstore "github.com/dalemusser/edirhub/internal/app/store/contributions"
	eventstore "github.com/dalemusser/edirhub/internal/app/store/events"
	loginstore "github.com/dalemusser/edirhub/internal/app/store/logins"
	resourcestore "github.com/dalemusser/edirhub/internal/app/store/resources"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the per-role dashboards inside an Edir. Routing and the
// role checks come from the route table; handlers only scope data to the
// Edir in the URL.
type Handler struct {
	DB            *mongo.Database
	Users         *userstore.Store
	Contributions *contributionstore.Store
	Events        *eventstore.Store
	Resources     *resourcestore.Store
	Logins        *loginstore.Store
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	Log           *zap.Logger

	// Location interprets event start times typed into forms.
	Location *time.Location
	now      func() time.Time
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		DB:            db,
		Users:         userstore.New(db),
		Contributions: contributionstore.New(db),
		Events:        eventstore.New(db),
		Resources:     resourcestore.New(db),
		Logins:        loginstore.New(db),
		ErrLog:        errLog,
		AuditLog:      auditLog,
		Log:           logger,
		Location:      loc,
		now:           time.Now,
	}
}
