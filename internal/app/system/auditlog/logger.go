// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/edirhub/internal/app/store/audit"
	"github.com/dalemusser/edirhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls authentication events (sign-in, sign-out, registration).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off".
	Auth string
	// Admin controls administrative actions (approvals, role changes,
	// contributions, resources, Edir requests). Same values as Auth.
	Admin string
}

// Logger writes audit events to MongoDB and zap according to Config.
// A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.EdirID != nil {
		fields = append(fields, zap.String("edir_id", event.EdirID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func requestEvent(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

func hexPtr(s string) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil
	}
	return &oid
}

// --- Authentication events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, edirID *primitive.ObjectID, email, method string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = &userID
	e.EdirID = edirID
	e.Details = map[string]string{"email": email, "auth_method": method}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a sign-in for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, edirID *primitive.ObjectID, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound)
	e.EdirID = edirID
	e.Success = false
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": email}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a sign-in with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, edirID *primitive.ObjectID, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword)
	e.UserID = &userID
	e.EdirID = edirID
	e.Success = false
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedInactive logs a sign-in by a pending, disabled or rejected user.
func (l *Logger) LoginFailedInactive(ctx context.Context, r *http.Request, userID primitive.ObjectID, edirID *primitive.ObjectID, email, status string) {
	eventType := audit.EventLoginFailedUserDisabled
	if status == "pending" {
		eventType = audit.EventLoginFailedPending
	}
	e := requestEvent(r, audit.CategoryAuth, eventType)
	e.UserID = &userID
	e.EdirID = edirID
	e.Success = false
	e.FailureReason = "user " + status
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a sign-in blocked by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, edirID *primitive.ObjectID, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit)
	e.EdirID = edirID
	e.Success = false
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// Logout logs a sign-out. IDs come from the session as hex strings.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDHex, edirIDHex string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLogout)
	e.UserID = hexPtr(userIDHex)
	e.EdirID = hexPtr(edirIDHex)
	l.Log(ctx, e)
}

// Registered logs a new pending registration.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID, edirID primitive.ObjectID, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventRegistered)
	e.UserID = &userID
	e.EdirID = &edirID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// --- Administrative events ---

// MemberApproved logs a head approving a registration.
func (l *Logger) MemberApproved(ctx context.Context, r *http.Request, actorID, userID, edirID primitive.ObjectID) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventMemberApproved)
	e.ActorID, e.UserID, e.EdirID = &actorID, &userID, &edirID
	l.Log(ctx, e)
}

// MemberRejected logs a head rejecting a registration.
func (l *Logger) MemberRejected(ctx context.Context, r *http.Request, actorID, userID, edirID primitive.ObjectID) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventMemberRejected)
	e.ActorID, e.UserID, e.EdirID = &actorID, &userID, &edirID
	l.Log(ctx, e)
}

// MembersExpired logs the background expiry of stale registrations.
func (l *Logger) MembersExpired(ctx context.Context, count int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberExpired,
		IP:        "system",
		Success:   true,
		Details:   map[string]string{"count": strconv.FormatInt(count, 10)},
	})
}

// RoleAssigned logs a role change.
func (l *Logger) RoleAssigned(ctx context.Context, r *http.Request, actorID, userID, edirID primitive.ObjectID, from, to string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventRoleAssigned)
	e.ActorID, e.UserID, e.EdirID = &actorID, &userID, &edirID
	e.Details = map[string]string{"from": from, "to": to}
	l.Log(ctx, e)
}

// ContributionRecorded logs a treasurer recording a payment.
func (l *Logger) ContributionRecorded(ctx context.Context, r *http.Request, actorID, memberID, edirID primitive.ObjectID, amountCents int64) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventContributionAdded)
	e.ActorID, e.UserID, e.EdirID = &actorID, &memberID, &edirID
	e.Details = map[string]string{"amount_cents": strconv.FormatInt(amountCents, 10)}
	l.Log(ctx, e)
}

// EventCreated logs a newly scheduled event.
func (l *Logger) EventCreated(ctx context.Context, r *http.Request, actorID, edirID, eventID primitive.ObjectID, title string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventEventCreated)
	e.ActorID, e.EdirID = &actorID, &edirID
	e.Details = map[string]string{"event_id": eventID.Hex(), "title": title}
	l.Log(ctx, e)
}

// ResourceCreated logs a new shared resource.
func (l *Logger) ResourceCreated(ctx context.Context, r *http.Request, actorID, edirID, resourceID primitive.ObjectID, name string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventResourceCreated)
	e.ActorID, e.EdirID = &actorID, &edirID
	e.Details = map[string]string{"resource_id": resourceID.Hex(), "name": name}
	l.Log(ctx, e)
}

// ResourceStatusChanged logs a resource status change.
func (l *Logger) ResourceStatusChanged(ctx context.Context, r *http.Request, actorID, edirID, resourceID primitive.ObjectID, to string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventResourceStatus)
	e.ActorID, e.EdirID = &actorID, &edirID
	e.Details = map[string]string{"resource_id": resourceID.Hex(), "status": to}
	l.Log(ctx, e)
}

// EdirRequested logs a public request to create an Edir.
func (l *Logger) EdirRequested(ctx context.Context, r *http.Request, requestID primitive.ObjectID, slug, reference string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventEdirRequested)
	e.Details = map[string]string{"request_id": requestID.Hex(), "slug": slug, "reference": reference}
	l.Log(ctx, e)
}

// EdirRequestApproved logs approval of a request and the Edir it created.
func (l *Logger) EdirRequestApproved(ctx context.Context, r *http.Request, actorID, requestID, edirID, headID primitive.ObjectID) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventEdirRequestApproved)
	e.ActorID, e.EdirID, e.UserID = &actorID, &edirID, &headID
	e.Details = map[string]string{"request_id": requestID.Hex()}
	l.Log(ctx, e)
}

// EdirRequestRejected logs rejection of a request.
func (l *Logger) EdirRequestRejected(ctx context.Context, r *http.Request, actorID, requestID primitive.ObjectID, reason string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventEdirRequestRejected)
	e.ActorID = &actorID
	e.Details = map[string]string{"request_id": requestID.Hex(), "reason": reason}
	l.Log(ctx, e)
}

// EdirStatusChanged logs suspension or reactivation of an Edir.
func (l *Logger) EdirStatusChanged(ctx context.Context, r *http.Request, actorID, edirID primitive.ObjectID, to string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventEdirStatusChanged)
	e.ActorID, e.EdirID = &actorID, &edirID
	e.Details = map[string]string{"status": to}
	l.Log(ctx, e)
}
