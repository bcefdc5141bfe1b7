// internal/app/system/workers/pendingexpiry.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// PendingExpirer rejects registrations still pending since before cutoff.
type PendingExpirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateCleaner removes expired OAuth state tokens.
type StateCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// PendingExpiry is a background worker that rejects registrations nobody
// approved within maxAge, and sweeps expired OAuth states on the same tick.
type PendingExpiry struct {
	users  PendingExpirer
	states StateCleaner // optional
	audit  *auditlog.Logger
	log    *zap.Logger

	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPendingExpiry creates the worker. states and audit may be nil.
//
// Parameters:
//   - interval: how often to sweep (e.g., 1 hour)
//   - maxAge: how long a registration may stay pending (e.g., 30 days)
func NewPendingExpiry(users PendingExpirer, states StateCleaner, audit *auditlog.Logger, logger *zap.Logger, interval, maxAge time.Duration) *PendingExpiry {
	return &PendingExpiry{
		users:    users,
		states:   states,
		audit:    audit,
		log:      logger,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *PendingExpiry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("pending expiry worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *PendingExpiry) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("pending expiry worker stopped")
}

func (w *PendingExpiry) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Sweep runs one pass and returns how many registrations were expired.
func (w *PendingExpiry) Sweep(parent context.Context) int64 {
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	cutoff := w.now().UTC().Add(-w.maxAge)
	count, err := w.users.ExpirePending(ctx, cutoff)
	if err != nil {
		w.log.Error("failed to expire pending registrations", zap.Error(err))
	} else if count > 0 {
		w.log.Info("expired pending registrations", zap.Int64("count", count), zap.Time("cutoff", cutoff))
		w.audit.MembersExpired(ctx, count)
	}

	if w.states != nil {
		if n, err := w.states.CleanupExpired(ctx); err != nil {
			w.log.Warn("failed to clean up oauth states", zap.Error(err))
		} else if n > 0 {
			w.log.Debug("removed expired oauth states", zap.Int64("count", n))
		}
	}
	return count
}
