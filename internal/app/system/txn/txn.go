// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one, and falls back to running them directly on a
// standalone server (local development).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction. fn must use the ctx it is given so
// its operations join the session.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runDirect(ctx, logger, err, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return runDirect(ctx, logger, err, fn)
	}
	return err
}

type directKey struct{}

func runDirect(ctx context.Context, logger *zap.Logger, cause error, fn func(ctx context.Context) error) error {
	if logger != nil {
		logger.Debug("transactions unavailable, running without", zap.Error(cause))
	}
	return fn(context.WithValue(ctx, directKey{}, true))
}

// Direct reports whether ctx was handed to fn by Run without a transaction.
// Writes made under such a ctx persist even when fn returns an error.
func Direct(ctx context.Context) bool {
	v, _ := ctx.Value(directKey{}).(bool)
	return v
}

// Undo runs compensate when ctx is Direct and logs its failure. Inside a
// transaction it does nothing; the abort discards the writes.
func Undo(ctx context.Context, logger *zap.Logger, what string, compensate func(ctx context.Context) error) {
	if !Direct(ctx) {
		return
	}
	if err := compensate(ctx); err != nil && logger != nil {
		logger.Error("undo partial write failed", zap.String("what", what), zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// transactions (standalone mongod, or an operation not allowed in one).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, IllegalOperation (legacy), OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") {
		return strings.Contains(msg, "replica set") ||
			strings.Contains(msg, "session") ||
			strings.Contains(msg, "illegal operation")
	}
	return strings.Contains(msg, "session") && strings.Contains(msg, "not supported")
}
