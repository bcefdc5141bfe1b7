package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/edirhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection refused"), false},
		{"code 20", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}, true},
		{"code 263", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"other code", mongo.CommandError{Code: 11000, Message: "duplicate key"}, false},
		{"replica set message", errors.New("Transaction failed: not a REPLICA SET member"), true},
		{"session not supported", errors.New("sessions are not supported by this deployment"), true},
		{"transaction alone", errors.New("transaction aborted"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsNotSupported(tc.err); got != tc.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRun_CommitsWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		_, err := db.Collection("things").InsertOne(ctx, bson.M{"n": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	n, err := db.Collection("things").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}
}

func TestRun_ReturnsFnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}
}

func TestUndo_OnlyWithoutTransaction(t *testing.T) {
	calls := 0
	compensate := func(ctx context.Context) error {
		calls++
		return errors.New("already gone")
	}

	Undo(context.Background(), zap.NewNop(), "edir", compensate)
	if calls != 0 {
		t.Fatal("Undo must not run outside a direct write")
	}

	cause := errors.New("sessions are not supported by this deployment")
	err := runDirect(context.Background(), zap.NewNop(), cause, func(ctx context.Context) error {
		if !Direct(ctx) {
			t.Error("expected Direct inside runDirect")
		}
		Undo(ctx, zap.NewNop(), "edir", compensate)
		return nil
	})
	if err != nil {
		t.Fatalf("runDirect failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("compensate ran %d times, want 1", calls)
	}
}
