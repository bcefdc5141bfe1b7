// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Tenants and their people
	ensure("edirs", edirsSchema())
	ensure("users", usersSchema())
	ensure("edir_requests", edirRequestsSchema())

	// Per-Edir records
	ensure("contributions", contributionsSchema())
	ensure("events", eventsSchema())
	ensure("resources", resourcesSchema())

	ensure("login_records", nil)
	ensure("oauth_states", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ------------------------------ helpers ------------------------------ */

// ensureCollection creates name unless it already exists. A failed listing
// falls through to CreateCollection, which tolerates a concurrent create.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	if names, err := db.ListCollectionNames(ctx, bson.M{"name": name}); err == nil && len(names) > 0 {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if commandFailed(err, []int32{48}, "already exists", "namespace exists") {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

// setValidator attaches schema with moderate validation, so documents that
// predate a schema change can still be updated.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Debug("validator ensured", zap.String("collection", name))
	return nil
}

func isNoSuchCommand(err error) bool {
	return commandFailed(err, []int32{59}, "no such command")
}

func isNotImplemented(err error) bool {
	return commandFailed(err, []int32{115}, "not implemented", "not supported")
}

// commandFailed matches a server error by code, or by message for
// deployments that report the condition without the standard code.
func commandFailed(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enumOf(ss ...string) bson.A {
	out := make(bson.A, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

func edirsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "slug", "status"},
			"properties": bson.M{
				"name":    nonBlank,
				"name_ci": nonBlank,
				"slug":    bson.M{"bsonType": "string", "pattern": "^[a-z0-9][a-z0-9-]*$"},
				"status":  bson.M{"enum": enumOf(status.Active, status.Suspended)},
			},
		},
	}
}

func usersSchema() bson.M {
	roles := enumOf(append([]string{models.RoleSuperAdmin}, models.EdirRoles...)...)
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "status"},
			"properties": bson.M{
				"edir_id":      bson.M{"bsonType": "objectId"},
				"full_name":    nonBlank,
				"full_name_ci": bson.M{"bsonType": "string"},
				"email":        nonBlank,
				"role":         bson.M{"enum": roles},
				"status":       bson.M{"enum": enumOf(status.Pending, status.Active, status.Disabled, status.Rejected)},
			},
		},
	}
}

func edirRequestsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"reference", "edir_name", "slug", "requester_email", "status"},
			"properties": bson.M{
				"reference":       nonBlank,
				"edir_name":       nonBlank,
				"slug":            nonBlank,
				"requester_email": nonBlank,
				"status":          bson.M{"enum": enumOf(status.Pending, status.Approved, status.Rejected)},
			},
		},
	}
}

func contributionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"edir_id", "member_id", "amount_cents", "paid_at"},
			"properties": bson.M{
				"edir_id":      bson.M{"bsonType": "objectId"},
				"member_id":    bson.M{"bsonType": "objectId"},
				"amount_cents": bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 1},
				"paid_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"edir_id", "title", "starts_at"},
			"properties": bson.M{
				"edir_id":   bson.M{"bsonType": "objectId"},
				"title":     nonBlank,
				"starts_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func resourcesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"edir_id", "name", "name_ci", "status"},
			"properties": bson.M{
				"edir_id":  bson.M{"bsonType": "objectId"},
				"name":     nonBlank,
				"name_ci":  nonBlank,
				"quantity": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"status":   bson.M{"enum": enumOf(models.ResourceStatuses...)},
			},
		},
	}
}
