// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's set is idempotent.
Problems are aggregated so every one is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, set := range Sets() {
		if err := ensureIndexSet(ctx, db.Collection(set.Collection), set.Models); err != nil {
			problems = append(problems, set.Collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Set is the desired index list for one collection.
type Set struct {
	Collection string
	Models     []mongo.IndexModel
}

// Sets returns the desired indexes for every collection the app owns.
func Sets() []Set {
	return []Set{
		{"edirs", []mongo.IndexModel{
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_edir_slug")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "name_ci", Value: 1}}, Options: options.Index().SetName("idx_edir_status_name")},
		}},
		{"users", []mongo.IndexModel{
			// Email is unique within an Edir; the same person may join several.
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user_edir_email")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("idx_user_email")},
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "status", Value: 1}, {Key: "full_name_ci", Value: 1}}, Options: options.Index().SetName("idx_user_edir_status_name")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("idx_user_status_created")},
		}},
		{"edir_requests", []mongo.IndexModel{
			{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_request_reference")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("idx_request_status_created")},
			{Keys: bson.D{{Key: "slug", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("idx_request_slug_status")},
		}},
		{"contributions", []mongo.IndexModel{
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "paid_at", Value: -1}}, Options: options.Index().SetName("idx_contrib_edir_paid")},
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "member_id", Value: 1}, {Key: "paid_at", Value: -1}}, Options: options.Index().SetName("idx_contrib_edir_member_paid")},
		}},
		{"events", []mongo.IndexModel{
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "starts_at", Value: 1}}, Options: options.Index().SetName("idx_event_edir_starts")},
		}},
		{"resources", []mongo.IndexModel{
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "name_ci", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_resource_edir_name")},
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("idx_resource_edir_status")},
		}},
		{"login_records", []mongo.IndexModel{
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_login_edir_created")},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_login_user_created")},
		}},
		{"oauth_states", []mongo.IndexModel{
			{Keys: bson.D{{Key: "state", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_oauth_state")},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl")},
		}},
		{"audit_events", []mongo.IndexModel{
			{Keys: bson.D{{Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_ts")},
			{Keys: bson.D{{Key: "edir_id", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_edir_ts")},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_user_ts")},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_cat_type_ts")},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(p *bool) bool { return p != nil && *p }

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A missing collection lists nothing on most servers; treat errors as empty.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Name or uniqueness differs: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if wafflemongo.IsDup(err) && isUnique(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index on %s (duplicates present)", coll.Name(), name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
