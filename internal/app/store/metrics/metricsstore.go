package metricsstore

import (
	"context"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// EdirCounts are the totals shown on an Edir's officer dashboards.
type EdirCounts struct {
	ActiveMembers  int64
	PendingMembers int64
	Officers       int64
	Resources      int64
	UpcomingEvents int64
}

// AdminCounts are the totals shown to the superadmin.
type AdminCounts struct {
	Edirs           int64
	ActiveEdirs     int64
	PendingRequests int64
	Users           int64
}

// FetchEdirCounts returns the dashboard counts for one Edir.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchEdirCounts(ctx context.Context, db *mongo.Database, edirID primitive.ObjectID) EdirCounts {
	var out EdirCounts
	users := db.Collection("users")

	out.ActiveMembers = count(ctx, users, bson.M{"edir_id": edirID, "status": status.Active})
	out.PendingMembers = count(ctx, users, bson.M{"edir_id": edirID, "status": status.Pending})
	out.Officers = count(ctx, users, bson.M{
		"edir_id": edirID,
		"status":  status.Active,
		"role":    bson.M{"$ne": models.RoleMember},
	})
	out.Resources = count(ctx, db.Collection("resources"), bson.M{
		"edir_id": edirID,
		"status":  bson.M{"$ne": models.ResourceRetired},
	})
	out.UpcomingEvents = count(ctx, db.Collection("events"), bson.M{
		"edir_id":   edirID,
		"starts_at": bson.M{"$gte": time.Now().UTC()},
	})
	return out
}

// FetchAdminCounts returns the cross-tenant counts.
func FetchAdminCounts(ctx context.Context, db *mongo.Database) AdminCounts {
	edirs := db.Collection("edirs")
	return AdminCounts{
		Edirs:           count(ctx, edirs, bson.M{}),
		ActiveEdirs:     count(ctx, edirs, bson.M{"status": status.Active}),
		PendingRequests: count(ctx, db.Collection("edir_requests"), bson.M{"status": status.Pending}),
		Users:           count(ctx, db.Collection("users"), bson.M{"role": bson.M{"$ne": models.RoleSuperAdmin}}),
	}
}

func count(ctx context.Context, c *mongo.Collection, filter bson.M) int64 {
	n, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return 0
	}
	return n
}
