// internal/domain/models/loginhistory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginRecord captures a single successful sign-in.
// Superadmin sign-ins have a nil EdirID.
type LoginRecord struct {
	UserID    primitive.ObjectID  `bson:"user_id"`
	EdirID    *primitive.ObjectID `bson:"edir_id,omitempty"`
	UserName  string              `bson:"user_name"`
	CreatedAt time.Time           `bson:"created_at"`
	IP        string              `bson:"ip"`
	Provider  string              `bson:"provider"` // password | google
}
