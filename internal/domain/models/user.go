// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an Edir officer or member, or the cross-tenant superadmin.
//
// NOTE:
//   - Superadmins have a nil EdirID.
//   - Email is unique per Edir, not globally; the same person may belong to
//     several Edirs with separate accounts.
type User struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	EdirID     *primitive.ObjectID `bson:"edir_id,omitempty" json:"edir_id,omitempty"`
	FullName   string              `bson:"full_name" json:"full_name"`
	FullNameCI string              `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string              `bson:"email" json:"email"`
	Phone      string              `bson:"phone,omitempty" json:"phone,omitempty"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Role   string `bson:"role" json:"role"`                         // superadmin | head | treasurer | propertymanager | eventcoordinator | member
	Status string `bson:"status,omitempty" json:"status,omitempty"` // pending | active | disabled | rejected

	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
	ApprovedAt *time.Time `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
}
