package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EdirRequest is a public request to create a new Edir. A superadmin approves
// it (creating the Edir and its head user) or rejects it with a reason.
type EdirRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference string             `bson:"reference" json:"reference"` // shown to the requester

	EdirName    string `bson:"edir_name" json:"edir_name"`
	Slug        string `bson:"slug" json:"slug"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	RequesterName  string `bson:"requester_name" json:"requester_name"`
	RequesterEmail string `bson:"requester_email" json:"requester_email"`
	RequesterPhone string `bson:"requester_phone,omitempty" json:"requester_phone,omitempty"`
	PasswordHash   string `bson:"password_hash" json:"-"`

	Status string `bson:"status" json:"status"` // pending | approved | rejected
	Reason string `bson:"reason,omitempty" json:"reason,omitempty"`

	EdirID    *primitive.ObjectID `bson:"edir_id,omitempty" json:"edir_id,omitempty"` // set on approval
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	DecidedAt *time.Time          `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
}
