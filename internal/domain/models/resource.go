package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resource statuses.
const (
	ResourceAvailable   = "available"
	ResourceInUse       = "in_use"
	ResourceMaintenance = "maintenance"
	ResourceRetired     = "retired"
)

// ResourceStatuses lists the valid resource statuses in display order.
var ResourceStatuses = []string{ResourceAvailable, ResourceInUse, ResourceMaintenance, ResourceRetired}

// Resource is shared Edir property looked after by the property manager
// (tents, chairs, cooking utensils...).
type Resource struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EdirID      primitive.ObjectID `bson:"edir_id" json:"edir_id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Status      string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
