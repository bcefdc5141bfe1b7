package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSiteName is shown in the header when no Edir is in context.
const DefaultSiteName = "EdirHub"

// Edir represents a tenant: one community mutual-aid association.
// Every member, contribution, event and resource belongs to exactly one
// Edir via its edir_id field.
type Edir struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"name_ci"` // Case-insensitive for search

	// Slug is the URL segment that addresses the Edir (e.g. "/kebele-07/login").
	// Unique across all Edirs and never one of the reserved route segments.
	Slug string `bson:"slug" json:"slug"`

	Description string `bson:"description,omitempty" json:"description,omitempty"`

	// Status: "active" or "suspended"
	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the Edir accepts sign-ins and dashboard traffic.
func (e Edir) IsActive() bool {
	return e.Status == "active"
}
