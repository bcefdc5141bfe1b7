package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contribution is a payment a member made to the Edir's common fund,
// recorded by the treasurer. Amounts are kept in cents to avoid float drift.
type Contribution struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EdirID      primitive.ObjectID `bson:"edir_id" json:"edir_id"`
	MemberID    primitive.ObjectID `bson:"member_id" json:"member_id"`
	MemberName  string             `bson:"member_name" json:"member_name"`
	AmountCents int64              `bson:"amount_cents" json:"amount_cents"`
	Note        string             `bson:"note,omitempty" json:"note,omitempty"`
	RecordedBy  primitive.ObjectID `bson:"recorded_by" json:"recorded_by"`
	PaidAt      time.Time          `bson:"paid_at" json:"paid_at"`
}
