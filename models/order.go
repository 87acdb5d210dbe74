package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Order statuses. An order is created when the buyer submits the payment
// form, marked paid by the payment callback and finished once the access
// email has gone out. Declined orders are deleted outright, the status
// value is kept for schema compatibility only.
const (
	OrderStatusCreated = iota
	OrderStatusPaid
	OrderStatusFinished
	OrderStatusDeclined
)

// Order holds the structure for the order collection in mongo
type Order struct {
	ID               primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	OrderID          int64              `json:"orderId" bson:"orderId"`
	Email            string             `json:"email" bson:"email"`
	InviteLink       string             `json:"inviteLink" bson:"inviteLink"`
	AmountToPay      string             `json:"amountToPay" bson:"amountToPay"`
	OrderReference   *string            `json:"orderReference" bson:"orderReference"`
	SubscriptionDays int                `json:"subscriptionDays" bson:"subscriptionDays"`
	CreatedAt        int64              `json:"createdAt" bson:"createdAt"`
	Status           int                `json:"status" bson:"status"`

	// AttributedAt is set exactly once, when a guild join is matched to
	// this order. It is the guard that keeps a single order from
	// extending a subscription twice.
	AttributedAt *int64 `json:"attributedAt" bson:"attributedAt"`
}
