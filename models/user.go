package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User holds the structure for the user collection in mongo. Users are
// keyed by their discord member id and are never deleted: an expired
// member is kicked from the guild but the record stays for audit.
type User struct {
	ID             primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Email          string             `json:"email" bson:"email"`
	InviteLinkUsed string             `json:"inviteLinkUsed" bson:"inviteLinkUsed"`
	DiscordName    string             `json:"discordName" bson:"discordName"`
	DisplayName    string             `json:"displayName" bson:"displayName"`
	MemberID       int64              `json:"memberId" bson:"memberId"`
	FirstPaymentAt int64              `json:"firstPaymentAt" bson:"firstPaymentAt"`
	LastPaymentAt  int64              `json:"lastPaymentAt" bson:"lastPaymentAt"`

	// SubscriptionExpiresAt only ever moves forward: every extension adds
	// its period on top of max(now, current expiry).
	SubscriptionExpiresAt int64 `json:"subscriptionExpiresAt" bson:"subscriptionExpiresAt"`
	Warned                bool  `json:"warned" bson:"warned"`
}

// Provisional reports whether this record came from an unattributed join.
func (u *User) Provisional() bool {
	return u.Email == ""
}
