package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upworkrevolution/membership-api/models"
)

const userName = "users"

// ExtendParams carries one subscription extension. PaymentAt becomes
// firstPaymentAt when the record is new and always refreshes
// lastPaymentAt. Empty Email marks a provisional grant and never
// overwrites an attributed email.
type ExtendParams struct {
	MemberID       int64
	Email          string
	DiscordName    string
	DisplayName    string
	InviteLinkUsed string
	PaymentAt      int64
	Days           int
}

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByMemberID(ctx context.Context, memberID int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertExtend(ctx context.Context, params ExtendParams) (*models.User, error)
	UpdateLastPayment(ctx context.Context, email string, paidAt int64) error
	FindWarningCandidates(ctx context.Context, now time.Time, hardExpiry, warningLead time.Duration) ([]models.User, error)
	FindExpiryCandidates(ctx context.Context, now time.Time, hardExpiry time.Duration) ([]models.User, error)
	SetWarned(ctx context.Context, memberID int64, warned bool) error
	ClearAllWarned(ctx context.Context) (int64, error)
}

type userDatabase struct {
	db DatabaseHelper

	// memberLocks serializes mutations per member so a join event and a
	// payment callback racing on the same user cannot interleave their
	// read-modify-write and break the monotonic expiry invariant.
	memberLocks [64]sync.Mutex
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) lockMember(memberID int64) *sync.Mutex {
	return &u.memberLocks[uint64(memberID)%uint64(len(u.memberLocks))]
}

func (u *userDatabase) FindByMemberID(ctx context.Context, memberID int64) (*models.User, error) {
	return u.findOne(ctx, bson.M{"memberId": memberID})
}

func (u *userDatabase) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.findOne(ctx, bson.M{"email": email})
}

func (u *userDatabase) findOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, filter).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpsertExtend creates or extends the subscription of a member. The new
// expiry is always params.Days on top of max(now, current expiry), so a
// renewal can never move the expiry backward.
func (u *userDatabase) UpsertExtend(ctx context.Context, params ExtendParams) (*models.User, error) {
	lock := u.lockMember(params.MemberID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().Unix()

	current, err := u.FindByMemberID(ctx, params.MemberID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	var currentExpiry int64
	firstPaymentAt := params.PaymentAt
	lastPaymentAt := params.PaymentAt
	if current != nil {
		currentExpiry = current.SubscriptionExpiresAt
		firstPaymentAt = current.FirstPaymentAt
		// an extension carrying an older timestamp, such as the order
		// creation date applied at join time, must not rewind the
		// payment clock the expiry checks key on
		if current.LastPaymentAt > lastPaymentAt {
			lastPaymentAt = current.LastPaymentAt
		}
	}

	fields := bson.M{
		"memberId":              params.MemberID,
		"discordName":           params.DiscordName,
		"displayName":           params.DisplayName,
		"inviteLinkUsed":        params.InviteLinkUsed,
		"firstPaymentAt":        firstPaymentAt,
		"lastPaymentAt":         lastPaymentAt,
		"subscriptionExpiresAt": nextExpiry(now, currentExpiry, params.Days),
	}
	// provisional grants must not clobber an attributed email
	if params.Email != "" || current == nil {
		fields["email"] = params.Email
	}

	upsert := true
	_, err = u.db.Collection(userName).UpdateOne(ctx,
		bson.M{"memberId": params.MemberID},
		bson.M{"$set": fields},
		&options.UpdateOptions{Upsert: &upsert},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %d: %w", params.MemberID, err)
	}
	return u.FindByMemberID(ctx, params.MemberID)
}

// nextExpiry implements the accumulating extension rule: a renewal adds
// its period on top of the later of now and the current expiry.
func nextExpiry(now, currentExpiry int64, days int) int64 {
	base := now
	if currentExpiry > now {
		base = currentExpiry
	}
	return base + int64(days)*86400
}

func (u *userDatabase) UpdateLastPayment(ctx context.Context, email string, paidAt int64) error {
	res, err := u.db.Collection(userName).UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"lastPaymentAt": paidAt}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindWarningCandidates selects attributed users inside the warning
// window: far enough from their last payment that fewer than warningLead
// remains before the hard expiry, but not yet expired, and not already
// warned in this cycle.
func (u *userDatabase) FindWarningCandidates(ctx context.Context, now time.Time, hardExpiry, warningLead time.Duration) ([]models.User, error) {
	lower, upper := WarningWindow(now, hardExpiry, warningLead)
	return u.find(ctx, bson.M{
		"lastPaymentAt": bson.M{"$gt": lower, "$lte": upper},
		"warned":        false,
		"email":         bson.M{"$ne": ""},
	})
}

// WarningWindow returns the lastPaymentAt bounds (exclusive, inclusive)
// of the warning selection for the given instant.
func WarningWindow(now time.Time, hardExpiry, warningLead time.Duration) (int64, int64) {
	return now.Add(-hardExpiry).Unix(), now.Add(-(hardExpiry - warningLead)).Unix()
}

// FindExpiryCandidates selects users past the hard-expiry threshold.
// Provisional users never had a payment attributed, so for them the
// short grant expiry stands in for the payment-based threshold.
func (u *userDatabase) FindExpiryCandidates(ctx context.Context, now time.Time, hardExpiry time.Duration) ([]models.User, error) {
	return u.find(ctx, bson.M{
		"$or": []bson.M{
			{"lastPaymentAt": bson.M{"$lte": now.Add(-hardExpiry).Unix()}},
			{"email": "", "subscriptionExpiresAt": bson.M{"$lte": now.Unix()}},
		},
	})
}

func (u *userDatabase) find(ctx context.Context, filter interface{}) ([]models.User, error) {
	var users []models.User
	cur, err := u.db.Collection(userName).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userDatabase) SetWarned(ctx context.Context, memberID int64, warned bool) error {
	_, err := u.db.Collection(userName).UpdateOne(ctx,
		bson.M{"memberId": memberID},
		bson.M{"$set": bson.M{"warned": warned}},
	)
	return err
}

// ClearAllWarned resets every warned flag so the next cycle may warn
// again after a renewal.
func (u *userDatabase) ClearAllWarned(ctx context.Context) (int64, error) {
	res, err := u.db.Collection(userName).UpdateMany(ctx,
		bson.M{"warned": true},
		bson.M{"$set": bson.M{"warned": false}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
