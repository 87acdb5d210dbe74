package databases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upworkrevolution/membership-api/databases"
	"github.com/upworkrevolution/membership-api/databases/mocks"
	"github.com/upworkrevolution/membership-api/models"
)

func TestUserDatabase_FindByEmail(t *testing.T) {
	srHelper := &mocks.SingleResultHelper{}
	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.MemberID = 42
		arg.Email = "buyer@example.com"
	})

	srHelperMissing := &mocks.SingleResultHelper{}
	srHelperMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)

	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.On("FindOne", context.Background(), bson.M{"email": "buyer@example.com"}).Return(srHelper)
	collectionHelper.On("FindOne", context.Background(), bson.M{"email": "nobody@example.com"}).Return(srHelperMissing)

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	user, err := userDba.FindByEmail(context.Background(), "buyer@example.com")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), user.MemberID)

	user, err = userDba.FindByEmail(context.Background(), "nobody@example.com")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, databases.ErrUserNotFound)
}

func TestUserDatabase_UpdateLastPayment(t *testing.T) {
	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.
		On("UpdateOne", context.Background(),
			bson.M{"email": "buyer@example.com"},
			bson.M{"$set": bson.M{"lastPaymentAt": int64(1700000000)}}).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	collectionHelper.
		On("UpdateOne", context.Background(),
			bson.M{"email": "nobody@example.com"},
			bson.M{"$set": bson.M{"lastPaymentAt": int64(1700000000)}}).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	err := userDba.UpdateLastPayment(context.Background(), "buyer@example.com", 1700000000)
	assert.NoError(t, err)

	err = userDba.UpdateLastPayment(context.Background(), "nobody@example.com", 1700000000)
	assert.ErrorIs(t, err, databases.ErrUserNotFound)
}

func TestUserDatabase_UpsertExtendNewMember(t *testing.T) {
	srHelperMissing := &mocks.SingleResultHelper{}
	srHelperMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)

	srHelperStored := &mocks.SingleResultHelper{}
	srHelperStored.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.MemberID = 42
		arg.Email = "buyer@example.com"
	})

	var captured bson.M
	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.On("FindOne", context.Background(), bson.M{"memberId": int64(42)}).Return(srHelperMissing).Once()
	collectionHelper.On("FindOne", context.Background(), bson.M{"memberId": int64(42)}).Return(srHelperStored)
	collectionHelper.
		On("UpdateOne", context.Background(), bson.M{"memberId": int64(42)}, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(bson.M)["$set"].(bson.M)
		})

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	now := time.Now().Unix()
	user, err := userDba.UpsertExtend(context.Background(), databases.ExtendParams{
		MemberID:    42,
		Email:       "buyer@example.com",
		DiscordName: "buyer",
		PaymentAt:   now,
		Days:        30,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(42), user.MemberID)

	// a new record starts counting from now
	assert.Equal(t, "buyer@example.com", captured["email"])
	assert.Equal(t, now, captured["firstPaymentAt"])
	assert.Equal(t, now, captured["lastPaymentAt"])
	expiry := captured["subscriptionExpiresAt"].(int64)
	assert.InDelta(t, now+30*86400, expiry, 2)
}

func TestUserDatabase_UpsertExtendAccumulates(t *testing.T) {
	now := time.Now().Unix()
	futureExpiry := now + 10*86400
	firstPayment := now - 20*86400

	srHelperExisting := &mocks.SingleResultHelper{}
	srHelperExisting.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.MemberID = 42
		arg.Email = "buyer@example.com"
		arg.FirstPaymentAt = firstPayment
		arg.SubscriptionExpiresAt = futureExpiry
	})

	var captured bson.M
	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.On("FindOne", context.Background(), bson.M{"memberId": int64(42)}).Return(srHelperExisting)
	collectionHelper.
		On("UpdateOne", context.Background(), bson.M{"memberId": int64(42)}, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(bson.M)["$set"].(bson.M)
		})

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	_, err := userDba.UpsertExtend(context.Background(), databases.ExtendParams{
		MemberID:  42,
		Email:     "buyer@example.com",
		PaymentAt: now,
		Days:      30,
	})
	assert.NoError(t, err)

	// the renewal adds its period on top of the unexpired remainder
	assert.Equal(t, futureExpiry+30*86400, captured["subscriptionExpiresAt"])
	// the first payment date survives renewals
	assert.Equal(t, firstPayment, captured["firstPaymentAt"])
}

func TestUserDatabase_UpsertExtendNeverRewindsLastPayment(t *testing.T) {
	now := time.Now().Unix()
	recentPayment := now - 3600
	orderCreatedAt := now - 5*86400

	srHelperExisting := &mocks.SingleResultHelper{}
	srHelperExisting.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.MemberID = 42
		arg.Email = "buyer@example.com"
		arg.LastPaymentAt = recentPayment
	})

	var captured bson.M
	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.On("FindOne", context.Background(), bson.M{"memberId": int64(42)}).Return(srHelperExisting)
	collectionHelper.
		On("UpdateOne", context.Background(), bson.M{"memberId": int64(42)}, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(bson.M)["$set"].(bson.M)
		})

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	// a join attributed after the payment callback carries the older
	// order creation date
	_, err := userDba.UpsertExtend(context.Background(), databases.ExtendParams{
		MemberID:  42,
		Email:     "buyer@example.com",
		PaymentAt: orderCreatedAt,
		Days:      30,
	})
	assert.NoError(t, err)

	assert.Equal(t, recentPayment, captured["lastPaymentAt"])
}

func TestUserDatabase_UpsertExtendProvisionalKeepsEmail(t *testing.T) {
	srHelperExisting := &mocks.SingleResultHelper{}
	srHelperExisting.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.MemberID = 42
		arg.Email = "buyer@example.com"
	})

	var captured bson.M
	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.On("FindOne", context.Background(), bson.M{"memberId": int64(42)}).Return(srHelperExisting)
	collectionHelper.
		On("UpdateOne", context.Background(), bson.M{"memberId": int64(42)}, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(bson.M)["$set"].(bson.M)
		})

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	_, err := userDba.UpsertExtend(context.Background(), databases.ExtendParams{
		MemberID:  42,
		Email:     "",
		PaymentAt: time.Now().Unix(),
		Days:      1,
	})
	assert.NoError(t, err)

	// a provisional replay must not erase the attributed email
	_, emailSet := captured["email"]
	assert.False(t, emailSet)
}

func TestUserDatabase_SetWarned(t *testing.T) {
	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.
		On("UpdateOne", context.Background(),
			bson.M{"memberId": int64(42)},
			bson.M{"$set": bson.M{"warned": true}}).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	err := userDba.SetWarned(context.Background(), 42, true)
	assert.NoError(t, err)
}

func TestUserDatabase_ClearAllWarned(t *testing.T) {
	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.
		On("UpdateMany", context.Background(),
			bson.M{"warned": true},
			bson.M{"$set": bson.M{"warned": false}}).
		Return(&mongo.UpdateResult{ModifiedCount: 7}, nil)

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	cleared, err := userDba.ClearAllWarned(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(7), cleared)
}

func TestUserDatabase_FindWarningCandidatesFilter(t *testing.T) {
	now := time.Now()
	hardExpiry := 40 * 24 * time.Hour
	warningLead := 30 * 24 * time.Hour
	lower, upper := databases.WarningWindow(now, hardExpiry, warningLead)

	cursorHelper := &mocks.CursorHelper{}
	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.User)
		*arg = []models.User{{MemberID: 42}}
	})

	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.
		On("Find", context.Background(), bson.M{
			"lastPaymentAt": bson.M{"$gt": lower, "$lte": upper},
			"warned":        false,
			"email":         bson.M{"$ne": ""},
		}).
		Return(cursorHelper, nil)

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	users, err := userDba.FindWarningCandidates(context.Background(), now, hardExpiry, warningLead)
	assert.NoError(t, err)
	assert.Len(t, users, 1)
}
