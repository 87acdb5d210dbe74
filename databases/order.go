package databases

// go generate: mockery --name OrderDatabase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upworkrevolution/membership-api/models"
)

const orderName = "orders"

// orderIDAttempts bounds the retry loop when a random order id collides
// with a live order.
const orderIDAttempts = 10

// OrderDatabase contains the methods to use with the order database
type OrderDatabase interface {
	Create(ctx context.Context, email, inviteLink, amountToPay string, subscriptionDays int) (*models.Order, error)
	AttachOrderReference(ctx context.Context, orderID int64, orderReference string) error
	FindByOrderReference(ctx context.Context, orderReference string) (*models.Order, error)
	FindByInviteLink(ctx context.Context, inviteLink string) (*models.Order, error)
	FindPaid(ctx context.Context) ([]models.Order, error)
	MarkPaid(ctx context.Context, orderReference string) (bool, error)
	MarkFinished(ctx context.Context, orderReference string) (bool, error)
	DeleteByReference(ctx context.Context, orderReference string) (bool, error)
	ClaimForAttribution(ctx context.Context, inviteLink string) (*models.Order, error)
}

type orderDatabase struct {
	db DatabaseHelper
}

// NewOrderDatabase initializes a new instance of order database with the provided db connection
func NewOrderDatabase(db DatabaseHelper) OrderDatabase {
	return &orderDatabase{
		db: db,
	}
}

// Create inserts a new order in status created. The order id is a random
// ten digit number, re-rolled until it does not collide with any live
// order. Ids of deleted orders may be reused.
func (o *orderDatabase) Create(ctx context.Context, email, inviteLink, amountToPay string, subscriptionDays int) (*models.Order, error) {
	orderID, err := o.uniqueOrderID(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderID:          orderID,
		Email:            email,
		InviteLink:       inviteLink,
		AmountToPay:      amountToPay,
		SubscriptionDays: subscriptionDays,
		CreatedAt:        time.Now().Unix(),
		Status:           models.OrderStatusCreated,
	}
	_, err = o.db.Collection(orderName).InsertOne(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	return order, nil
}

func (o *orderDatabase) uniqueOrderID(ctx context.Context) (int64, error) {
	for i := 0; i < orderIDAttempts; i++ {
		candidate := randomOrderID()
		count, err := o.db.Collection(orderName).CountDocuments(ctx, bson.M{"orderId": candidate})
		if err != nil {
			return 0, fmt.Errorf("failed to check order id collision: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return 0, errors.New("failed to generate a unique order id")
}

// randomOrderID returns a ten digit number, zero padding excluded.
func randomOrderID() int64 {
	return 1_000_000_000 + rand.Int63n(9_000_000_000)
}

func (o *orderDatabase) AttachOrderReference(ctx context.Context, orderID int64, orderReference string) error {
	res, err := o.db.Collection(orderName).UpdateOne(ctx,
		bson.M{"orderId": orderID},
		bson.M{"$set": bson.M{"orderReference": orderReference}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (o *orderDatabase) FindByOrderReference(ctx context.Context, orderReference string) (*models.Order, error) {
	return o.findOne(ctx, bson.M{"orderReference": orderReference})
}

func (o *orderDatabase) FindByInviteLink(ctx context.Context, inviteLink string) (*models.Order, error) {
	return o.findOne(ctx, bson.M{"inviteLink": inviteLink})
}

func (o *orderDatabase) findOne(ctx context.Context, filter interface{}) (*models.Order, error) {
	order := &models.Order{}
	err := o.db.Collection(orderName).FindOne(ctx, filter).Decode(order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (o *orderDatabase) FindPaid(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	cur, err := o.db.Collection(orderName).Find(ctx, bson.M{"status": models.OrderStatusPaid})
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid applies the guarded created -> paid transition. It reports
// whether the transition happened; a webhook redelivered for an order
// already past created matches nothing and is a no-op.
func (o *orderDatabase) MarkPaid(ctx context.Context, orderReference string) (bool, error) {
	res, err := o.db.Collection(orderName).UpdateOne(ctx,
		bson.M{"orderReference": orderReference, "status": models.OrderStatusCreated},
		bson.M{"$set": bson.M{"status": models.OrderStatusPaid}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// MarkFinished applies the guarded paid -> finished transition. The
// fulfillment job flips the order before sending the access email so a
// concurrent or retried poll can never email twice.
func (o *orderDatabase) MarkFinished(ctx context.Context, orderReference string) (bool, error) {
	res, err := o.db.Collection(orderName).UpdateOne(ctx,
		bson.M{"orderReference": orderReference, "status": models.OrderStatusPaid},
		bson.M{"$set": bson.M{"status": models.OrderStatusFinished}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// DeleteByReference removes a declined order outright. Only orders still
// in created are deleted, a paid order is kept even if a late failure
// callback arrives for it.
func (o *orderDatabase) DeleteByReference(ctx context.Context, orderReference string) (bool, error) {
	deleted, err := o.db.Collection(orderName).DeleteOne(ctx,
		bson.M{"orderReference": orderReference, "status": models.OrderStatusCreated},
	)
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

// ClaimForAttribution marks the order matching the invite link as
// consumed by a join event. The attributedAt guard makes the claim
// at-most-once: a second join resolving to the same order loses the
// claim and gets ErrOrderClaimed.
func (o *orderDatabase) ClaimForAttribution(ctx context.Context, inviteLink string) (*models.Order, error) {
	res, err := o.db.Collection(orderName).UpdateOne(ctx,
		bson.M{"inviteLink": inviteLink, "attributedAt": nil},
		bson.M{"$set": bson.M{"attributedAt": time.Now().Unix()}},
	)
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		if _, err := o.FindByInviteLink(ctx, inviteLink); err != nil {
			return nil, err
		}
		return nil, ErrOrderClaimed
	}
	return o.FindByInviteLink(ctx, inviteLink)
}
