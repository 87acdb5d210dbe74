package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "schedulerLocks"

// SchedulerLockDatabase provides a coarse distributed lock so a cron job
// runs on a single instance at a time. Locks expire on their own, a
// crashed holder only delays the next run by the TTL.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, name, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, name, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	upsert := true
	_, err := s.db.Collection(schedulerLockName).UpdateOne(ctx,
		bson.M{
			"_id": name,
			"$or": []bson.M{
				{"expiresAt": bson.M{"$lt": now.Unix()}},
				{"owner": instanceID},
			},
		},
		bson.M{"$set": bson.M{
			"owner":     instanceID,
			"expiresAt": now.Add(ttl).Unix(),
		}},
		&options.UpdateOptions{Upsert: &upsert},
	)
	if err != nil {
		// the upsert races with another holder on the _id unique index
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, name, instanceID string) error {
	_, err := s.db.Collection(schedulerLockName).DeleteOne(ctx,
		bson.M{"_id": name, "owner": instanceID},
	)
	return err
}
