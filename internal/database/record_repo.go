package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RecordRepository handles parking record operations against the document
// store. Records are written by the mobile backend; this service only reads
// and deletes them.
type RecordRepository struct {
	collection *mongo.Collection
}

// NewRecordRepository creates a new parking record repository
func NewRecordRepository(db *MongoDB) *RecordRepository {
	return &RecordRepository{
		collection: db.GetCollection(CollectionParkedRecords),
	}
}

// Get retrieves a parking record by its identifier. Returns
// model.ErrRecordNotFound when the record does not exist.
func (r *RecordRepository) Get(ctx context.Context, id string) (*model.ParkingRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record model.ParkingRecord
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get parking record: %w", err)
	}

	return &record, nil
}

// Delete removes a parking record. Returns model.ErrRecordNotFound when the
// record was already gone; callers on the task path treat that as a no-op.
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctxTimeout, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete parking record: %w", err)
	}

	if result.DeletedCount == 0 {
		return model.ErrRecordNotFound
	}

	return nil
}

// DeleteExpiredBefore removes every record whose expiry is older than the
// cutoff. Used by the maintenance sweep to catch purge tasks lost to a
// process restart.
func (r *RecordRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"expires_at": bson.M{
			"$lt": cutoff,
			"$gt": time.Time{},
		},
	}

	result, err := r.collection.DeleteMany(ctxTimeout, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired records: %w", err)
	}

	return result.DeletedCount, nil
}
