package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeliveryLogRepository handles notification audit log operations
type DeliveryLogRepository struct {
	collection *mongo.Collection
}

// NewDeliveryLogRepository creates a new delivery log repository
func NewDeliveryLogRepository(db *MongoDB) *DeliveryLogRepository {
	return &DeliveryLogRepository{
		collection: db.GetCollection(CollectionDeliveryLogs),
	}
}

// Insert stores one delivery log document
func (r *DeliveryLogRepository) Insert(ctx context.Context, log *model.DeliveryLog) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctxTimeout, log)
	if err != nil {
		return fmt.Errorf("failed to insert delivery log: %w", err)
	}

	return nil
}

// List retrieves delivery logs newest first
func (r *DeliveryLogRepository) List(ctx context.Context, limit int) ([]model.DeliveryLog, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctxTimeout, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var logs []model.DeliveryLog
	if err := cursor.All(ctxTimeout, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode delivery logs: %w", err)
	}

	return logs, nil
}
