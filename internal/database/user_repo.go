package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository handles user account operations. Accounts are created by the
// admin frontend; this service only deletes them.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *MongoDB) *UserRepository {
	return &UserRepository{
		collection: db.GetCollection(CollectionUsers),
	}
}

// DeleteByEmail removes a user account. Returns model.ErrUserNotFound when
// no account exists for the email.
func (r *UserRepository) DeleteByEmail(ctx context.Context, email string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctxTimeout, bson.M{"_id": email})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.DeletedCount == 0 {
		return model.ErrUserNotFound
	}

	return nil
}
