package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Model is a document type that owns its collection and indexes.
type Model interface {
	// Collection returns the collection name.
	Collection() string

	// EnsureIndexes creates or updates the collection's indexes.
	EnsureIndexes(ctx context.Context, db *mongo.Database) error
}

// EnsureAllIndexes runs EnsureIndexes for every model.
func EnsureAllIndexes(ctx context.Context, db *mongo.Database, models ...Model) error {
	for _, model := range models {
		if err := model.EnsureIndexes(ctx, db); err != nil {
			return err
		}
	}
	return nil
}
