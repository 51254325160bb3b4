package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"vrewgen/internal/model/project"
)

// EnsureIndexes creates the indexes of every persisted model at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return EnsureAllIndexes(ctx, db,
		&project.Session{},
	)
}
