package project

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vrewgen/internal/model/project"
)

// ErrNotFound is returned when no session has the requested id.
var ErrNotFound = errors.New("session not found")

// SessionRepository session store used by the service layer
type SessionRepository interface {
	Create(ctx context.Context, s *project.Session) error
	FindByID(ctx context.Context, id string) (*project.Session, error)
	Save(ctx context.Context, s *project.Session) error
	List(ctx context.Context, limit int64) ([]*project.Session, error)
}

// SessionRepo mongo-backed sessions
type SessionRepo struct {
	coll *mongo.Collection
}

// NewSessionRepo binds the sessions collection.
func NewSessionRepo(db *mongo.Database) *SessionRepo {
	var s project.Session
	return &SessionRepo{coll: db.Collection(s.Collection())}
}

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, s *project.Session) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, s)
	return err
}

// FindByID loads one session.
func (r *SessionRepo) FindByID(ctx context.Context, id string) (*project.Session, error) {
	var s project.Session
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Save replaces the stored session.
func (r *SessionRepo) Save(ctx context.Context, s *project.Session) error {
	s.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": s.ID}, s)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the most recently updated sessions.
func (r *SessionRepo) List(ctx context.Context, limit int64) ([]*project.Session, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"script": 0})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []*project.Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
