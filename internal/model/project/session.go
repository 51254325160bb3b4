package project

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vrewgen/internal/pkg/mediabind"
	"vrewgen/internal/pkg/scripttools"
	"vrewgen/internal/pkg/vrew"
)

// Session is one script/sheet pair moving through alignment, media binding and generation.
// It replaces process-wide state: every operation receives the session it works on.
type Session struct {
	ID         string `bson:"id" json:"id"`
	ScriptName string `bson:"script_name" json:"script_name"` // output file stem
	SheetName  string `bson:"sheet_name" json:"sheet_name"`

	Script     string               `bson:"script" json:"-"` // canonical script text
	Markers    []scripttools.Marker `bson:"markers" json:"markers"`
	Scenes     []scripttools.Scene  `bson:"scenes" json:"scenes"`
	Clips      []scripttools.Clip   `bson:"clips" json:"clips"`
	Unresolved []string             `bson:"unresolved,omitempty" json:"unresolved,omitempty"` // raw ids of markers not located

	Media       mediabind.Board `bson:"media" json:"media"`
	Generations []Generation    `bson:"generations,omitempty" json:"generations,omitempty"`

	Status SessionStatus `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SessionStatus session lifecycle state
type SessionStatus string

const (
	SessionStatusAligned   SessionStatus = "aligned"   // script partitioned, no media yet
	SessionStatusBound     SessionStatus = "bound"     // media attached
	SessionStatusGenerated SessionStatus = "generated" // at least one batch written
)

// Generation is one written project file of a batch.
type Generation struct {
	FileName   string         `bson:"file_name" json:"file_name"`
	StartScene int            `bson:"start_scene" json:"start_scene"` // inclusive, 1-based
	EndScene   int            `bson:"end_scene" json:"end_scene"`
	Clips      int            `bson:"clips" json:"clips"`
	Size       int64          `bson:"size" json:"size"`
	URL        string         `bson:"url,omitempty" json:"url,omitempty"`
	Skipped    []vrew.Skipped `bson:"skipped,omitempty" json:"skipped,omitempty"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
}

// Collection returns the collection name.
func (s *Session) Collection() string {
	return "sessions"
}

// SessionTTL is how long an untouched session is kept.
const SessionTTL = 7 * 24 * time.Hour

// EnsureIndexes creates the session indexes. updated_at carries a TTL so abandoned sessions expire.
func (s *Session) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(s.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "updated_at", Value: 1}},
			Options: options.Index().SetName("idx_updated_ttl").SetExpireAfterSeconds(int32(SessionTTL.Seconds())),
		},
	}

	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
