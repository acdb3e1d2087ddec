// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth = "auth"
	CategoryRoom = "room"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginFailedOAuth         = "login_failed_oauth"
	EventLoginFailedTrustDisabled = "login_failed_trust_disabled"
	EventLogout                   = "logout"
	EventUserCreated              = "user_created"
)

// Room event types
const (
	EventRoomCreated     = "room_created"
	EventRoomUpdated     = "room_updated"
	EventRoomDeleted     = "room_deleted"
	EventRoomJoined      = "room_joined"
	EventRoomLeft        = "room_left"
	EventCategoryCreated = "category_created"
	EventCategoryUpdated = "category_updated"
	EventCategoryDeleted = "category_deleted"
	EventCardCreated     = "card_created"
	EventCardUpdated     = "card_updated"
	EventCardDeleted     = "card_deleted"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who
	UserID  string `bson:"user_id,omitempty"`  // affected or signed-in user
	ActorID string `bson:"actor_id,omitempty"` // who performed a room action

	// What
	RoomID string `bson:"room_id,omitempty"`

	// Context
	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	UserID    string
	RoomID    string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records in the audit_events collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_room_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.RoomID != "" {
		query["room_id"] = filter.RoomID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByRoom retrieves the recent history of a room.
func (s *Store) GetByRoom(ctx context.Context, roomID string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{RoomID: roomID, Limit: limit})
}

// Ping checks the audit database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, nil)
}
