package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/usf-event/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository defines the interface for event data operations
type EventRepository interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	// ListEvents returns every event in insertion order.
	ListEvents(ctx context.Context) ([]models.Event, error)
	// ListEventsNewestFirst returns every event, most recently created first.
	ListEventsNewestFirst(ctx context.Context) ([]models.Event, error)
	// GetEventsByTag returns events carrying tag, in insertion order.
	GetEventsByTag(ctx context.Context, tag string) ([]models.Event, error)
}

// MongoEventRepository implements EventRepository for MongoDB
type MongoEventRepository struct {
	collection *mongo.Collection
}

// NewMongoEventRepository creates a new MongoEventRepository
func NewMongoEventRepository(db *mongo.Database) *MongoEventRepository {
	return &MongoEventRepository{collection: db.Collection("events")}
}

// EnsureIndexes creates the tag index used by GetEventsByTag.
func (r *MongoEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *MongoEventRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	event.ID = primitive.NewObjectID()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

func (r *MongoEventRepository) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var event models.Event
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&event); err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *MongoEventRepository) ListEvents(ctx context.Context) ([]models.Event, error) {
	return r.find(ctx, bson.D{}, bson.D{{Key: "_id", Value: 1}})
}

func (r *MongoEventRepository) ListEventsNewestFirst(ctx context.Context) ([]models.Event, error) {
	return r.find(ctx, bson.D{}, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

func (r *MongoEventRepository) GetEventsByTag(ctx context.Context, tag string) ([]models.Event, error) {
	return r.find(ctx, bson.M{"tags": tag}, bson.D{{Key: "_id", Value: 1}})
}

func (r *MongoEventRepository) find(ctx context.Context, filter interface{}, sort bson.D) ([]models.Event, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}
