package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/services/events"
	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderEvent struct {
	ID         string     `bson:"_id,omitempty"`
	OrderID    string     `bson:"orderId"`
	Topic      string     `bson:"topic"`
	EventData  []byte     `bson:"eventData"`
	CreatedAt  time.Time  `bson:"createdAt"`
	Replayed   bool       `bson:"replayed"`
	ReplayedAt *time.Time `bson:"replayedAt,omitempty"`
	Status     string     `bson:"status"`
}

// EventRepository keeps outgoing events that could not be delivered so they
// can be republished later.
type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{collection: db.Collection("order_events")}
}

func (r *EventRepository) StoreEventForReplay(ctx context.Context, orderID, topic string, eventData []byte) error {
	if !json.Valid(eventData) {
		return errors.New("invalid JSON event data")
	}
	if topic == "" {
		return errors.New("event topic is required")
	}

	eventDoc := OrderEvent{
		ID:        primitive.NewObjectID().Hex(),
		OrderID:   orderID,
		Topic:     topic,
		EventData: eventData,
		CreatedAt: time.Now().Local(),
		Replayed:  false,
		Status:    events.EventStatusFailed,
	}
	_, err := r.collection.InsertOne(ctx, eventDoc)
	return err
}

// GetUnreplayedEvents fetches events that have not been replayed yet
// Events are returned in FIFO order (oldest first) based on createdAt timestamp
func (r *EventRepository) GetUnreplayedEvents(ctx context.Context, limit int64) ([]domain.StoredEvent, error) {
	filter := bson.M{
		"replayed": bson.M{"$ne": true},
		"status":   bson.M{"$in": []string{events.EventStatusPending, events.EventStatusFailed}},
	}
	opts := options.Find().SetLimit(limit).SetSort(bson.D{bson.E{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stored []domain.StoredEvent
	for cursor.Next(ctx) {
		var evt OrderEvent
		if err := cursor.Decode(&evt); err != nil {
			return nil, err
		}
		stored = append(stored, domain.StoredEvent{
			ID:         evt.ID,
			OrderID:    evt.OrderID,
			Topic:      evt.Topic,
			EventData:  evt.EventData,
			CreatedAt:  evt.CreatedAt,
			Replayed:   evt.Replayed,
			ReplayedAt: evt.ReplayedAt,
			Status:     evt.Status,
		})
	}
	return stored, cursor.Err()
}

func (r *EventRepository) MarkEventAsReplaying(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, bson.M{"status": events.EventStatusReplaying})
}

// MarkEventAsCompleted marks an event as successfully republished.
func (r *EventRepository) MarkEventAsCompleted(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, bson.M{
		"status":     events.EventStatusCompleted,
		"replayed":   true,
		"replayedAt": time.Now().Local(),
	})
}

// MarkEventAsFailed puts an event back in the replay queue.
func (r *EventRepository) MarkEventAsFailed(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, bson.M{"status": events.EventStatusFailed})
}

func (r *EventRepository) setStatus(ctx context.Context, eventID string, fields bson.M) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{"$set": fields})
	return err
}
