package events

import (
	"errors"
	"time"
)

const (
	// Event types
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status.changed"

	// Event status enums for order_events collection
	EventStatusPending   = "pending"   // Event is waiting to be processed
	EventStatusFailed    = "failed"    // Event processing failed, needs replay
	EventStatusCompleted = "completed" // Event was successfully processed
	EventStatusReplaying = "replaying" // Event is currently being replayed
)

// Topics lists every routing key the store publishes; each gets a queue and a DLQ.
var Topics = []string{OrderPlaced, OrderStatusChanged}

// DLQ returns the dead-letter routing key for topic.
func DLQ(topic string) string {
	return topic + ".dlq"
}

type OrderPlacedEvent struct {
	OrderID       string    `json:"orderId"`
	OrderNo       string    `json:"orderNo"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	TotalAmount   float64   `json:"totalAmount"`
	ItemCount     int       `json:"itemCount"`
	Version       int       `json:"version"`
	TimeStamp     time.Time `json:"timestamp"`
}

func (e *OrderPlacedEvent) Validate() error {
	if e.OrderID == "" || e.OrderNo == "" {
		return errors.New("missing required fields in OrderPlacedEvent")
	}
	return nil
}

type OrderStatusChangedEvent struct {
	OrderID       string    `json:"orderId"`
	OrderNo       string    `json:"orderNo"`
	CustomerPhone string    `json:"customerPhone"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Restocked     bool      `json:"restocked"`
	Version       int       `json:"version"`
	TimeStamp     time.Time `json:"timestamp"`
}

func (e *OrderStatusChangedEvent) Validate() error {
	if e.OrderID == "" || e.From == "" || e.To == "" {
		return errors.New("missing required fields in OrderStatusChangedEvent")
	}
	return nil
}
