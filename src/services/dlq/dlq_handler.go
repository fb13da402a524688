package dlq

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/services/events"
)

// EventStore keeps dead-lettered events until an admin replays them.
type EventStore interface {
	StoreEventForReplay(ctx context.Context, orderID, topic string, eventData []byte) error
}

// DLQHandler stores messages that reached a topic's dead-letter queue so they
// can be republished on the original topic later.
type DLQHandler struct {
	store  EventStore
	logger log.Logger
	topic  string
}

func NewDLQHandler(store EventStore, logger log.Logger, topic string) *DLQHandler {
	return &DLQHandler{store: store, logger: logger, topic: strings.TrimSuffix(topic, ".dlq")}
}

// Queue is the dead-letter queue this handler drains.
func (h *DLQHandler) Queue() string {
	return events.DLQ(h.topic)
}

func (h *DLQHandler) Handle(ctx context.Context, msgBody []byte) {
	h.logger.Info(ctx, "Processing "+h.topic+" DLQ event")

	var envelope struct {
		OrderID string `json:"orderId"`
	}
	orderID := "unknown"
	if err := json.Unmarshal(msgBody, &envelope); err == nil && envelope.OrderID != "" {
		orderID = envelope.OrderID
	}

	if err := h.store.StoreEventForReplay(ctx, orderID, h.topic, msgBody); err != nil {
		h.logger.Exception(ctx, "Failed to store "+h.topic+" DLQ event for replay", err)
		return
	}
	h.logger.Info(ctx, h.topic+" DLQ event stored for replay, orderID: "+orderID)
}
