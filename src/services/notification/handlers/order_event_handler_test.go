package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/services/events"
	"github.com/MEE-POONG/mapoo-sub001/src/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topics []string
}

func (r *recordingPublisher) Publish(topic string, _ []byte) error {
	r.topics = append(r.topics, topic)
	return nil
}

func newHandler() (*OrderEventHandler, *recordingPublisher, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewLoggerWithOutput(&buf, log.InfoLevel)
	pub := &recordingPublisher{}
	return NewOrderEventHandler(pub, notification.NewNotificationService(logger), logger), pub, &buf
}

func TestStatusChangedNotifiesCustomer(t *testing.T) {
	h, pub, buf := newHandler()
	body, err := json.Marshal(events.OrderStatusChangedEvent{
		OrderID: "o-1", OrderNo: "ORD-20260301-ABCDEF", CustomerPhone: "0812345678", From: "PENDING", To: "CANCELLED",
	})
	require.NoError(t, err)

	h.StatusChanged().Handle(context.Background(), body)

	assert.Empty(t, pub.topics)
	assert.Contains(t, buf.String(), "Notification dispatched")
	assert.Contains(t, buf.String(), "0812345678")
	assert.Contains(t, buf.String(), "cancellation")
}

func TestUndecodableEventGoesToDLQ(t *testing.T) {
	h, pub, _ := newHandler()

	h.StatusChanged().Handle(context.Background(), []byte(`{not json`))
	h.Placed().Handle(context.Background(), []byte(`{"orderNo":"ORD-1"}`))

	assert.Equal(t, []string{"order.status.changed.dlq", "order.placed.dlq"}, pub.topics)
}

func TestPlacedWithoutRecipientGoesToDLQ(t *testing.T) {
	h, pub, _ := newHandler()
	body, err := json.Marshal(events.OrderPlacedEvent{OrderID: "o-1", OrderNo: "ORD-1", TotalAmount: 90})
	require.NoError(t, err)

	h.Placed().Handle(context.Background(), body)
	assert.Equal(t, []string{events.DLQ(events.OrderPlaced)}, pub.topics)
}

func TestStatusMessages(t *testing.T) {
	assert.Contains(t, statusMessage("ORD-1", "SHIPPED"), "จัดส่งแล้ว")
	assert.Contains(t, statusMessage("ORD-1", "WEIRD"), "WEIRD")
	assert.Equal(t, "status_update", messageType("SHIPPED"))
}
