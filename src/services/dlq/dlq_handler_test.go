package dlq

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/services/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedEvent struct {
	orderID, topic string
	data           []byte
}

type recordingStore struct {
	stored []storedEvent
	err    error
}

func (r *recordingStore) StoreEventForReplay(_ context.Context, orderID, topic string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.stored = append(r.stored, storedEvent{orderID, topic, data})
	return nil
}

func TestDLQHandlerStoresUnderOriginalTopic(t *testing.T) {
	store := &recordingStore{}
	h := NewDLQHandler(store, log.NewLoggerWithOutput(io.Discard, log.InfoLevel), events.DLQ(events.OrderStatusChanged))
	assert.Equal(t, "order.status.changed.dlq", h.Queue())

	h.Handle(context.Background(), []byte(`{"orderId":"o-1","from":"PENDING","to":"CANCELLED"}`))
	h.Handle(context.Background(), []byte(`garbage`))

	require.Len(t, store.stored, 2)
	assert.Equal(t, "o-1", store.stored[0].orderID)
	assert.Equal(t, events.OrderStatusChanged, store.stored[0].topic)
	assert.Equal(t, "unknown", store.stored[1].orderID)
}

func TestDLQHandlerSurvivesStoreFailure(t *testing.T) {
	store := &recordingStore{err: errors.New("mongo down")}
	h := NewDLQHandler(store, log.NewLoggerWithOutput(io.Discard, log.InfoLevel), events.OrderPlaced)

	assert.NotPanics(t, func() { h.Handle(context.Background(), []byte(`{}`)) })
	assert.Empty(t, store.stored)
}
