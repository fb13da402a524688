package infrastructure

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAcker struct {
	mu   sync.Mutex
	acks int
}

func (a *countingAcker) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}
func (a *countingAcker) Nack(uint64, bool, bool) error { return nil }
func (a *countingAcker) Reject(uint64, bool) error     { return nil }

type fakeConsumer struct {
	mu       sync.Mutex
	attempts int
	failures int
	queues   map[string]chan amqp.Delivery
}

func (f *fakeConsumer) Consume(queue string) (<-chan amqp.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("channel closed")
	}
	return f.queues[queue], nil
}

type collectingHandler struct {
	got chan string
}

func (h *collectingHandler) Handle(_ context.Context, body []byte) {
	h.got <- string(body)
}

func TestListenerDeliversAndAcks(t *testing.T) {
	deliveries := make(chan amqp.Delivery, 2)
	acker := &countingAcker{}
	deliveries <- amqp.Delivery{Acknowledger: acker, Body: []byte("one")}
	deliveries <- amqp.Delivery{Acknowledger: acker, Body: []byte("two")}

	consumer := &fakeConsumer{failures: 1, queues: map[string]chan amqp.Delivery{"order.placed": deliveries}}
	listener := NewEventListener(consumer, log.NewLoggerWithOutput(io.Discard, log.InfoLevel))
	listener.retryDelay = time.Millisecond
	handler := &collectingHandler{got: make(chan string, 2)}
	listener.RegisterHandler("order.placed", handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = listener.StartListening(ctx)
		close(done)
	}()

	var bodies []string
	for i := 0; i < 2; i++ {
		select {
		case b := <-handler.got:
			bodies = append(bodies, b)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
	cancel()
	<-done

	assert.Equal(t, []string{"one", "two"}, bodies)
	acker.mu.Lock()
	defer acker.mu.Unlock()
	assert.Equal(t, 2, acker.acks)
	require.Equal(t, 2, consumer.attempts)
}

func TestListenerStopsOnCancelWhileRetrying(t *testing.T) {
	consumer := &fakeConsumer{failures: 100}
	listener := NewEventListener(consumer, log.NewLoggerWithOutput(io.Discard, log.InfoLevel))
	listener.retryDelay = time.Hour
	listener.RegisterHandler("order.placed", &collectingHandler{got: make(chan string, 1)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = listener.StartListening(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}
