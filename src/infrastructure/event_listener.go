package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/streadway/amqp"
)

// Consumer is the part of the broker client the listener needs.
type Consumer interface {
	Consume(queueName string) (<-chan amqp.Delivery, error)
}

type EventListener struct {
	consumer   Consumer
	logger     log.Logger
	handlers   map[string]EventHandler
	retryDelay time.Duration
}

type EventHandler interface {
	Handle(ctx context.Context, msgBody []byte)
}

func NewEventListener(consumer Consumer, logger log.Logger) *EventListener {
	return &EventListener{
		consumer:   consumer,
		logger:     logger,
		handlers:   make(map[string]EventHandler),
		retryDelay: 2 * time.Second,
	}
}

// RegisterHandler registers an event handler for a queue
func (el *EventListener) RegisterHandler(queueName string, handler EventHandler) {
	el.handlers[queueName] = handler
}

// StartListening consumes every registered queue until ctx is cancelled.
func (el *EventListener) StartListening(ctx context.Context) error {
	var wg sync.WaitGroup

	for queueName, handler := range el.handlers {
		wg.Add(1)
		go func(queue string, h EventHandler) {
			defer wg.Done()
			el.listenToQueue(ctx, queue, h)
		}(queueName, handler)
	}

	wg.Wait()
	return nil
}

// listenToQueue consumes one queue, reconnecting with exponential backoff when
// the delivery channel closes.
func (el *EventListener) listenToQueue(ctx context.Context, queueName string, handler EventHandler) {
	const maxRetries = 5
	retryDelay := el.retryDelay

	el.logger.Info(ctx, "Starting to listen for events on queue: "+queueName)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		msgs, err := el.consumer.Consume(queueName)
		if err != nil {
			el.logger.Exception(ctx, fmt.Sprintf("Failed to start consuming queue: %s (attempt %d/%d)", queueName, attempt, maxRetries), err)
			if attempt == maxRetries {
				el.logger.Exception(ctx, "Max retries reached for queue: "+queueName+", giving up", err)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
			continue
		}

		el.logger.Info(ctx, "Successfully started consuming queue: "+queueName)
		if done := el.drain(ctx, queueName, msgs, handler); done {
			return
		}
		el.logger.Warn(ctx, "Message channel closed for queue: "+queueName+", attempting to reconnect...")
	}
}

// drain handles deliveries until ctx ends (true) or the channel closes (false).
func (el *EventListener) drain(ctx context.Context, queueName string, msgs <-chan amqp.Delivery, handler EventHandler) bool {
	for {
		select {
		case <-ctx.Done():
			el.logger.Info(ctx, "Stopping event listener for queue: "+queueName)
			return true
		case msg, ok := <-msgs:
			if !ok {
				return false
			}
			handler.Handle(ctx, msg.Body)
			if err := msg.Ack(false); err != nil {
				el.logger.Warn(ctx, fmt.Sprintf("Failed to ack message on %s: %v", queueName, err))
			}
		}
	}
}
