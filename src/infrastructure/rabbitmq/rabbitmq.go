package rabbitmq

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// RabbitMQService publishes store events to a topic exchange and consumes the
// per-topic queues bound to it.
type RabbitMQService struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	// amqp channels are not safe for concurrent publishing.
	publishMu sync.Mutex
}

// NewRabbitMQService declares the exchange, its dead-letter exchange and one
// durable queue plus DLQ per topic. Queue names equal their routing keys.
func NewRabbitMQService(host, exchange, queueName string, topics []string) (*RabbitMQService, error) {
	conn, err := amqp.Dial(host)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	s := &RabbitMQService{conn: conn, channel: ch, exchange: exchange}
	if err := s.declareTopology(queueName, topics); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *RabbitMQService) declareTopology(queueName string, topics []string) error {
	ch := s.channel
	if err := ch.ExchangeDeclare(s.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare an exchange: %w", err)
	}

	dlxName := s.exchange + ".dlx"
	if err := ch.ExchangeDeclare(dlxName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare a dead-letter exchange: %w", err)
	}

	dlqName := queueName + ".dlq"
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare a dead-letter queue: %w", err)
	}
	if err := ch.QueueBind(dlqName, "", dlxName, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead-letter queue: %w", err)
	}

	// Declare the main queue with dead-lettering enabled
	args := amqp.Table{"x-dead-letter-exchange": dlxName}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare a queue: %w", err)
	}

	for _, topic := range topics {
		if _, err := ch.QueueDeclare(topic, true, false, false, false, args); err != nil {
			return fmt.Errorf("failed to declare event queue %s: %w", topic, err)
		}
		if err := ch.QueueBind(topic, topic, s.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind event queue %s: %w", topic, err)
		}

		topicDLQ := topic + ".dlq"
		if _, err := ch.QueueDeclare(topicDLQ, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare DLQ %s: %w", topicDLQ, err)
		}
		if err := ch.QueueBind(topicDLQ, topicDLQ, s.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind DLQ %s: %w", topicDLQ, err)
		}
	}
	return nil
}

// Publish sends a persistent JSON message to topic on the service's exchange.
func (s *RabbitMQService) Publish(topic string, body []byte) error {
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if body == nil {
		return fmt.Errorf("message body cannot be nil")
	}
	if s.conn.IsClosed() {
		return fmt.Errorf("connection to RabbitMQ is closed")
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	err := s.channel.Publish(
		s.exchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to topic '%s': %w", topic, err)
	}
	return nil
}

func (s *RabbitMQService) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

// Consume starts consuming messages from a queue with manual acks.
func (s *RabbitMQService) Consume(queueName string) (<-chan amqp.Delivery, error) {
	if s.conn.IsClosed() {
		return nil, fmt.Errorf("connection is closed")
	}

	msgs, err := s.channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming queue: %w", err)
	}
	return msgs, nil
}

func (s *RabbitMQService) IsHealthy() bool {
	return s.conn != nil && !s.conn.IsClosed() && s.channel != nil
}
