// Package kafkabus carries the hand-off between ingestion and fulfillment
// over Kafka. The outbound side publishes the order-created event; the
// inbound side consumes it with at-least-once semantics.
package kafkabus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ingestion/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const eventTypeOrderCreated = "order.created"

// OrderCreatedMessage is the wire shape of the hand-off event.
// Amounts travel as fixed-point strings so the consumer never sees float
// rounding.
type OrderCreatedMessage struct {
	EventID     string    `json:"eventId"`
	OrderID     int64     `json:"orderId"`
	RequestID   string    `json:"requestId"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"totalAmount"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes order-created events to the hand-off topic.
// Messages are keyed by request id, so redeliveries and republishes of one
// logical order stay on one partition and arrive in order.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return &Publisher{
		writer: writer,
		logger: logger.With("component", "kafka_publisher"),
	}
}

// PublishOrderCreated publishes one hand-off event and waits for broker
// acknowledgement. An error means the event may not be on the topic and the
// order must stay Pending.
func (p *Publisher) PublishOrderCreated(ctx context.Context, event order.CreatedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(OrderCreatedMessage{
		EventID:     uuid.NewString(),
		OrderID:     event.OrderID(),
		RequestID:   event.RequestID(),
		Status:      event.Status().String(),
		TotalAmount: event.TotalAmount().String(),
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.RequestID()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventTypeOrderCreated)},
		},
	}

	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "order created event published",
		"orderId", event.OrderID(), "requestId", event.RequestID())
	return nil
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
