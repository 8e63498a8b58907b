// Package kafkabus consumes the hand-off topic and drives order fulfillment.
//
// Delivery semantics are at-least-once: offsets are committed only after a
// message is handled, so a crash between handling and commit causes a
// redelivery, which the fulfillment handler absorbs by checking the stored
// order status. Transient failures are retried in place under a backoff
// policy; when the budget is exhausted the order is marked Failed and the
// message goes to the dead-letter topic.
package kafkabus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"ingestion/internal/core/application/usecases/commands"
	"ingestion/internal/pkg/retry"

	"github.com/segmentio/kafka-go"
)

// orderCreatedEvent mirrors the wire shape published by the ingestion side.
type orderCreatedEvent struct {
	EventID   string `json:"eventId"`
	OrderID   int64  `json:"orderId"`
	RequestID string `json:"requestId"`
}

// Fetcher is the part of kafka.Reader the consumer uses. Fetch and commit
// are split so offsets only advance after handling.
type Fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterWriter publishes messages that exhausted their retry budget or
// cannot be parsed.
type DeadLetterWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FulfillHandler is the command-side surface the consumer drives.
type FulfillHandler interface {
	Handle(ctx context.Context, cmd commands.FulfillOrderCommand) error
	MarkFailed(ctx context.Context, cmd commands.FulfillOrderCommand) error
}

// Consumer reads hand-off events and fulfills the referenced orders.
type Consumer struct {
	reader     Fetcher
	deadLetter DeadLetterWriter
	handler    FulfillHandler
	policy     retry.Policy
	logger     *slog.Logger
}

// NewConsumer creates a consumer joined to the given group. The group id
// spreads partitions across instances; each logical order stays on one
// partition because messages are keyed by request id.
func NewConsumer(
	brokers []string,
	topic, groupID, deadLetterTopic string,
	handler FulfillHandler,
	policy retry.Policy,
	logger *slog.Logger,
) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6,
	})

	deadLetter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  deadLetterTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	return NewConsumerWith(reader, deadLetter, handler, policy, logger)
}

// NewConsumerWith wires a consumer from explicit dependencies.
func NewConsumerWith(
	reader Fetcher,
	deadLetter DeadLetterWriter,
	handler FulfillHandler,
	policy retry.Policy,
	logger *slog.Logger,
) *Consumer {
	return &Consumer{
		reader:     reader,
		deadLetter: deadLetter,
		handler:    handler,
		policy:     policy,
		logger:     logger.With("component", "kafka_consumer"),
	}
}

// Run consumes until the context is canceled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

// Close releases the reader and the dead-letter writer.
func (c *Consumer) Close() error {
	return errors.Join(c.reader.Close(), c.deadLetter.Close())
}

func (c *Consumer) processMessage(ctx context.Context) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Back off before refetching so a dead broker does not turn the
		// run loop into a tight error spin.
		c.logger.ErrorContext(ctx, "failed to fetch message", "error", err)
		c.sleep(ctx, c.policy.MinDelay())
		return
	}

	cmd, err := c.parseCommand(msg)
	if err != nil {
		// Unparsable messages never become valid; park them immediately.
		c.logger.ErrorContext(ctx, "discarding malformed message",
			"partition", msg.Partition, "offset", msg.Offset, "error", err)
		c.parkMessage(ctx, msg, "malformed")
		c.commit(ctx, msg)
		return
	}

	if c.fulfill(ctx, cmd, msg) {
		c.commit(ctx, msg)
	}
}

// fulfill drives the handler under the backoff policy. Returns true when
// the message can be committed: either handled, or exhausted and parked.
func (c *Consumer) fulfill(ctx context.Context, cmd commands.FulfillOrderCommand, msg kafka.Message) bool {
	for attempt := 1; ; attempt++ {
		err := c.handler.Handle(ctx, cmd)
		if err == nil {
			return true
		}

		if c.policy.Exhausted(attempt) {
			c.logger.ErrorContext(ctx, "delivery retry budget exhausted",
				"orderId", cmd.OrderID(), "requestId", cmd.RequestID(),
				"attempts", attempt, "error", err)

			if failErr := c.handler.MarkFailed(ctx, cmd); failErr != nil {
				c.logger.ErrorContext(ctx, "failed to mark order as failed",
					"orderId", cmd.OrderID(), "error", failErr)
			}
			c.parkMessage(ctx, msg, "retry budget exhausted")
			return true
		}

		delay := c.policy.Delay(attempt + 1)
		c.logger.WarnContext(ctx, "delivery attempt failed, backing off",
			"orderId", cmd.OrderID(), "requestId", cmd.RequestID(),
			"attempt", attempt, "delay", delay, "error", err)

		if !c.sleep(ctx, delay) {
			return false
		}
	}
}

func (c *Consumer) parseCommand(msg kafka.Message) (commands.FulfillOrderCommand, error) {
	var event orderCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return commands.FulfillOrderCommand{}, err
	}

	return commands.NewFulfillOrderCommand(event.OrderID, event.RequestID)
}

func (c *Consumer) parkMessage(ctx context.Context, msg kafka.Message, reason string) {
	parked := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers, kafka.Header{
			Key: "dead_letter_reason", Value: []byte(reason),
		}),
	}

	if err := c.deadLetter.WriteMessages(ctx, parked); err != nil {
		c.logger.ErrorContext(ctx, "failed to write to dead letter topic",
			"partition", msg.Partition, "offset", msg.Offset, "error", err)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "failed to commit offset",
			"partition", msg.Partition, "offset", msg.Offset, "error", err)
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
