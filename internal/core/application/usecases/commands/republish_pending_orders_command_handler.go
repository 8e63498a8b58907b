package commands

import (
	"context"
	"log/slog"
	"time"

	"ingestion/internal/core/domain/model/order"
	"ingestion/internal/core/ports"
)

// RepublishPendingOrdersCommandHandler recovers orders whose hand-off
// publish was lost. An order left Pending past the cutoff gets its event
// re-published and is moved to Processing. Re-publishing an event that did
// reach the topic is harmless: the consumer dedupes on the stored status.
type RepublishPendingOrdersCommandHandler struct {
	orders    ports.OrderRepository
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewRepublishPendingOrdersCommandHandler creates a handler for the
// republish sweep.
func NewRepublishPendingOrdersCommandHandler(
	orders ports.OrderRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) RepublishPendingOrdersCommandHandler {
	return RepublishPendingOrdersCommandHandler{
		orders:    orders,
		publisher: publisher,
		logger:    logger.With("component", "republish_handler"),
	}
}

// Handle runs one sweep. Per-order failures are logged and skipped so one
// broken order cannot stall the rest; the next sweep retries them.
func (h *RepublishPendingOrdersCommandHandler) Handle(ctx context.Context, cmd RepublishPendingOrdersCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	cutoff := time.Now().Add(-cmd.StaleAfter())
	stale, err := h.orders.FindStalePending(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, aggregate := range stale {
		h.republish(ctx, aggregate)
	}

	return nil
}

func (h *RepublishPendingOrdersCommandHandler) republish(ctx context.Context, aggregate *order.Order) {
	event, err := order.NewCreatedEvent(aggregate)
	if err != nil {
		h.logger.ErrorContext(ctx, "cannot rebuild event for stale order",
			"orderId", aggregate.ID(), "error", err)
		return
	}

	if err = h.publisher.PublishOrderCreated(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "republish failed, order stays pending",
			"orderId", aggregate.ID(), "requestId", aggregate.RequestID(), "error", err)
		return
	}

	ok, err := h.orders.TransitionStatus(ctx, aggregate.ID(), order.Pending, order.Processing)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to mark republished order as processing",
			"orderId", aggregate.ID(), "error", err)
		return
	}
	if !ok {
		// Another instance got there first; nothing to do.
		return
	}

	h.logger.InfoContext(ctx, "stale pending order republished",
		"orderId", aggregate.ID(), "requestId", aggregate.RequestID())
}
