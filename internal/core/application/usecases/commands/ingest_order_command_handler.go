package commands

import (
	"context"
	"errors"
	"log/slog"

	"ingestion/internal/core/domain/model/kernel"
	"ingestion/internal/core/domain/model/order"
	"ingestion/internal/core/ports"
)

// IngestResult is the outcome of a successful ingestion.
// Replayed distinguishes "accepted" from "already accepted": a replayed
// request carries the original order and never re-publishes the hand-off
// event.
type IngestResult struct {
	Order    *order.Order
	Replayed bool
}

// IngestOrderCommandHandler runs the idempotent ingestion sequence:
// resolve the idempotency key, build the aggregate, persist it in a unit of
// work, publish the hand-off event, and move the order to Processing.
//
// Concurrent submissions of the same request id converge on one stored
// order; the store's unique constraint is the only synchronization
// primitive, so no in-process locking is needed and the behavior holds
// across instances.
type IngestOrderCommandHandler struct {
	guard      IdempotencyGuard
	uowFactory OrderUoWFactory
	orders     ports.OrderRepository
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

// NewIngestOrderCommandHandler creates a handler for order ingestion.
// The repository is the non-transactional read side used for idempotency
// resolution and the post-publish status transition; inserts go through the
// unit of work.
func NewIngestOrderCommandHandler(
	guard IdempotencyGuard,
	uowFactory OrderUoWFactory,
	orders ports.OrderRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) IngestOrderCommandHandler {
	return IngestOrderCommandHandler{
		guard:      guard,
		uowFactory: uowFactory,
		orders:     orders,
		publisher:  publisher,
		logger:     logger.With("component", "ingest_order_handler"),
	}
}

// Handle processes one ingestion command.
//
// Outcomes:
//   - (IngestResult{Replayed: false}, nil): order persisted and event published
//   - (IngestResult{Replayed: true}, nil): request id already processed;
//     the original order is returned and no event is re-published
//   - domain validation error: invalid aggregate, nothing persisted
//   - *PersistenceError: transient store failure, safe to retry
//   - *DispatchError: persisted but publish failed; recoverable by the
//     republish sweep
func (h *IngestOrderCommandHandler) Handle(ctx context.Context, cmd IngestOrderCommand) (IngestResult, error) {
	if err := cmd.Validate(); err != nil {
		return IngestResult{}, err
	}

	// Fast path for true duplicates.
	existing, err := h.guard.Resolve(ctx, cmd.RequestID())
	if err != nil {
		return IngestResult{}, NewPersistenceError(cmd.RequestID(), err)
	}
	if existing != nil {
		return IngestResult{Order: existing, Replayed: true}, nil
	}

	aggregate, err := buildAggregate(cmd)
	if err != nil {
		return IngestResult{}, err
	}

	replay, err := h.persist(ctx, cmd.RequestID(), aggregate)
	if err != nil {
		return IngestResult{}, err
	}
	if replay != nil {
		return IngestResult{Order: replay, Replayed: true}, nil
	}

	event, err := order.NewCreatedEvent(aggregate)
	if err != nil {
		return IngestResult{}, NewPersistenceError(cmd.RequestID(), err)
	}

	if err = h.publisher.PublishOrderCreated(ctx, event); err != nil {
		return IngestResult{}, NewDispatchError(aggregate.ID(), aggregate.RequestID(), err)
	}

	// Publish confirmed the hand-off; move Pending to Processing in the
	// store. A lost or failed transition leaves the order Pending, where the
	// republish sweep picks it up and the consumer's dedupe absorbs the
	// extra delivery. The returned aggregate keeps the status at acceptance
	// time, which is Pending.
	if _, casErr := h.orders.TransitionStatus(ctx, aggregate.ID(), order.Pending, order.Processing); casErr != nil {
		h.logger.WarnContext(ctx, "failed to mark order as processing after publish",
			"orderId", aggregate.ID(), "requestId", aggregate.RequestID(), "error", casErr)
	}

	return IngestResult{Order: aggregate, Replayed: false}, nil
}

// persist inserts the aggregate inside a unit of work. A uniqueness
// violation means a concurrent submission won the race; the winner's order
// is re-resolved and returned instead of an error.
func (h *IngestOrderCommandHandler) persist(
	ctx context.Context,
	requestID string,
	aggregate *order.Order,
) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, NewPersistenceError(requestID, err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Add(ctx, aggregate); err != nil {
		if errors.Is(err, ports.ErrDuplicateRequestID) {
			return h.resolveRaceWinner(ctx, requestID, err)
		}
		return nil, NewPersistenceError(requestID, err)
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, NewPersistenceError(requestID, err)
	}

	return nil, nil
}

func (h *IngestOrderCommandHandler) resolveRaceWinner(
	ctx context.Context,
	requestID string,
	cause error,
) (*order.Order, error) {
	winner, err := h.guard.Resolve(ctx, requestID)
	if err != nil {
		return nil, NewPersistenceError(requestID, err)
	}
	if winner == nil {
		// The constraint fired but the winner is not visible yet; the caller
		// can retry safely with the same request id.
		return nil, NewPersistenceError(requestID, cause)
	}
	return winner, nil
}

func buildAggregate(cmd IngestOrderCommand) (*order.Order, error) {
	customer, err := order.NewCustomer(
		cmd.Customer().Email,
		cmd.Customer().FirstName,
		cmd.Customer().LastName,
		cmd.Customer().Phone,
	)
	if err != nil {
		return nil, err
	}

	lines := make([]order.Line, 0, len(cmd.Items()))
	for _, item := range cmd.Items() {
		unitPrice, priceErr := kernel.NewMoney(item.UnitPrice)
		if priceErr != nil {
			return nil, priceErr
		}

		line, lineErr := order.NewLine(item.ProductSku, item.ProductName, item.Quantity, unitPrice)
		if lineErr != nil {
			return nil, lineErr
		}
		lines = append(lines, line)
	}

	return order.NewOrder(cmd.RequestID(), customer, lines, cmd.Platform())
}
