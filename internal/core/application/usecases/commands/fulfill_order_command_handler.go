package commands

import (
	"context"
	"errors"
	"log/slog"

	"ingestion/internal/core/domain/model/order"
	"ingestion/internal/core/ports"
)

// errTransitionLost marks a compare-and-set that found the order in an
// unexpected non-terminal status; the delivery is retried.
var errTransitionLost = errors.New("status transition lost to a concurrent update")

// FulfillOrderCommandHandler runs the consumer-side business sequence for one
// delivery: dedupe against the stored status, notify the logistics gateway,
// and record the outcome with an atomic status transition.
//
// Deliveries for the same order may run concurrently during redelivery
// windows, so the terminal-state check and the transition to Fulfilled are
// never a read-then-write pair: the store's compare-and-set decides which
// delivery wins, and the loser acknowledges without a second gateway call.
type FulfillOrderCommandHandler struct {
	orders  ports.OrderRepository
	gateway ports.LogisticsGateway
	logger  *slog.Logger
}

// NewFulfillOrderCommandHandler creates a handler for hand-off deliveries.
func NewFulfillOrderCommandHandler(
	orders ports.OrderRepository,
	gateway ports.LogisticsGateway,
	logger *slog.Logger,
) FulfillOrderCommandHandler {
	return FulfillOrderCommandHandler{
		orders:  orders,
		gateway: gateway,
		logger:  logger.With("component", "fulfill_order_handler"),
	}
}

// Handle processes one delivery of the hand-off event.
//
// Returns nil when the delivery can be acknowledged: either the gateway was
// notified and the order is Fulfilled, or the order had already reached a
// terminal state and the gateway was not called again. Returns
// *GatewayError for transient failures eligible for redelivery, and
// *PersistenceError for store failures (also redelivered).
func (h *FulfillOrderCommandHandler) Handle(ctx context.Context, cmd FulfillOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	aggregate, err := h.orders.Get(ctx, cmd.OrderID())
	if err != nil {
		return NewPersistenceError(cmd.RequestID(), err)
	}

	// Redelivery dedupe: a terminal order is acknowledged without touching
	// the gateway again.
	if aggregate.Status().IsTerminal() {
		h.logger.InfoContext(ctx, "order already in terminal state, acknowledging redelivery",
			"orderId", cmd.OrderID(), "status", aggregate.Status().String())
		return nil
	}

	// The delivery itself proves the event was published; an order still
	// Pending (publish confirmation was lost) moves to Processing first.
	if aggregate.Status() == order.Pending {
		if _, casErr := h.orders.TransitionStatus(ctx, cmd.OrderID(), order.Pending, order.Processing); casErr != nil {
			return NewPersistenceError(cmd.RequestID(), casErr)
		}
	}

	if err = h.gateway.Notify(ctx, cmd.OrderID(), cmd.RequestID()); err != nil {
		return NewGatewayError(cmd.OrderID(), cmd.RequestID(), err)
	}

	ok, err := h.orders.TransitionStatus(ctx, cmd.OrderID(), order.Processing, order.Fulfilled)
	if err != nil {
		return NewPersistenceError(cmd.RequestID(), err)
	}
	if !ok {
		// Lost the CAS. If a concurrent delivery already finished the order,
		// acknowledge; anything else is retried.
		return h.acknowledgeIfTerminal(ctx, cmd)
	}

	h.logger.InfoContext(ctx, "order fulfilled",
		"orderId", cmd.OrderID(), "requestId", cmd.RequestID())
	return nil
}

// MarkFailed moves an order to the terminal Failed state after the delivery
// retry budget is exhausted. Orders already terminal are left untouched.
func (h *FulfillOrderCommandHandler) MarkFailed(ctx context.Context, cmd FulfillOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	aggregate, err := h.orders.Get(ctx, cmd.OrderID())
	if err != nil {
		return NewPersistenceError(cmd.RequestID(), err)
	}
	if aggregate.Status().IsTerminal() {
		return nil
	}

	if aggregate.Status() == order.Pending {
		if _, casErr := h.orders.TransitionStatus(ctx, cmd.OrderID(), order.Pending, order.Processing); casErr != nil {
			return NewPersistenceError(cmd.RequestID(), casErr)
		}
	}

	ok, err := h.orders.TransitionStatus(ctx, cmd.OrderID(), order.Processing, order.Failed)
	if err != nil {
		return NewPersistenceError(cmd.RequestID(), err)
	}
	if !ok {
		return h.acknowledgeIfTerminal(ctx, cmd)
	}

	h.logger.ErrorContext(ctx, "order marked as failed after retry budget exhausted",
		"orderId", cmd.OrderID(), "requestId", cmd.RequestID())
	return nil
}

func (h *FulfillOrderCommandHandler) acknowledgeIfTerminal(ctx context.Context, cmd FulfillOrderCommand) error {
	current, err := h.orders.Get(ctx, cmd.OrderID())
	if err != nil {
		return NewPersistenceError(cmd.RequestID(), err)
	}
	if current.Status().IsTerminal() {
		return nil
	}
	return NewGatewayError(cmd.OrderID(), cmd.RequestID(), errTransitionLost)
}
