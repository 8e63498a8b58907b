package order

import (
	"errors"

	"ingestion/internal/core/domain/model/kernel"
	"ingestion/internal/pkg/guard"
)

// ErrCreatedEventIsNotConstructed is returned when a CreatedEvent was not
// created through the NewCreatedEvent constructor.
var ErrCreatedEventIsNotConstructed = errors.New("CreatedEvent must be created via NewCreatedEvent constructor")

// CreatedEvent is the hand-off event published after an order is persisted.
// It carries everything the fulfillment side needs, so a lost publish can be
// reconstructed from the persisted record alone.
type CreatedEvent struct {
	orderID     int64
	requestID   string
	status      Status
	totalAmount kernel.Money

	guard guard.ConstructorGuard
}

// NewCreatedEvent builds the hand-off event from a persisted order.
// Fails if the order is invalid or has no store-assigned id yet.
func NewCreatedEvent(o *Order) (CreatedEvent, error) {
	if err := o.Validate(); err != nil {
		return CreatedEvent{}, err
	}
	if !o.IsPersisted() {
		return CreatedEvent{}, ErrOrderIsNotConstructed
	}

	return CreatedEvent{
		orderID:     o.ID(),
		requestID:   o.RequestID(),
		status:      o.Status(),
		totalAmount: o.TotalAmount(),
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the event was created through NewCreatedEvent.
func (e CreatedEvent) Validate() error {
	return e.guard.Validate(ErrCreatedEventIsNotConstructed)
}

// OrderID returns the store-assigned order identifier.
func (e CreatedEvent) OrderID() int64 {
	return e.orderID
}

// RequestID returns the idempotency key of the originating request.
func (e CreatedEvent) RequestID() string {
	return e.requestID
}

// Status returns the order status at publish time.
func (e CreatedEvent) Status() Status {
	return e.status
}

// TotalAmount returns the derived order total.
func (e CreatedEvent) TotalAmount() kernel.Money {
	return e.totalAmount
}
