package commands

import (
	"errors"
	"fmt"

	"ingestion/internal/pkg/errs"
	"ingestion/internal/pkg/guard"
)

var (
	ErrFulfillOrderCommandIsNotConstructed = errors.New(
		"FulfillOrderCommand must be created via NewFulfillOrderCommand constructor",
	)
)

// FulfillOrderCommand represents one delivery of the hand-off event to the
// fulfillment side. Deliveries may repeat; the handler is idempotent.
type FulfillOrderCommand struct { //nolint:recvcheck //using for validation
	orderID   int64
	requestID string

	guard guard.ConstructorGuard
}

// NewFulfillOrderCommand creates a command from a delivered hand-off event.
func NewFulfillOrderCommand(orderID int64, requestID string) (FulfillOrderCommand, error) {
	cmd := FulfillOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setRequestID(requestID),
	); err != nil {
		return FulfillOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c FulfillOrderCommand) Validate() error {
	return c.guard.Validate(ErrFulfillOrderCommandIsNotConstructed)
}

// OrderID returns the store-assigned order identifier.
func (c FulfillOrderCommand) OrderID() int64 {
	return c.orderID
}

// RequestID returns the idempotency key of the originating request.
func (c FulfillOrderCommand) RequestID() string {
	return c.requestID
}

func (c *FulfillOrderCommand) setOrderID(orderID int64) error {
	if orderID <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"orderId is invalid",
			fmt.Errorf("%d is not a valid order id", orderID),
		)
	}
	c.orderID = orderID
	return nil
}

func (c *FulfillOrderCommand) setRequestID(requestID string) error {
	if requestID == "" {
		return errs.NewValueIsRequiredError("requestId")
	}
	c.requestID = requestID
	return nil
}
