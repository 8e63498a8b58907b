package commands

import (
	"errors"

	"ingestion/internal/pkg/errs"
	"ingestion/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrIngestOrderCommandIsNotConstructed = errors.New(
		"IngestOrderCommand must be created via NewIngestOrderCommand constructor",
	)
)

// CustomerInput carries the raw customer fields of an ingestion request.
// Field-level validation happens at the boundary and again in the domain
// constructors; the command only transports the values.
type CustomerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// LineInput carries one raw order line of an ingestion request.
type LineInput struct {
	ProductSku  string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// IngestOrderCommand represents a request to ingest one logical order.
// The request id is the caller-supplied idempotency key: submitting the same
// command twice produces exactly one persisted order.
//
// Example:
//
//	cmd, err := NewIngestOrderCommand("R1", customer, items, "web")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	result, err := handler.Handle(ctx, cmd)
type IngestOrderCommand struct { //nolint:recvcheck //using for validation
	requestID string
	customer  CustomerInput
	items     []LineInput
	platform  string

	guard guard.ConstructorGuard
}

// NewIngestOrderCommand creates a command to ingest a new order.
// Validates that the request id is present and the item list is non-empty;
// everything else is enforced by the domain when the aggregate is built.
func NewIngestOrderCommand(
	requestID string,
	customer CustomerInput,
	items []LineInput,
	platform string,
) (IngestOrderCommand, error) {
	cmd := IngestOrderCommand{
		customer: customer,
		platform: platform,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setRequestID(requestID),
		cmd.setItems(items),
	); err != nil {
		return IngestOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c IngestOrderCommand) Validate() error {
	return c.guard.Validate(ErrIngestOrderCommandIsNotConstructed)
}

// RequestID returns the caller-supplied idempotency key.
func (c IngestOrderCommand) RequestID() string {
	return c.requestID
}

// Customer returns the raw customer input.
func (c IngestOrderCommand) Customer() CustomerInput {
	return c.customer
}

// Items returns the raw order lines.
func (c IngestOrderCommand) Items() []LineInput {
	return c.items
}

// Platform returns the free-form origin tag.
func (c IngestOrderCommand) Platform() string {
	return c.platform
}

func (c *IngestOrderCommand) setRequestID(requestID string) error {
	if requestID == "" {
		return errs.NewValueIsRequiredError("requestId")
	}
	c.requestID = requestID
	return nil
}

func (c *IngestOrderCommand) setItems(items []LineInput) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	c.items = items
	return nil
}
