package order

import (
	"errors"
	"fmt"
	"time"

	"ingestion/internal/core/domain/model/kernel"
	"ingestion/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder or RestoreOrder factory methods. This ensures all orders are properly validated.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrOrderIDAlreadyAssigned is returned when AssignID is called on an order
	// that already carries a store-assigned identifier.
	ErrOrderIDAlreadyAssigned = errors.New("order ID is already assigned")
)

// Order is the aggregate root for an ingested order: the customer, the
// ordered lines and the derived total, treated as one consistency unit.
//
// Order maintains these invariants:
//   - requestID (the idempotency key) is non-empty and never changes
//   - the line list is non-empty and every line is validated
//   - totalAmount always equals the sum of line totals; it is recomputed at
//     construction and never independently settable
//   - status transitions follow the monotonic state machine in Status
//   - the store-assigned id is set at most once, by the repository
//
// The struct uses private fields to ensure encapsulation; construct with
// NewOrder, rebuild persisted orders with RestoreOrder.
type Order struct {
	// id is the store-assigned identifier; zero before first persistence
	id int64

	// requestID is the caller-supplied idempotency key, unique across orders
	requestID string

	customer Customer
	lines    []Line

	// totalAmount is derived from the lines, never set directly
	totalAmount kernel.Money

	status   Status
	platform string

	orderDate time.Time
	createdAt time.Time
	updatedAt time.Time

	// isConstructed ensures the order was created via a factory method
	isConstructed bool
}

// NewOrder creates a new Order in Pending status with the total recomputed
// from the lines. The store id is left unassigned until first persistence.
//
// Fails when the request id is empty, the customer or any line is not
// properly constructed, or the line list is empty.
func NewOrder(requestID string, customer Customer, lines []Line, platform string) (*Order, error) {
	now := time.Now().UTC()
	o := &Order{
		status:        Pending,
		platform:      platform,
		orderDate:     now,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setRequestID(requestID),
		o.setCustomer(customer),
		o.setLines(lines),
	); err != nil {
		return nil, err
	}

	o.totalAmount = sumLineTotals(o.lines)
	return o, nil
}

// RestoreOrder rebuilds an Order from persistence. It applies the same
// invariants as NewOrder and additionally verifies that the stored total
// matches the recomputed sum of line totals, so schema drift cannot silently
// change the total invariant.
func RestoreOrder(
	id int64,
	requestID string,
	customer Customer,
	lines []Line,
	totalAmount kernel.Money,
	status Status,
	platform string,
	orderDate, createdAt, updatedAt time.Time,
) (*Order, error) {
	o := &Order{
		platform:      platform,
		orderDate:     orderDate,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setRequestID(requestID),
		o.setCustomer(customer),
		o.setLines(lines),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	if id <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"id is invalid",
			fmt.Errorf("%d is not a valid store-assigned id", id),
		)
	}

	recomputed := sumLineTotals(o.lines)
	if !totalAmount.IsEqual(recomputed) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"totalAmount is invalid",
			fmt.Errorf("stored total %s does not match line totals %s", totalAmount, recomputed),
		)
	}

	o.id = id
	o.status = status
	o.totalAmount = totalAmount
	return o, nil
}

// Validate ensures the Order instance was properly constructed through a
// factory method. This prevents bypassing validation by directly
// instantiating the struct.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their idempotency key.
// The requestID is the identity of the logical request, so two orders are
// the same order exactly when their request ids match.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.requestID == other.requestID
}

// ID returns the store-assigned identifier, zero before first persistence.
func (o *Order) ID() int64 {
	return o.id
}

// IsPersisted reports whether the store has assigned an identifier.
func (o *Order) IsPersisted() bool {
	return o.id > 0
}

// RequestID returns the caller-supplied idempotency key.
func (o *Order) RequestID() string {
	return o.requestID
}

// Customer returns the customer attached to the order.
func (o *Order) Customer() Customer {
	return o.customer
}

// Lines returns the ordered sequence of order lines.
func (o *Order) Lines() []Line {
	return o.lines
}

// TotalAmount returns the derived order total.
func (o *Order) TotalAmount() kernel.Money {
	return o.totalAmount
}

// Status returns the current lifecycle state.
func (o *Order) Status() Status {
	return o.status
}

// Platform returns the free-form origin tag, empty when not provided.
func (o *Order) Platform() string {
	return o.platform
}

// OrderDate returns the business timestamp of the order.
func (o *Order) OrderDate() time.Time {
	return o.orderDate
}

// CreatedAt returns the creation timestamp.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns the last status transition timestamp.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// AssignID records the store-assigned identifier after first persistence.
// The id can be assigned at most once; after that ownership of the identity
// belongs to the store.
func (o *Order) AssignID(id int64) error {
	if o.id != 0 {
		return ErrOrderIDAlreadyAssigned
	}
	if id <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"id is invalid",
			fmt.Errorf("%d is not a valid store-assigned id", id),
		)
	}
	o.id = id
	return nil
}

// StartProcessing marks the hand-off event as published.
// Valid only from Pending.
func (o *Order) StartProcessing() error {
	newStatus, err := o.status.StartProcessing()
	if err != nil {
		return err
	}
	o.transition(newStatus)
	return nil
}

// Fulfill marks the order as accepted by logistics.
// Valid only from Processing; Fulfilled is terminal.
func (o *Order) Fulfill() error {
	newStatus, err := o.status.Fulfill()
	if err != nil {
		return err
	}
	o.transition(newStatus)
	return nil
}

// Fail marks the order as undeliverable after the retry budget is spent.
// Valid only from Processing; Failed is terminal.
func (o *Order) Fail() error {
	newStatus, err := o.status.Fail()
	if err != nil {
		return err
	}
	o.transition(newStatus)
	return nil
}

func (o *Order) transition(newStatus Status) {
	o.status = newStatus
	o.updatedAt = time.Now().UTC()
}

func (o *Order) setRequestID(requestID string) error {
	if requestID == "" {
		return errs.NewValueIsRequiredError("requestId")
	}
	o.requestID = requestID
	return nil
}

func (o *Order) setCustomer(customer Customer) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	o.customer = customer
	return nil
}

func (o *Order) setLines(lines []Line) error {
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return err
		}
	}
	o.lines = lines
	return nil
}

func sumLineTotals(lines []Line) kernel.Money {
	total := kernel.ZeroMoney()
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return total
}
