package order

import (
	"fmt"

	"ingestion/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements a monotonic state machine: once an order reaches a terminal
// state it never leaves it.
//
// State transitions:
//
//	Pending ──> Processing ──> Fulfilled
//	                 │
//	                 └───────> Failed
//
// Pending becomes Processing when the hand-off event is published.
// Processing becomes Fulfilled on a successful logistics notification, or
// Failed once the delivery retry budget is exhausted.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status of a freshly persisted order.
	// The hand-off event for a Pending order has not been confirmed published.
	Pending

	// Processing indicates the hand-off event has been published and the
	// order awaits the fulfillment outcome.
	Processing

	// Fulfilled indicates the logistics gateway accepted the order.
	// This is a terminal state.
	Fulfilled

	// Failed indicates the delivery retry budget was exhausted.
	// This is a terminal state.
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "Unknown",
		Pending:    "Pending",
		Processing: "Processing",
		Fulfilled:  "Fulfilled",
		Failed:     "Failed",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:    "Pending",
		Processing: "Processing",
		Fulfilled:  "Fulfilled",
		Failed:     "Failed",
	}
}

// StatusFromString parses a stored status name back into a Status.
// Only valid statuses parse; anything else returns an error.
func StatusFromString(value string) (Status, error) {
	for status, str := range getValidStatusStrings() {
		if str == value {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%q is not a valid status", value),
	)
}

// Validate checks if the Status value is valid.
// Valid statuses are Pending, Processing, Fulfilled and Failed.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status.
// It implements fmt.Stringer and is safe to call on any Status value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether the status is final.
// Fulfilled and Failed have no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == Fulfilled || s == Failed
}

// StartProcessing transitions the status to Processing.
//
// Valid transitions:
//   - Pending -> Processing (hand-off event published)
//
// Returns an error for any other starting state.
func (s Status) StartProcessing() (Status, error) {
	if s != Pending {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to start processing", s.String()),
		)
	}
	return Processing, nil
}

// Fulfill transitions the status to Fulfilled.
//
// Valid transitions:
//   - Processing -> Fulfilled (logistics notification succeeded)
//
// Returns an error for any other starting state; terminal states in
// particular cannot transition again.
func (s Status) Fulfill() (Status, error) {
	if s != Processing {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to fulfill", s.String()),
		)
	}
	return Fulfilled, nil
}

// Fail transitions the status to Failed.
//
// Valid transitions:
//   - Processing -> Failed (delivery retry budget exhausted)
//
// Returns an error for any other starting state.
func (s Status) Fail() (Status, error) {
	if s != Processing {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to fail", s.String()),
		)
	}
	return Failed, nil
}
