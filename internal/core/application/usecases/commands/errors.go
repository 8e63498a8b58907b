package commands

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistenceFailed is the sentinel for store failures other than a
	// uniqueness violation. Retrying with the same request id is safe.
	ErrPersistenceFailed = errors.New("order persistence failed")

	// ErrDispatchFailed is the sentinel for the one place where the store and
	// the channel can disagree: the order is persisted but the hand-off event
	// was not confirmed published.
	ErrDispatchFailed = errors.New("order created event dispatch failed")

	// ErrGatewayUnavailable is the sentinel for transient logistics gateway
	// failures, including exceeded deadlines. Eligible for redelivery.
	ErrGatewayUnavailable = errors.New("logistics gateway unavailable")
)

// PersistenceError reports a transient store failure during ingestion.
// The caller may retry with the same request id; the retry is itself
// idempotent.
type PersistenceError struct {
	RequestID string
	Cause     error
}

func NewPersistenceError(requestID string, cause error) *PersistenceError {
	return &PersistenceError{RequestID: requestID, Cause: cause}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: requestId is: %s (cause: %s)", ErrPersistenceFailed, e.RequestID, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return ErrPersistenceFailed
}

// DispatchError reports that persistence succeeded but the event publish
// failed. The persisted record carries everything needed to reconstruct the
// event, so the republish sweep can recover the hand-off out of band.
type DispatchError struct {
	OrderID   int64
	RequestID string
	Cause     error
}

func NewDispatchError(orderID int64, requestID string, cause error) *DispatchError {
	return &DispatchError{OrderID: orderID, RequestID: requestID, Cause: cause}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: orderId is: %d, requestId is: %s (cause: %s)",
		ErrDispatchFailed, e.OrderID, e.RequestID, e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return ErrDispatchFailed
}

// GatewayError reports a transient logistics notification failure.
// The delivery layer retries it under the backoff policy; only after the
// retry budget is exhausted does the order move to Failed.
type GatewayError struct {
	OrderID   int64
	RequestID string
	Cause     error
}

func NewGatewayError(orderID int64, requestID string, cause error) *GatewayError {
	return &GatewayError{OrderID: orderID, RequestID: requestID, Cause: cause}
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: orderId is: %d, requestId is: %s (cause: %s)",
		ErrGatewayUnavailable, e.OrderID, e.RequestID, e.Cause)
}

func (e *GatewayError) Unwrap() error {
	return ErrGatewayUnavailable
}
