// Package order contains the order aggregate and its value objects.
//
// The aggregate root Order owns the customer, the ordered lines and the
// derived total amount as one consistency unit. The caller-supplied request
// id is the aggregate's logical identity and the single source of truth for
// idempotent ingestion; the numeric id is assigned by the store on first
// persistence.
//
// Status models the monotonic lifecycle Pending -> Processing -> Fulfilled or
// Failed. CreatedEvent is the hand-off message published once an order is
// persisted.
package order
