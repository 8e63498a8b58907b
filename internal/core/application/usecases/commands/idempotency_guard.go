package commands

import (
	"context"

	"ingestion/internal/core/domain/model/order"
	"ingestion/internal/core/ports"
)

// IdempotencyGuard turns "check, then insert" into a race-safe primitive
// without a distributed lock. The authoritative uniqueness constraint lives
// in the store (a unique index on the request id); the guard provides the
// cheap read path for true duplicates, and the re-resolve path for inserts
// that lost a concurrent race. Losing the race is not an error; it is the
// intended idempotent outcome.
type IdempotencyGuard struct {
	orders ports.OrderRepository
}

// NewIdempotencyGuard creates a guard over the given repository.
func NewIdempotencyGuard(orders ports.OrderRepository) IdempotencyGuard {
	return IdempotencyGuard{orders: orders}
}

// Resolve looks up a prior order by its idempotency key.
// Returns (nil, nil) when the request id has not been seen before.
func (g IdempotencyGuard) Resolve(ctx context.Context, requestID string) (*order.Order, error) {
	return g.orders.FindByRequestID(ctx, requestID)
}
