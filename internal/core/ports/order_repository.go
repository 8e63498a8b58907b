package ports

import (
	"context"
	"errors"
	"time"

	"ingestion/internal/core/domain/model/order"
)

// ErrDuplicateRequestID is returned by Add when the store's unique constraint
// on the request id rejects an insert. Losing this race is not a failure for
// the caller; it resolves the duplicate by re-reading the winner's order.
var ErrDuplicateRequestID = errors.New("request ID already exists")

// OrderRepository defines the persistence contract for order aggregates.
// The authoritative uniqueness constraint on the request id lives here; it is
// the only cross-instance synchronization primitive the ingestion path needs.
type OrderRepository interface {
	// Add persists a new order aggregate and assigns the store-generated id
	// back to the aggregate. Returns ErrDuplicateRequestID when the unique
	// constraint on the request id rejects the insert.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate with its lines by store id.
	Get(ctx context.Context, id int64) (*order.Order, error)

	// FindByRequestID retrieves an order by its idempotency key.
	// Returns (nil, nil) when no order exists for the key.
	FindByRequestID(ctx context.Context, requestID string) (*order.Order, error)

	// TransitionStatus atomically moves an order from one status to another
	// with a compare-and-set at the store. Returns false without error when
	// the order was not in the expected status (a lost CAS, not a failure).
	TransitionStatus(ctx context.Context, id int64, from, to order.Status) (bool, error)

	// FindStalePending retrieves orders still Pending that were created
	// before the cutoff. Used by the republish sweep to recover hand-off
	// events that were never confirmed published.
	FindStalePending(ctx context.Context, olderThan time.Time) ([]*order.Order, error)
}
