package commands

import (
	"context"

	"ingestion/internal/core/ports"
)

// OrderUoWFactory creates transaction-scoped units of work for the
// ingestion path. Each command handler invocation gets a fresh instance.
type OrderUoWFactory interface {
	Create() OrderUoW
}

// OrderUoW is the narrow unit-of-work surface the ingestion handler needs:
// transaction control plus the order repository bound to that transaction.
type OrderUoW interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	OrderRepository() ports.OrderRepository
}
