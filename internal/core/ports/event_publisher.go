package ports

import (
	"context"

	"ingestion/internal/core/domain/model/order"
)

// EventPublisher is the producing side of the at-least-once event channel.
// Publish confirms the hand-off has been accepted by the channel; a returned
// error means the event may never be delivered and the caller must surface
// the disagreement between store and channel rather than swallow it.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event order.CreatedEvent) error
}
