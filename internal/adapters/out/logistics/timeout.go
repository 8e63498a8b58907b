package logistics

import (
	"context"
	"time"

	"ingestion/internal/core/ports"
)

// TimeoutGateway bounds each notification attempt with its own deadline so
// a hung provider call turns into a retryable failure instead of stalling
// the delivery loop.
type TimeoutGateway struct {
	inner   ports.LogisticsGateway
	timeout time.Duration
}

// WithTimeout wraps a gateway with a per-attempt timeout.
func WithTimeout(inner ports.LogisticsGateway, timeout time.Duration) *TimeoutGateway {
	return &TimeoutGateway{inner: inner, timeout: timeout}
}

// Notify forwards the call under the attempt deadline.
func (g *TimeoutGateway) Notify(ctx context.Context, orderID int64, requestID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return g.inner.Notify(ctx, orderID, requestID)
}
