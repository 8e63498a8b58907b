// Package logistics provides the stand-in logistics gateway used in place
// of a real provider. It simulates the provider's latency and transient
// failures so the fulfillment retry path is exercised end to end.
package logistics

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// SimulatedGateway notifies a pretend logistics provider. Each call waits
// the configured latency and fails with the configured probability. The
// context deadline is honored while waiting, so a per-attempt timeout
// shorter than the latency shows up as a transient failure.
type SimulatedGateway struct {
	latency     time.Duration
	failureRate float64
	logger      *slog.Logger
}

// NewSimulatedGateway creates a gateway with the given latency and failure
// rate in [0, 1].
func NewSimulatedGateway(latency time.Duration, failureRate float64, logger *slog.Logger) (*SimulatedGateway, error) {
	if latency < 0 {
		return nil, fmt.Errorf("latency must not be negative, got %s", latency)
	}
	if failureRate < 0 || failureRate > 1 {
		return nil, fmt.Errorf("failure rate must be in [0, 1], got %f", failureRate)
	}

	return &SimulatedGateway{
		latency:     latency,
		failureRate: failureRate,
		logger:      logger.With("component", "logistics_gateway"),
	}, nil
}

// Notify simulates submitting one order to the provider.
func (g *SimulatedGateway) Notify(ctx context.Context, orderID int64, requestID string) error {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			g.logger.WarnContext(ctx, "logistics notification deadline exceeded",
				"orderId", orderID, "requestId", requestID)
			return ctx.Err()
		case <-timer.C:
		}
	}

	if rand.Float64() < g.failureRate {
		g.logger.WarnContext(ctx, "logistics notification failed",
			"orderId", orderID, "requestId", requestID)
		return fmt.Errorf("logistics provider rejected order %d", orderID)
	}

	g.logger.InfoContext(ctx, "logistics notification delivered",
		"orderId", orderID, "requestId", requestID)
	return nil
}
