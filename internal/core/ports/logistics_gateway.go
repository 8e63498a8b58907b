package ports

import "context"

// LogisticsGateway is the downstream fulfillment notifier.
// The call may be slow and may fail transiently; exceeding the context
// deadline counts as a transient failure. Repeated calls with the same
// arguments are safe to issue; business-visible deduplication is the
// consumer's responsibility, not the gateway's.
type LogisticsGateway interface {
	Notify(ctx context.Context, orderID int64, requestID string) error
}
