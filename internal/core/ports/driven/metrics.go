package driven

import "context"

// Counter names emitted by the connection service.
const (
	CounterConnectStarted       = "connect_started"
	CounterConnectCompleted     = "connect_completed"
	CounterExchangeFailed       = "exchange_failed"
	CounterStateRejected        = "state_rejected"
	CounterTokenRefreshed       = "token_refreshed"
	CounterRefreshFailed        = "refresh_failed"
	CounterRevokeFailedUpstream = "revoke_failed_upstream"
	CounterDisconnected         = "disconnected"
)

// MetricsSink receives lifecycle counters. Emission is fire-and-forget;
// implementations must never fail the caller.
type MetricsSink interface {
	Incr(ctx context.Context, counter string)
}

// NopMetrics discards all counters. Used when no sink is configured.
type NopMetrics struct{}

// Incr does nothing.
func (NopMetrics) Incr(ctx context.Context, counter string) {}
