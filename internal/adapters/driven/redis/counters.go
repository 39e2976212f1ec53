package redis

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/edustack-labs/meetlink/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MetricsSink = (*Counters)(nil)

// counterPrefix namespaces meetlink counters in a shared Redis.
const counterPrefix = "meetlink:counter:"

// Counters implements driven.MetricsSink using Redis INCR.
// Emission is fire-and-forget: a failed increment is logged and dropped,
// never surfaced to the caller.
type Counters struct {
	client *redis.Client
}

// NewCounters creates a new Redis-backed metrics sink.
func NewCounters(client *redis.Client) *Counters {
	return &Counters{client: client}
}

// Incr increments the named counter.
func (c *Counters) Incr(ctx context.Context, counter string) {
	if err := c.client.Incr(ctx, counterPrefix+counter).Err(); err != nil {
		log.Printf("metrics: failed to increment %s: %v", counter, err)
	}
}

// Value reads a counter, for dashboards and tests.
func (c *Counters) Value(ctx context.Context, counter string) (int64, error) {
	n, err := c.client.Get(ctx, counterPrefix+counter).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
