/*
Package reportcache is the fast, expiring cache for computed reports.

PURPOSE:
  Defines the Layer interface the worker and the dashboard read path use,
  plus the key scheme for (tenant, report type, period). Values are opaque
  JSON payloads; the cache never interprets them. The cache is an
  optimization, never a source of truth: a miss just means recompute.

IMPLEMENTATIONS:
  memory.go:    in-process map with TTL cleanup (default)
  redis.go:     Redis via rueidis (shared cache across instances)
  resilient.go: circuit-breaker wrapper so a dead backend degrades to
                cache misses instead of stalls
*/
package reportcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp/ledger-engine/ledger"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ErrCircuitOpen is returned when the resilient wrapper rejects an
// operation because the backend's circuit breaker is open. Readers treat
// it exactly like a miss.
var ErrCircuitOpen = errors.New("cache circuit open")

// Layer is a single cache backend.
type Layer interface {
	// Get returns the payload for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores payload under key for ttl.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Delete removes key. Absent keys are not an error.
	Delete(ctx context.Context, key string) error

	// Name identifies the layer for logging and metrics.
	Name() string

	// Close releases resources held by the layer.
	Close() error
}

// DashboardPeriod is the fixed period key for the now-anchored dashboard
// summary. The worker publishes under it and the read path looks it up.
const DashboardPeriod = "current"

// Key builds the cache key for one report.
func Key(tenant ledger.TenantID, typ ledger.ReportType, periodKey string) string {
	return fmt.Sprintf("report:%s:%s:%s", tenant, typ, periodKey)
}

// TTLFor returns the type-dependent time-to-live. The dashboard changes
// with every posting, so it expires quickly; point-in-time statements are
// stable for their window.
func TTLFor(typ ledger.ReportType) time.Duration {
	if typ == ledger.ReportDashboard {
		return time.Hour
	}
	return 24 * time.Hour
}
