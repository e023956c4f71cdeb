/*
Package worker is the asynchronous report cache refresher.

PURPOSE:
  Consumes recompute jobs enqueued by the posting path, recomputes the
  requested report through the reporting engine, and republishes it to the
  expiring cache plus the durable snapshot table. Also runs a periodic full
  refresh so missed or dropped triggers self-heal.

DESIGN:
  - One background goroutine: select over the job channel, the refresh
    ticker and stop
  - Recompute is idempotent and purely derived, so duplicate or dropped
    jobs cost freshness, never correctness
  - A failed recompute is logged and isolated per tenant; it must never
    block other tenants' jobs or the posting path

SEE ALSO:
  - ledger/queue.go: The queue capability producers enqueue into
  - ledger/reporting.go: The pure functions this worker replays
  - reportcache: The expiring cache layers
*/
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/metrics"
	"github.com/warp/ledger-engine/reportcache"
)

type Worker struct {
	jobs      <-chan ledger.RecomputeJob
	reporter  *ledger.Reporter
	cache     reportcache.Layer
	snapshots ledger.SnapshotStore
	store     ledger.Store
	logger    *zap.Logger

	// RefreshInterval is the scheduled full-refresh cadence.
	RefreshInterval time.Duration

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(queue *ledger.ChannelQueue, reporter *ledger.Reporter, cache reportcache.Layer, snapshots ledger.SnapshotStore, store ledger.Store, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		jobs:            queue.Jobs(),
		reporter:        reporter,
		cache:           cache,
		snapshots:       snapshots,
		store:           store,
		logger:          logger.Named("worker"),
		RefreshInterval: time.Hour,
		now:             time.Now,
		stop:            make(chan struct{}),
	}
}

// WithClock overrides the worker's clock. Tests only.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Start begins consuming jobs and ticking the scheduled refresh.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ticker = time.NewTicker(w.RefreshInterval)
	w.wg.Add(1)
	go w.run()
	w.logger.Info("started", zap.Duration("refresh_interval", w.RefreshInterval))
}

// Stop drains nothing: pending jobs are simply dropped. The next trigger or
// schedule tick after restart regenerates whatever was lost.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ticker != nil {
		w.ticker.Stop()
		w.ticker = nil
		close(w.stop)
		w.wg.Wait()
		w.logger.Info("stopped")
	}
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.Process(context.Background(), job)
		case <-w.ticker.C:
			w.RefreshAll(context.Background())
		case <-w.stop:
			return
		}
	}
}

// Process recomputes one report and republishes it. Failures are logged and
// counted, never propagated: the next trigger or tick retries naturally.
func (w *Worker) Process(ctx context.Context, job ledger.RecomputeJob) {
	payload, periodKey, err := w.compute(ctx, job)
	if err != nil {
		metrics.RecomputesTotal.WithLabelValues(string(job.Report), "error").Inc()
		w.logger.Error("recompute failed",
			zap.String("tenant", string(job.TenantID)),
			zap.String("report", string(job.Report)),
			zap.Error(fmt.Errorf("%w: %v", ledger.ErrRecomputeFailed, err)),
		)
		return
	}

	ttl := reportcache.TTLFor(job.Report)
	key := reportcache.Key(job.TenantID, job.Report, periodKey)
	if err := w.cache.Set(ctx, key, payload, ttl); err != nil {
		// Cache write failures degrade to recompute-on-read; the durable
		// snapshot below still lands.
		w.logger.Warn("cache publish failed",
			zap.String("key", key),
			zap.String("layer", w.cache.Name()),
			zap.Error(err),
		)
	}

	now := w.now().UTC()
	snap := ledger.ReportSnapshot{
		TenantID:    job.TenantID,
		Type:        job.Report,
		PeriodKey:   periodKey,
		Payload:     payload,
		GeneratedAt: now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := w.snapshots.SaveReportSnapshot(ctx, snap); err != nil {
		metrics.RecomputesTotal.WithLabelValues(string(job.Report), "error").Inc()
		w.logger.Error("snapshot persist failed",
			zap.String("tenant", string(job.TenantID)),
			zap.String("report", string(job.Report)),
			zap.Error(err),
		)
		return
	}

	metrics.RecomputesTotal.WithLabelValues(string(job.Report), "ok").Inc()
}

func (w *Worker) compute(ctx context.Context, job ledger.RecomputeJob) (payload []byte, periodKey string, err error) {
	switch job.Report {
	case ledger.ReportDashboard:
		summary, err := w.reporter.DashboardSummary(ctx, job.TenantID, w.now())
		if err != nil {
			return nil, "", err
		}
		payload, err = json.Marshal(summary)
		return payload, reportcache.DashboardPeriod, err

	case ledger.ReportProfitLoss:
		report, err := w.reporter.ProfitAndLoss(ctx, job.TenantID, job.Period)
		if err != nil {
			return nil, "", err
		}
		payload, err = json.Marshal(report)
		return payload, job.Period.Key(), err

	case ledger.ReportBalanceSheet:
		report, err := w.reporter.BalanceSheet(ctx, job.TenantID, job.Period.End)
		if err != nil {
			return nil, "", err
		}
		payload, err = json.Marshal(report)
		return payload, ledger.AsOf(job.Period.End).Key(), err

	case ledger.ReportCashFlow:
		report, err := w.reporter.CashFlow(ctx, job.TenantID, job.Period)
		if err != nil {
			return nil, "", err
		}
		payload, err = json.Marshal(report)
		return payload, job.Period.Key(), err

	default:
		return nil, "", fmt.Errorf("unknown report type %q", job.Report)
	}
}

// RefreshAll recomputes the dashboard for every tenant. This is the
// scheduled self-heal path for missed invalidations.
func (w *Worker) RefreshAll(ctx context.Context) {
	tenants, err := w.store.ListTenants(ctx)
	if err != nil {
		w.logger.Error("tenant scan failed", zap.Error(err))
		return
	}

	for _, tenant := range tenants {
		w.Process(ctx, ledger.RecomputeJob{
			TenantID: tenant,
			Report:   ledger.ReportDashboard,
			Period:   ledger.MonthToDate(w.now()),
		})
	}
	if len(tenants) > 0 {
		w.logger.Info("scheduled refresh completed", zap.Int("tenants", len(tenants)))
	}
}
