/*
handlers.go - HTTP API handlers for the ledger engine

PURPOSE:
  Exposes the posting and reporting engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Transactions:
    POST   /api/transactions             Record a transaction
    GET    /api/transactions             List transactions in a date range
    GET    /api/transactions/{id}        Get a transaction with its entries

  Webhooks:
    POST   /api/webhooks/upi             UPI payment notification (dedup by reference)
    POST   /api/webhooks/bank-import     Batch bank statement import

  Ledger:
    GET    /api/ledger/entries           Entries by account or date range

  Reports:
    GET    /api/reports/profit-loss      Income vs expenses over a window
    GET    /api/reports/balance-sheet    Account balances as of a date
    GET    /api/reports/cash-flow        Cash/Bank movements over a window
    GET    /api/reports/dashboard        Composite summary (cached)
    GET    /api/reports/top-expenses     Top expense categories for a month

  Admin:
    DELETE /api/admin/transactions/{id}  Delete a transaction and its entries

TENANCY:
  Every endpoint requires a tenant, resolved from the X-Tenant-ID header
  (or the ?tenant query parameter as a fallback). There is no cross-tenant
  read path.

REPORT CACHING:
  Only the dashboard summary is cached. Its reads go cache-first; a miss
  recomputes under a singleflight group (one computation per key regardless
  of concurrent readers) and republishes to cache + durable snapshot.
  The statement endpoints (profit-loss, balance-sheet, cash-flow) always
  recompute from the ledger so a fresh posting is visible on the next read;
  their snapshots are written as a fallback and served only when the
  recomputation itself fails.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors
  Idempotent redeliveries are NOT errors: they return 200 with the
  previously recorded transaction and created=false.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - ledger/service.go: The record pipeline these handlers call
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/metrics"
	"github.com/warp/ledger-engine/reportcache"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *ledger.Service
	Reporter  *ledger.Reporter
	Store     ledger.Store
	Snapshots ledger.SnapshotStore
	Cache     reportcache.Layer
	Logger    *zap.Logger

	// flights collapses concurrent recomputations of the same report key
	// into one.
	flights singleflight.Group

	now func() time.Time
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(service *ledger.Service, reporter *ledger.Reporter, store ledger.Store, snapshots ledger.SnapshotStore, cache reportcache.Layer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:   service,
		Reporter:  reporter,
		Store:     store,
		Snapshots: snapshots,
		Cache:     cache,
		Logger:    logger.Named("api"),
		now:       time.Now,
	}
}

// WithClock overrides the handler clock. Tests only.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// RecordTransaction records a classified transaction and posts its entries.
// POST /api/transactions
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	domainReq, err := h.toDomainRequest(tenant, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction", err)
		return
	}

	h.record(w, r, domainReq)
}

// record runs the shared record pipeline and writes the response. All
// ingestion paths (manual, webhooks, imports) end here.
func (h *Handler) record(w http.ResponseWriter, r *http.Request, req ledger.TransactionRequest) {
	tx, entries, created, err := h.Service.Record(r.Context(), req)
	if err != nil {
		if ledger.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Invalid transaction", err)
			return
		}
		metrics.PostingFailures.Inc()
		h.Logger.Error("record failed", zap.String("tenant", string(req.TenantID)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to record transaction", err)
		return
	}

	status := http.StatusCreated
	if created {
		metrics.PostingsTotal.WithLabelValues(string(tx.Kind)).Inc()
	} else {
		metrics.DuplicateIngestions.Inc()
		status = http.StatusOK
	}

	writeJSON(w, status, RecordTransactionResponse{
		Transaction: toTransactionDTO(tx),
		Entries:     toEntryDTOs(entries),
		Created:     created,
	})
}

// ListTransactions returns transactions with OccurredAt in [from, to].
// GET /api/transactions?from=2024-01-01&to=2024-01-31
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	period, err := h.periodParams(r, ledger.MonthToDate(h.now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	txs, err := h.Store.ListTransactions(r.Context(), tenant, period.Start, period.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTransaction returns one transaction with its posted entries.
// GET /api/transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	tx, err := h.Store.GetTransaction(r.Context(), tenant, id)
	if err != nil {
		if ledger.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Transaction not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get transaction", err)
		return
	}

	entries, err := h.Store.EntriesForTransaction(r.Context(), tenant, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}

	writeJSON(w, http.StatusOK, RecordTransactionResponse{
		Transaction: toTransactionDTO(tx),
		Entries:     toEntryDTOs(entries),
		Created:     false,
	})
}

// DeleteTransaction removes a transaction and its entries together.
// DELETE /api/admin/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	if err := h.Service.Delete(r.Context(), tenant, id); err != nil {
		if ledger.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Transaction not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WEBHOOK HANDLERS
// =============================================================================

// UPIWebhook ingests a UPI payment notification. Redeliveries of the same
// reference return the originally recorded transaction with created=false.
// POST /api/webhooks/upi
func (h *Handler) UPIWebhook(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req UPIWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Reference == "" {
		writeError(w, http.StatusBadRequest, "Missing reference", nil)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	occurredAt, err := parseDate(req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid occurred_at", err)
		return
	}

	description := req.Description
	if description == "" && req.PayerVPA != "" {
		description = fmt.Sprintf("UPI payment from %s", req.PayerVPA)
	}

	h.record(w, r, ledger.TransactionRequest{
		TenantID:      tenant,
		Kind:          ledger.KindIncome,
		Amount:        amount,
		Description:   description,
		PaymentMethod: "upi",
		Reference:     req.Reference,
		OccurredAt:    occurredAt,
		Source:        ledger.SourceUPI,
	})
}

// BankImport ingests a batch of statement rows. Rows are independent: a bad
// row is counted and skipped, never aborts the batch. Re-importing the same
// statement is safe because each row dedups on its reference.
// POST /api/webhooks/bank-import
func (h *Handler) BankImport(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req BankImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	var resp BankImportResponse
	for i, row := range req.Rows {
		domainReq, err := h.toBankRequest(tenant, row)
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("row %d: %v", i, err))
			continue
		}

		_, _, created, err := h.Service.Record(r.Context(), domainReq)
		switch {
		case err != nil:
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("row %d: %v", i, err))
			if !ledger.IsClientError(err) {
				metrics.PostingFailures.Inc()
				h.Logger.Error("bank import row failed",
					zap.String("tenant", string(tenant)),
					zap.String("reference", row.Reference),
					zap.Error(err),
				)
			}
		case created:
			resp.Imported++
			metrics.PostingsTotal.WithLabelValues(string(domainReq.Kind)).Inc()
		default:
			resp.Duplicates++
			metrics.DuplicateIngestions.Inc()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) toBankRequest(tenant ledger.TenantID, row BankImportRow) (ledger.TransactionRequest, error) {
	if row.Reference == "" {
		return ledger.TransactionRequest{}, fmt.Errorf("missing reference")
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return ledger.TransactionRequest{}, fmt.Errorf("invalid amount: %w", err)
	}
	occurredAt, err := parseDate(row.Date)
	if err != nil {
		return ledger.TransactionRequest{}, fmt.Errorf("invalid date: %w", err)
	}

	var kind ledger.Kind
	switch row.Direction {
	case "credit":
		kind = ledger.KindIncome
	case "debit":
		kind = ledger.KindExpense
	default:
		return ledger.TransactionRequest{}, fmt.Errorf("unknown direction %q", row.Direction)
	}

	return ledger.TransactionRequest{
		TenantID:      tenant,
		Kind:          kind,
		Amount:        amount,
		Description:   row.Description,
		PaymentMethod: "bank",
		Reference:     row.Reference,
		OccurredAt:    occurredAt,
		Source:        ledger.SourceBankImport,
	}, nil
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListEntries returns ledger entries, filtered by account or by date range.
// GET /api/ledger/entries?account=Cash
// GET /api/ledger/entries?from=2024-01-01&to=2024-01-31
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var (
		entries []ledger.LedgerEntry
		err     error
	)
	if account := r.URL.Query().Get("account"); account != "" {
		entries, err = h.Store.EntriesForAccount(r.Context(), tenant, account)
	} else {
		var period ledger.Period
		period, err = h.periodParams(r, ledger.AsOf(h.now()))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date range", err)
			return
		}
		entries, err = h.Store.EntriesInRange(r.Context(), tenant, period.Start, period.End)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ProfitLoss returns the income statement for a window (default: month to date).
// GET /api/reports/profit-loss?from=2024-01-01&to=2024-01-31
func (h *Handler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	period, err := h.periodParams(r, ledger.MonthToDate(h.now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	h.serveStatement(w, r, tenant, ledger.ReportProfitLoss, period.Key(), func() (any, error) {
		return h.Reporter.ProfitAndLoss(r.Context(), tenant, period)
	})
}

// BalanceSheet returns account balances as of a date (default: today).
// GET /api/reports/balance-sheet?as_of=2024-01-31
func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	asOf := h.now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
			return
		}
		asOf = parsed
	}

	h.serveStatement(w, r, tenant, ledger.ReportBalanceSheet, ledger.AsOf(asOf).Key(), func() (any, error) {
		return h.Reporter.BalanceSheet(r.Context(), tenant, asOf)
	})
}

// CashFlow returns Cash/Bank movements for a window (default: month to date).
// GET /api/reports/cash-flow?from=2024-01-01&to=2024-01-31
func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	period, err := h.periodParams(r, ledger.MonthToDate(h.now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	h.serveStatement(w, r, tenant, ledger.ReportCashFlow, period.Key(), func() (any, error) {
		return h.Reporter.CashFlow(r.Context(), tenant, period)
	})
}

// Dashboard returns the composite summary. This is the hot read path: cache
// first, singleflight recompute on miss, stale snapshot on failure.
// GET /api/reports/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	h.serveCached(w, r, tenant, ledger.ReportDashboard, reportcache.DashboardPeriod, func() (any, error) {
		return h.Reporter.DashboardSummary(r.Context(), tenant, h.now())
	})
}

// TopExpenses returns the top expense categories for a month (default: current).
// GET /api/reports/top-expenses?month=2024-01&limit=5
func (h *Handler) TopExpenses(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	month := h.now()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month, want YYYY-MM", err)
			return
		}
		month = parsed
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	categories, err := h.Reporter.TopExpenseCategories(r.Context(), tenant, month, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute top expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// =============================================================================
// REPORT READ PATHS
// =============================================================================

// serveStatement is the direct read path for the point-in-time statements.
// It always recomputes from the ledger store; the cache is never consulted,
// so a posting is visible on the very next read. The freshly computed
// payload refreshes the durable snapshot, which is served stale only when
// the recomputation itself fails.
func (h *Handler) serveStatement(w http.ResponseWriter, r *http.Request, tenant ledger.TenantID, typ ledger.ReportType, periodKey string, compute func() (any, error)) {
	report, err := compute()
	if err != nil {
		h.serveReportFailure(w, r, tenant, typ, periodKey, err)
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode report", err)
		return
	}
	h.persistSnapshot(r, tenant, typ, periodKey, raw)
	writeRawJSON(w, http.StatusOK, raw, "")
}

// serveCached is the cache-first read path for the dashboard summary, the
// one report hot enough to cache.
//
// Order of preference:
//  1. cache hit: serve the cached payload as-is
//  2. miss: recompute under singleflight, republish to cache + snapshot
//  3. recompute failed: serve the last durable snapshot, stale
//  4. nothing at all: 500
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, tenant ledger.TenantID, typ ledger.ReportType, periodKey string, compute func() (any, error)) {
	key := reportcache.Key(tenant, typ, periodKey)

	if payload, err := h.Cache.Get(r.Context(), key); err == nil {
		metrics.CacheRequests.WithLabelValues(h.Cache.Name(), "hit").Inc()
		writeRawJSON(w, http.StatusOK, payload, "hit")
		return
	}
	metrics.CacheRequests.WithLabelValues(h.Cache.Name(), "miss").Inc()

	payload, err, _ := h.flights.Do(key, func() (any, error) {
		report, err := compute()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(report)
		if err != nil {
			return nil, err
		}
		if setErr := h.Cache.Set(r.Context(), key, raw, reportcache.TTLFor(typ)); setErr != nil {
			h.Logger.Warn("cache publish failed", zap.String("key", key), zap.Error(setErr))
		}
		h.persistSnapshot(r, tenant, typ, periodKey, raw)
		return raw, nil
	})
	if err == nil {
		writeRawJSON(w, http.StatusOK, payload.([]byte), "miss")
		return
	}

	h.serveReportFailure(w, r, tenant, typ, periodKey, err)
}

// serveReportFailure maps a failed recompute: bad input is a 400, anything
// else falls back to the last durable snapshot before giving up with a 500.
func (h *Handler) serveReportFailure(w http.ResponseWriter, r *http.Request, tenant ledger.TenantID, typ ledger.ReportType, periodKey string, err error) {
	if ledger.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "Invalid report request", err)
		return
	}

	snap, snapErr := h.Snapshots.LoadReportSnapshot(r.Context(), tenant, typ, periodKey)
	if snapErr == nil && snap != nil {
		h.Logger.Warn("serving stale report snapshot",
			zap.String("tenant", string(tenant)),
			zap.String("report", string(typ)),
			zap.Error(err),
		)
		writeRawJSON(w, http.StatusOK, snap.Payload, "stale")
		return
	}

	h.Logger.Error("report unavailable",
		zap.String("tenant", string(tenant)),
		zap.String("report", string(typ)),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Failed to compute report", err)
}

// persistSnapshot writes a freshly computed report to the snapshot table.
// Best effort; the caller already has the payload in hand.
func (h *Handler) persistSnapshot(r *http.Request, tenant ledger.TenantID, typ ledger.ReportType, periodKey string, payload []byte) {
	now := h.now().UTC()
	snap := ledger.ReportSnapshot{
		TenantID:    tenant,
		Type:        typ,
		PeriodKey:   periodKey,
		Payload:     payload,
		GeneratedAt: now,
		ExpiresAt:   now.Add(reportcache.TTLFor(typ)),
	}
	if err := h.Snapshots.SaveReportSnapshot(r.Context(), snap); err != nil {
		h.Logger.Warn("snapshot persist failed",
			zap.String("tenant", string(tenant)),
			zap.String("report", string(typ)),
			zap.Error(err),
		)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// tenant resolves the tenant id from the X-Tenant-ID header or the ?tenant
// query parameter. Writes a 400 and returns false when absent.
func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (ledger.TenantID, bool) {
	id := r.Header.Get("X-Tenant-ID")
	if id == "" {
		id = r.URL.Query().Get("tenant")
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing tenant: set X-Tenant-ID header or ?tenant", nil)
		return "", false
	}
	return ledger.TenantID(id), true
}

func (h *Handler) toDomainRequest(tenant ledger.TenantID, req RecordTransactionRequest) (ledger.TransactionRequest, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return ledger.TransactionRequest{}, fmt.Errorf("invalid amount: %w", err)
	}
	occurredAt, err := parseDate(req.OccurredAt)
	if err != nil {
		return ledger.TransactionRequest{}, fmt.Errorf("invalid occurred_at: %w", err)
	}
	return ledger.TransactionRequest{
		TenantID:      tenant,
		Kind:          ledger.Kind(req.Kind),
		Amount:        amount,
		Description:   req.Description,
		Category:      req.Category,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
		Vendor:        req.Vendor,
		OccurredAt:    occurredAt,
		Source:        ledger.Source(req.Source),
		Metadata:      req.Metadata,
	}, nil
}

// periodParams parses ?from and ?to (YYYY-MM-DD). Both default to fallback's
// bounds when absent.
func (h *Handler) periodParams(r *http.Request, fallback ledger.Period) (ledger.Period, error) {
	period := fallback
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ledger.Period{}, fmt.Errorf("invalid from date: %w", err)
		}
		period.Start = ledger.Day(t)
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ledger.Period{}, fmt.Errorf("invalid to date: %w", err)
		}
		period.End = ledger.Day(t)
	}
	if !period.IsValid() {
		return ledger.Period{}, fmt.Errorf("to is before from")
	}
	return period, nil
}

// parseDate parses a YYYY-MM-DD date; an empty string means "today" and
// returns the zero time for the domain layer to default.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeRawJSON writes a pre-marshaled payload. A non-empty cacheState lands
// in the X-Cache header so clients and tests can tell hit/miss/stale apart;
// the header is omitted for the uncached statement reads.
func writeRawJSON(w http.ResponseWriter, status int, payload []byte, cacheState string) {
	w.Header().Set("Content-Type", "application/json")
	if cacheState != "" {
		w.Header().Set("X-Cache", cacheState)
	}
	w.WriteHeader(status)
	w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
