package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/api"
	"github.com/warp/ledger-engine/ledger"
	memstore "github.com/warp/ledger-engine/ledger/store"
	"github.com/warp/ledger-engine/reportcache"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testClock = time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	router http.Handler
	store  *memstore.TxMemory
	cache  *reportcache.MemoryCache
}

func newFixture(t *testing.T) *fixture {
	store := memstore.NewTxMemory()
	cache := reportcache.NewMemory(reportcache.MemoryConfig{})
	t.Cleanup(func() { cache.Close() })

	clock := func() time.Time { return testClock }
	classifier := ledger.NewClassifier(store).WithClock(clock)
	engine := ledger.NewEngine(store, ledger.NewChart(), ledger.NopQueue{}).WithClock(clock)
	service := ledger.NewService(store, classifier, engine)
	reporter := ledger.NewReporter(store)

	handler := api.NewHandler(service, reporter, store, store, cache, nil).WithClock(clock)
	return &fixture{router: api.NewRouter(handler), store: store, cache: cache}
}

// do sends a JSON request for tenant shop-1 and returns the recorder.
func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Tenant-ID", "shop-1")
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

// =============================================================================
// TENANCY
// =============================================================================

func TestAPI_MissingTenantRejected(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/dashboard", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_TenantFromQueryParam(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?tenant=shop-1", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// TRANSACTION RECORDING
// =============================================================================

func TestAPI_RecordTransaction(t *testing.T) {
	// GIVEN: A cash income of 1000
	// WHEN: POSTing it
	// THEN: 201 with a balanced entry set and the Cash running balance

	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/transactions", api.RecordTransactionRequest{
		Kind:          "income",
		Amount:        "1000",
		PaymentMethod: "cash",
		Description:   "Counter sales",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[api.RecordTransactionResponse](t, rec)
	assert.True(t, resp.Created)
	assert.Equal(t, "income", resp.Transaction.Kind)
	assert.Equal(t, "2025-03-15", resp.Transaction.OccurredAt)
	require.Len(t, resp.Entries, 2)

	byAccount := map[string]api.LedgerEntryDTO{}
	for _, e := range resp.Entries {
		byAccount[e.Account] = e
	}
	assert.Equal(t, "1000", byAccount["Cash"].Debit)
	assert.Equal(t, "1000", byAccount["Cash"].RunningBalance)
	assert.Equal(t, "1000", byAccount["Sales Revenue"].Credit)
}

func TestAPI_RecordTransaction_InvalidAmount(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/transactions", api.RecordTransactionRequest{
		Kind:   "income",
		Amount: "-5",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_RecordTransaction_BadJSON(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString("{"))
	req.Header.Set("X-Tenant-ID", "shop-1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetTransactionWithEntries(t *testing.T) {
	f := newFixture(t)

	created := decode[api.RecordTransactionResponse](t, f.do(t, http.MethodPost, "/api/transactions",
		api.RecordTransactionRequest{Kind: "income", Amount: "100"}))

	rec := f.do(t, http.MethodGet, "/api/transactions/"+created.Transaction.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.RecordTransactionResponse](t, rec)
	assert.Equal(t, created.Transaction.ID, resp.Transaction.ID)
	assert.Len(t, resp.Entries, 2)

	missing := f.do(t, http.MethodGet, "/api/transactions/nope", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

// =============================================================================
// WEBHOOKS
// =============================================================================

func TestAPI_UPIWebhook_RedeliveredTwice(t *testing.T) {
	// GIVEN: A UPI webhook for reference TXN123
	// WHEN: The gateway delivers it twice
	// THEN: 201 then 200, the same transaction id, and one posting

	f := newFixture(t)

	payload := api.UPIWebhookRequest{
		Reference: "TXN123",
		Amount:    "500",
		PayerVPA:  "customer@bank",
	}

	first := f.do(t, http.MethodPost, "/api/webhooks/upi", payload)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	firstResp := decode[api.RecordTransactionResponse](t, first)
	assert.True(t, firstResp.Created)

	second := f.do(t, http.MethodPost, "/api/webhooks/upi", payload)
	require.Equal(t, http.StatusOK, second.Code)
	secondResp := decode[api.RecordTransactionResponse](t, second)
	assert.False(t, secondResp.Created)
	assert.Equal(t, firstResp.Transaction.ID, secondResp.Transaction.ID)
	assert.Equal(t, firstResp.Entries, secondResp.Entries)
}

func TestAPI_UPIWebhook_RequiresReference(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/webhooks/upi", api.UPIWebhookRequest{Amount: "500"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_BankImport_MixedBatch(t *testing.T) {
	// GIVEN: A batch with a credit, a debit, a bad row and a duplicate
	// WHEN: Importing
	// THEN: Counted as 2 imported, 1 duplicate, 1 failed

	f := newFixture(t)

	batch := api.BankImportRequest{Rows: []api.BankImportRow{
		{Reference: "B-1", Direction: "credit", Amount: "900", Description: "Customer payment"},
		{Reference: "B-2", Direction: "debit", Amount: "150", Description: "Electricity bill"},
		{Reference: "B-3", Direction: "sideways", Amount: "10"},
	}}
	rec := f.do(t, http.MethodPost, "/api/webhooks/bank-import", batch)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.BankImportResponse](t, rec)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 1, resp.Failed)
	assert.Len(t, resp.Errors, 1)

	// Re-importing the same statement is a no-op.
	again := decode[api.BankImportResponse](t, f.do(t, http.MethodPost, "/api/webhooks/bank-import", batch))
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 2, again.Duplicates)
}

// =============================================================================
// REPORTS
// =============================================================================

func seedActivity(t *testing.T, f *fixture) {
	t.Helper()
	for _, req := range []api.RecordTransactionRequest{
		{Kind: "income", Amount: "1000", PaymentMethod: "cash"},
		{Kind: "expense", Amount: "300", Category: "Rent", PaymentMethod: "cash"},
	} {
		rec := f.do(t, http.MethodPost, "/api/transactions", req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestAPI_ProfitLossReport(t *testing.T) {
	f := newFixture(t)
	seedActivity(t, f)

	rec := f.do(t, http.MethodGet, "/api/reports/profit-loss", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[ledger.ProfitLossReport](t, rec)
	assert.True(t, report.TotalIncome.Equal(ledger.MustDecimal("1000")))
	assert.True(t, report.TotalExpenses.Equal(ledger.MustDecimal("300")))
	assert.True(t, report.NetProfit.Equal(ledger.MustDecimal("700")))
}

func TestAPI_ProfitLoss_ReflectsNewPostings(t *testing.T) {
	// GIVEN: A profit-loss window already read once (and snapshotted)
	// WHEN: Another income lands in the same window
	// THEN: The next read recomputes from the ledger and shows the new total

	f := newFixture(t)
	const window = "/api/reports/profit-loss?from=2025-03-01&to=2025-03-31"

	rec := f.do(t, http.MethodPost, "/api/transactions",
		api.RecordTransactionRequest{Kind: "income", Amount: "1000", PaymentMethod: "cash"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	first := f.do(t, http.MethodGet, window, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Cache"))
	assert.True(t, decode[ledger.ProfitLossReport](t, first).TotalIncome.Equal(ledger.MustDecimal("1000")))

	rec = f.do(t, http.MethodPost, "/api/transactions",
		api.RecordTransactionRequest{Kind: "income", Amount: "500", PaymentMethod: "cash"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	second := f.do(t, http.MethodGet, window, nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.True(t, decode[ledger.ProfitLossReport](t, second).TotalIncome.Equal(ledger.MustDecimal("1500")))
}

func TestAPI_BalanceSheetReport(t *testing.T) {
	f := newFixture(t)
	seedActivity(t, f)

	rec := f.do(t, http.MethodGet, "/api/reports/balance-sheet", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[ledger.BalanceSheetReport](t, rec)
	assert.True(t, report.TotalAssets.Equal(ledger.MustDecimal("700")))
}

func TestAPI_CashFlowReport(t *testing.T) {
	f := newFixture(t)
	seedActivity(t, f)

	rec := f.do(t, http.MethodGet, "/api/reports/cash-flow", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[ledger.CashFlowReport](t, rec)
	assert.True(t, report.CashInflows.Equal(ledger.MustDecimal("1000")))
	assert.True(t, report.CashOutflows.Equal(ledger.MustDecimal("300")))
}

func TestAPI_Dashboard_CacheMissThenHit(t *testing.T) {
	// GIVEN: A cold cache
	// WHEN: Reading the dashboard twice
	// THEN: First read computes and publishes (X-Cache: miss), second is a hit

	f := newFixture(t)
	seedActivity(t, f)

	first := f.do(t, http.MethodGet, "/api/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "miss", first.Header().Get("X-Cache"))

	// Keep the raw body around: decoding drains the recorder.
	firstBody := first.Body.String()
	var summary ledger.DashboardSummary
	require.NoError(t, json.Unmarshal([]byte(firstBody), &summary))
	assert.True(t, summary.CurrentMonth.NetProfit.Equal(ledger.MustDecimal("700")))

	second := f.do(t, http.MethodGet, "/api/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "hit", second.Header().Get("X-Cache"))
	assert.JSONEq(t, firstBody, second.Body.String())
}

func TestAPI_Dashboard_MissAlsoWritesSnapshot(t *testing.T) {
	f := newFixture(t)
	seedActivity(t, f)

	rec := f.do(t, http.MethodGet, "/api/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := f.store.LoadReportSnapshot(context.Background(),
		"shop-1", ledger.ReportDashboard, reportcache.DashboardPeriod)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.JSONEq(t, rec.Body.String(), string(snap.Payload))
}

func TestAPI_TopExpenses(t *testing.T) {
	f := newFixture(t)
	seedActivity(t, f)

	rec := f.do(t, http.MethodGet, "/api/reports/top-expenses?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	categories := decode[[]ledger.ExpenseCategoryTotal](t, rec)
	require.Len(t, categories, 1)
	assert.Equal(t, "Rent", categories[0].Category)
	assert.True(t, categories[0].Total.Equal(ledger.MustDecimal("300")))
}

func TestAPI_ReportInvalidDateRange(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/reports/profit-loss?from=2025-03-10&to=2025-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

func TestAPI_ListEntriesByAccount(t *testing.T) {
	f := newFixture(t)
	seedActivity(t, f)

	rec := f.do(t, http.MethodGet, "/api/ledger/entries?account=Cash", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decode[[]api.LedgerEntryDTO](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "1000", entries[0].RunningBalance)
	assert.Equal(t, "700", entries[1].RunningBalance)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAPI_AdminDeleteTransaction(t *testing.T) {
	f := newFixture(t)

	created := decode[api.RecordTransactionResponse](t, f.do(t, http.MethodPost, "/api/transactions",
		api.RecordTransactionRequest{Kind: "income", Amount: "100"}))

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/transactions/%s", created.Transaction.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	gone := f.do(t, http.MethodGet, "/api/transactions/"+created.Transaction.ID, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}
