/*
reporting.go - Financial statement aggregation

PURPOSE:
  Pure read-side functions over the ledger store. Each report is a
  deterministic function of (tenant, window, ledger state): same inputs,
  numerically identical output. That makes every report replayable,
  cacheable and safe to discard.

REPORTS:
  ProfitAndLoss:        income credits vs expense debits over a window
  BalanceSheet:         per-account balances up to an as-of date, grouped by
                        account type with the credit-normal sign flip
  CashFlow:             debits/credits restricted to the Cash and
                        Bank Account asset accounts
  DashboardSummary:     month-to-date P&L + year-to-date P&L + current
                        balance sheet (the only cached report)
  TopExpenseCategories: grouped expense debits for one month
*/
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

type ReportType string

const (
	ReportDashboard    ReportType = "dashboard"
	ReportProfitLoss   ReportType = "profit_loss"
	ReportBalanceSheet ReportType = "balance_sheet"
	ReportCashFlow     ReportType = "cash_flow"
)

type ProfitLossReport struct {
	TenantID      TenantID        `json:"tenantId"`
	Period        Period          `json:"period"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetProfit     decimal.Decimal `json:"netProfit"`
}

type AccountBalance struct {
	Account string          `json:"account"`
	Balance decimal.Decimal `json:"balance"`
}

type BalanceSheetReport struct {
	TenantID         TenantID         `json:"tenantId"`
	AsOf             time.Time        `json:"asOf"`
	Assets           []AccountBalance `json:"assets"`
	Liabilities      []AccountBalance `json:"liabilities"`
	Equity           []AccountBalance `json:"equity"`
	TotalAssets      decimal.Decimal  `json:"totalAssets"`
	TotalLiabilities decimal.Decimal  `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal  `json:"totalEquity"`
}

type CashFlowReport struct {
	TenantID     TenantID        `json:"tenantId"`
	Period       Period          `json:"period"`
	CashInflows  decimal.Decimal `json:"cashInflows"`
	CashOutflows decimal.Decimal `json:"cashOutflows"`
	NetCashFlow  decimal.Decimal `json:"netCashFlow"`
}

type DashboardSummary struct {
	TenantID     TenantID           `json:"tenantId"`
	CurrentMonth ProfitLossReport   `json:"currentMonth"`
	YearToDate   ProfitLossReport   `json:"yearToDate"`
	BalanceSheet BalanceSheetReport `json:"balanceSheet"`
	GeneratedAt  time.Time          `json:"generatedAt"`
}

type ExpenseCategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// ReportSnapshot is a computed report payload persisted as a cache-loss
// fallback. Never authoritative; always reconstructible from entries.
type ReportSnapshot struct {
	TenantID    TenantID
	Type        ReportType
	PeriodKey   string
	Payload     []byte // JSON-encoded report
	GeneratedAt time.Time
	ExpiresAt   time.Time
}

// =============================================================================
// REPORTER
// =============================================================================

type Reporter struct {
	store Store
}

func NewReporter(store Store) *Reporter {
	return &Reporter{store: store}
}

// ProfitAndLoss sums income credits and expense debits over [start, end].
func (r *Reporter) ProfitAndLoss(ctx context.Context, tenant TenantID, period Period) (ProfitLossReport, error) {
	if !period.IsValid() {
		return ProfitLossReport{}, &ValidationError{Field: "period", Message: "end before start"}
	}
	entries, err := r.store.EntriesInRange(ctx, tenant, period.Start, period.End)
	if err != nil {
		return ProfitLossReport{}, fmt.Errorf("profit and loss scan: %w", err)
	}

	var income, expenses decimal.Decimal
	for _, e := range entries {
		switch e.AccountType {
		case AccountIncome:
			income = income.Add(e.Credit)
		case AccountExpense:
			expenses = expenses.Add(e.Debit)
		}
	}
	return ProfitLossReport{
		TenantID:      tenant,
		Period:        period,
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetProfit:     income.Sub(expenses),
	}, nil
}

// BalanceSheet computes per-account balances up to asOf. Assets are
// debit-normal (sum debit - credit); liabilities and equity are
// credit-normal, so the sign convention flips.
func (r *Reporter) BalanceSheet(ctx context.Context, tenant TenantID, asOf time.Time) (BalanceSheetReport, error) {
	window := AsOf(asOf)
	entries, err := r.store.EntriesInRange(ctx, tenant, window.Start, window.End)
	if err != nil {
		return BalanceSheetReport{}, fmt.Errorf("balance sheet scan: %w", err)
	}

	type bucket map[string]decimal.Decimal
	balances := map[AccountType]bucket{
		AccountAsset:     {},
		AccountLiability: {},
		AccountEquity:    {},
	}
	for _, e := range entries {
		b, ok := balances[e.AccountType]
		if !ok {
			continue
		}
		delta := e.Debit.Sub(e.Credit)
		if e.AccountType != AccountAsset {
			delta = delta.Neg()
		}
		b[e.Account] = b[e.Account].Add(delta)
	}

	report := BalanceSheetReport{TenantID: tenant, AsOf: Day(asOf)}
	report.Assets, report.TotalAssets = sortedBalances(balances[AccountAsset])
	report.Liabilities, report.TotalLiabilities = sortedBalances(balances[AccountLiability])
	report.Equity, report.TotalEquity = sortedBalances(balances[AccountEquity])
	return report, nil
}

// CashFlow restricts the scan to the Cash and Bank Account asset accounts:
// inflow is total debit, outflow total credit.
func (r *Reporter) CashFlow(ctx context.Context, tenant TenantID, period Period) (CashFlowReport, error) {
	if !period.IsValid() {
		return CashFlowReport{}, &ValidationError{Field: "period", Message: "end before start"}
	}
	entries, err := r.store.EntriesInRange(ctx, tenant, period.Start, period.End)
	if err != nil {
		return CashFlowReport{}, fmt.Errorf("cash flow scan: %w", err)
	}

	var in, out decimal.Decimal
	for _, e := range entries {
		if e.AccountType != AccountAsset {
			continue
		}
		if e.Account != AccountCash && e.Account != AccountBank {
			continue
		}
		in = in.Add(e.Debit)
		out = out.Add(e.Credit)
	}
	return CashFlowReport{
		TenantID:     tenant,
		Period:       period,
		CashInflows:  in,
		CashOutflows: out,
		NetCashFlow:  in.Sub(out),
	}, nil
}

// DashboardSummary composes the three statements for month-to-date,
// year-to-date and as-of-now windows. now is explicit so the composition is
// deterministic and testable against its parts.
func (r *Reporter) DashboardSummary(ctx context.Context, tenant TenantID, now time.Time) (DashboardSummary, error) {
	currentMonth, err := r.ProfitAndLoss(ctx, tenant, MonthToDate(now))
	if err != nil {
		return DashboardSummary{}, err
	}
	yearToDate, err := r.ProfitAndLoss(ctx, tenant, YearToDate(now))
	if err != nil {
		return DashboardSummary{}, err
	}
	sheet, err := r.BalanceSheet(ctx, tenant, now)
	if err != nil {
		return DashboardSummary{}, err
	}
	return DashboardSummary{
		TenantID:     tenant,
		CurrentMonth: currentMonth,
		YearToDate:   yearToDate,
		BalanceSheet: sheet,
		GeneratedAt:  now.UTC(),
	}, nil
}

// TopExpenseCategories groups expense debits for the month containing month
// and returns the top limit categories by total, descending.
func (r *Reporter) TopExpenseCategories(ctx context.Context, tenant TenantID, month time.Time, limit int) ([]ExpenseCategoryTotal, error) {
	if limit <= 0 {
		limit = 5
	}
	window := Month(month)
	entries, err := r.store.EntriesInRange(ctx, tenant, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("top expenses scan: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.AccountType != AccountExpense {
			continue
		}
		totals[e.Account] = totals[e.Account].Add(e.Debit)
	}

	result := make([]ExpenseCategoryTotal, 0, len(totals))
	for category, total := range totals {
		result = append(result, ExpenseCategoryTotal{Category: category, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Total.Equal(result[j].Total) {
			return result[i].Total.GreaterThan(result[j].Total)
		}
		return result[i].Category < result[j].Category
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortedBalances(b map[string]decimal.Decimal) ([]AccountBalance, decimal.Decimal) {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	var total decimal.Decimal
	out := make([]AccountBalance, 0, len(names))
	for _, name := range names {
		out = append(out, AccountBalance{Account: name, Balance: b[name]})
		total = total.Add(b[name])
	}
	return out, total
}
