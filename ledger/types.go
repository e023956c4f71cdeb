/*
Package ledger is the double-entry posting and reporting core.

PURPOSE:
  This package turns classified business events (income, expense, transfer)
  into balanced debit/credit ledger entries, maintains per-account running
  balances, and aggregates entries into financial statements. The ledger is
  the single source of truth: every report is derived by replaying entries,
  never stored as authoritative state.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: one classified economic event (immutable amount/kind/tenant)
  - LedgerEntry: one side of a balanced posting (debit XOR credit)
  - Kind/Source: event classification and provenance tags
  - TransactionRequest: the inbound contract collaborators call with

DESIGN PRINCIPLES:
  1. Append-only: entries are never edited, corrections are new entries
  2. Precision: decimal.Decimal everywhere, never float64 for money
  3. Tenant isolation: every type carries a TenantID and every query filters by it
  4. Balance: for one transaction, total debits always equal total credits

SEE ALSO:
  - classifier.go: Validation, categorization, idempotent ingestion
  - posting.go: Posting templates and running-balance computation
  - reporting.go: P&L, balance sheet, cash flow, dashboard
  - store.go: Persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type TransactionID string
type EntryID string

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Kind identifies the economic shape of a transaction and selects its
// posting template.
type Kind string

const (
	KindIncome   Kind = "income"
	KindExpense  Kind = "expense"
	KindTransfer Kind = "transfer"
)

// ValidKind reports whether k is one of the known transaction kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

// Source tags where a transaction entered the system. Machine sources
// participate in reference-based deduplication; manual ones do not.
type Source string

const (
	SourceManual     Source = "manual"
	SourceExpense    Source = "expense"
	SourceUPI        Source = "upi"
	SourceBankImport Source = "bank_import"
)

// MachineSource reports whether s is an automated ingestion path whose
// deliveries may repeat and therefore must be deduplicated.
func MachineSource(s Source) bool {
	return s == SourceUPI || s == SourceBankImport
}

// =============================================================================
// ACCOUNT TYPES
// =============================================================================

// AccountType is the accounting class of an account. Asset and expense
// accounts are debit-normal; liability, equity and income accounts are
// credit-normal.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// =============================================================================
// TRANSACTION - One classified economic event
// =============================================================================

type Transaction struct {
	ID            TransactionID
	TenantID      TenantID
	Kind          Kind
	Amount        decimal.Decimal // always positive
	Description   string
	Category      string
	PaymentMethod string
	Reference     string // external id, dedup key for machine sources
	Vendor        string
	OccurredAt    time.Time // date granularity, UTC
	Source        Source
	Metadata      map[string]string
	CreatedAt     time.Time
}

// =============================================================================
// LEDGER ENTRY - One side of a balanced posting
// =============================================================================

// LedgerEntry is one debit or credit line. Exactly one of Debit/Credit is
// non-zero. RunningBalance is the cumulative debit-minus-credit total for
// (TenantID, Account) at this entry, in creation (Seq) order.
type LedgerEntry struct {
	ID             EntryID
	TenantID       TenantID
	TransactionID  TransactionID // empty for entries originating outside the transaction flow
	Account        string
	AccountType    AccountType
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	Description    string
	OccurredAt     time.Time
	RunningBalance decimal.Decimal

	// Seq is the store-assigned creation sequence. It totally orders entries
	// within a store and makes the running-balance recurrence well-defined.
	Seq       int64
	CreatedAt time.Time
}

// Delta returns the signed effect of the entry on its account balance
// (debit-positive).
func (e LedgerEntry) Delta() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// =============================================================================
// TRANSACTION REQUEST - Inbound contract
// =============================================================================

// TransactionRequest is what collaborators (manual entry API, expense module,
// UPI webhook, bank importer) hand to the Classifier. Payload-shape
// validation beyond amount positivity and kind is the caller's job.
type TransactionRequest struct {
	TenantID      TenantID
	Kind          Kind
	Amount        decimal.Decimal
	Description   string
	Category      string
	PaymentMethod string
	Reference     string
	Vendor        string
	OccurredAt    time.Time // zero value means "today"
	Source        Source
	Metadata      map[string]string
}

// Metadata keys understood by the transfer posting template.
const (
	MetaFromAccount = "from_account"
	MetaToAccount   = "to_account"
)

// MustDecimal parses s as a decimal, returning zero on error.
// Intended for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Day truncates t to date granularity in UTC. OccurredAt values are stored
// at day granularity so range queries are stable across time zones.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
