/*
store.go - Persistence interfaces for the ledger core

PURPOSE:
  Defines the boundary between domain logic and the database. The Store
  keeps the ledger append-only: entries have no update path, and the only
  delete is the transaction cascade (a transaction is never removed while
  its entries survive, and vice versa).

KEY INTERFACES:
  Store:         Transaction rows + ledger entries (append, scan, last balance)
  TxStore:       Store with atomic multi-write support
  SnapshotStore: Durable report payload fallback for the cache worker

APPEND-ONLY CONTRACT:
  - AppendEntries() is the only entry write, and it is atomic: the full set
    for one posting lands or none of it does.
  - No entry update method exists. Corrections are offsetting entries.
  - DeleteTransaction() cascades to entries; it exists for the admin
    correction path only.

ORDERING:
  Implementations assign each entry a monotonically increasing Seq at write
  time. Within one (tenant, account) the Seq order is the creation order the
  running-balance recurrence is defined over.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - ledger/store: in-memory store for tests and dev
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Transactions and ledger entries
// =============================================================================

type Store interface {
	// CreateTransaction persists a new transaction row.
	CreateTransaction(ctx context.Context, tx Transaction) error

	// GetTransaction returns a tenant's transaction by id.
	// Returns ErrTransactionNotFound if absent.
	GetTransaction(ctx context.Context, tenant TenantID, id TransactionID) (Transaction, error)

	// FindByReference looks up the dedup triple (tenant, source, reference).
	// Returns (nil, nil) when no match exists.
	FindByReference(ctx context.Context, tenant TenantID, source Source, reference string) (*Transaction, error)

	// ListTransactions returns a tenant's transactions with OccurredAt in
	// [from, to], ordered by OccurredAt then creation.
	ListTransactions(ctx context.Context, tenant TenantID, from, to time.Time) ([]Transaction, error)

	// DeleteTransaction removes a transaction and all of its ledger entries.
	// This is the only delete in the system (cascade rule).
	DeleteTransaction(ctx context.Context, tenant TenantID, id TransactionID) error

	// AppendEntries persists a posting's full entry set atomically and
	// assigns each entry its Seq. Returns the stored entries.
	AppendEntries(ctx context.Context, entries []LedgerEntry) ([]LedgerEntry, error)

	// EntriesForTransaction returns the entries posted for one transaction,
	// in Seq order.
	EntriesForTransaction(ctx context.Context, tenant TenantID, id TransactionID) ([]LedgerEntry, error)

	// EntriesInRange returns a tenant's entries with OccurredAt in [from, to],
	// in Seq order. This is the reporting scan.
	EntriesInRange(ctx context.Context, tenant TenantID, from, to time.Time) ([]LedgerEntry, error)

	// EntriesForAccount returns all entries for (tenant, account) in Seq order.
	EntriesForAccount(ctx context.Context, tenant TenantID, account string) ([]LedgerEntry, error)

	// LastRunningBalance returns the running balance of the most recent entry
	// for (tenant, account), by Seq. ok is false when no entry exists and the
	// baseline is zero.
	LastRunningBalance(ctx context.Context, tenant TenantID, account string) (balance decimal.Decimal, ok bool, err error)

	// ListTenants returns every tenant that has at least one transaction.
	// Used by the worker's scheduled full refresh.
	ListTenants(ctx context.Context) ([]TenantID, error)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support. The posting engine requires
// it: a transaction row and its entry set must commit or roll back together.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// SNAPSHOT STORE - Durable report fallback
// =============================================================================

// SnapshotStore persists computed report payloads so a cold cache (restart,
// eviction) can still serve the last known report. Snapshots are derived
// data: safe to discard and regenerate at any time.
type SnapshotStore interface {
	SaveReportSnapshot(ctx context.Context, snap ReportSnapshot) error

	// LoadReportSnapshot returns the stored snapshot for
	// (tenant, report type, period key), or (nil, nil) if absent.
	LoadReportSnapshot(ctx context.Context, tenant TenantID, typ ReportType, periodKey string) (*ReportSnapshot, error)
}
