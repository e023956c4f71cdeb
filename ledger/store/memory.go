// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	transactions map[ledger.TenantID]map[ledger.TransactionID]ledger.Transaction
	refs         map[refKey]ledger.TransactionID
	entries      []ledger.LedgerEntry
	snapshots    map[snapKey]ledger.ReportSnapshot
	nextSeq      int64
}

type refKey struct {
	Tenant    ledger.TenantID
	Source    ledger.Source
	Reference string
}

type snapKey struct {
	Tenant    ledger.TenantID
	Type      ledger.ReportType
	PeriodKey string
}

func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[ledger.TenantID]map[ledger.TransactionID]ledger.Transaction),
		refs:         make(map[refKey]ledger.TransactionID),
		snapshots:    make(map[snapKey]ledger.ReportSnapshot),
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (m *Memory) CreateTransaction(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createTransactionLocked(tx)
}

func (m *Memory) createTransactionLocked(tx ledger.Transaction) error {
	key := refKey{Tenant: tx.TenantID, Source: tx.Source, Reference: tx.Reference}
	if ledger.MachineSource(tx.Source) && tx.Reference != "" {
		// Same uniqueness rule the SQLite store enforces with its partial
		// index: one row per (tenant, machine source, reference).
		if _, exists := m.refs[key]; exists {
			return ledger.ErrDuplicateTransaction
		}
	}

	byID := m.transactions[tx.TenantID]
	if byID == nil {
		byID = make(map[ledger.TransactionID]ledger.Transaction)
		m.transactions[tx.TenantID] = byID
	}
	byID[tx.ID] = tx
	if tx.Reference != "" {
		m.refs[key] = tx.ID
	}
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, tenant ledger.TenantID, id ledger.TransactionID) (ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[tenant][id]
	if !ok {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *Memory) FindByReference(_ context.Context, tenant ledger.TenantID, source ledger.Source, reference string) (*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.refs[refKey{Tenant: tenant, Source: source, Reference: reference}]
	if !ok {
		return nil, nil
	}
	tx, ok := m.transactions[tenant][id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (m *Memory) ListTransactions(_ context.Context, tenant ledger.TenantID, from, to time.Time) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Transaction
	for _, tx := range m.transactions[tenant] {
		if tx.OccurredAt.Before(from) || tx.OccurredAt.After(to) {
			continue
		}
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].OccurredAt.Before(result[j].OccurredAt)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) DeleteTransaction(_ context.Context, tenant ledger.TenantID, id ledger.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteTransactionLocked(tenant, id)
	return nil
}

func (m *Memory) deleteTransactionLocked(tenant ledger.TenantID, id ledger.TransactionID) {
	tx, ok := m.transactions[tenant][id]
	if !ok {
		return
	}
	delete(m.transactions[tenant], id)
	if tx.Reference != "" {
		delete(m.refs, refKey{Tenant: tenant, Source: tx.Source, Reference: tx.Reference})
	}

	// Cascade: a transaction never leaves orphaned entries behind.
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.TenantID == tenant && e.TransactionID == id {
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
}

// =============================================================================
// LEDGER ENTRIES (append-only)
// =============================================================================

func (m *Memory) AppendEntries(_ context.Context, entries []ledger.LedgerEntry) ([]ledger.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendEntriesLocked(entries), nil
}

func (m *Memory) appendEntriesLocked(entries []ledger.LedgerEntry) []ledger.LedgerEntry {
	stored := make([]ledger.LedgerEntry, len(entries))
	for i, e := range entries {
		m.nextSeq++
		e.Seq = m.nextSeq
		m.entries = append(m.entries, e)
		stored[i] = e
	}
	return stored
}

func (m *Memory) EntriesForTransaction(_ context.Context, tenant ledger.TenantID, id ledger.TransactionID) ([]ledger.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.LedgerEntry
	for _, e := range m.entries {
		if e.TenantID == tenant && e.TransactionID == id {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) EntriesInRange(_ context.Context, tenant ledger.TenantID, from, to time.Time) ([]ledger.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entriesInRangeLocked(tenant, from, to), nil
}

func (m *Memory) entriesInRangeLocked(tenant ledger.TenantID, from, to time.Time) []ledger.LedgerEntry {
	var result []ledger.LedgerEntry
	for _, e := range m.entries {
		if e.TenantID != tenant {
			continue
		}
		if e.OccurredAt.Before(from) || e.OccurredAt.After(to) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func (m *Memory) EntriesForAccount(_ context.Context, tenant ledger.TenantID, account string) ([]ledger.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.LedgerEntry
	for _, e := range m.entries {
		if e.TenantID == tenant && e.Account == account {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) LastRunningBalance(_ context.Context, tenant ledger.TenantID, account string) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.lastRunningBalanceLocked(tenant, account)
	return b, ok, nil
}

func (m *Memory) lastRunningBalanceLocked(tenant ledger.TenantID, account string) (decimal.Decimal, bool) {
	// Entries are stored in Seq order, so the last match is the latest.
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.TenantID == tenant && e.Account == account {
			return e.RunningBalance, true
		}
	}
	return decimal.Zero, false
}

func (m *Memory) ListTenants(_ context.Context) ([]ledger.TenantID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tenants := make([]ledger.TenantID, 0, len(m.transactions))
	for tenant, byID := range m.transactions {
		if len(byID) > 0 {
			tenants = append(tenants, tenant)
		}
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i] < tenants[j] })
	return tenants, nil
}

// =============================================================================
// REPORT SNAPSHOTS
// =============================================================================

func (m *Memory) SaveReportSnapshot(_ context.Context, snap ledger.ReportSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapKey{Tenant: snap.TenantID, Type: snap.Type, PeriodKey: snap.PeriodKey}] = snap
	return nil
}

func (m *Memory) LoadReportSnapshot(_ context.Context, tenant ledger.TenantID, typ ledger.ReportType, periodKey string) (*ledger.ReportSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[snapKey{Tenant: tenant, Type: typ, PeriodKey: periodKey}]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a
// snapshot + rollback on error.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	view := &txMemoryView{parent: tm}

	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	transactions map[ledger.TenantID]map[ledger.TransactionID]ledger.Transaction
	refs         map[refKey]ledger.TransactionID
	entries      []ledger.LedgerEntry
	nextSeq      int64
}

func (tm *TxMemory) snapshot() memorySnapshot {
	txsCopy := make(map[ledger.TenantID]map[ledger.TransactionID]ledger.Transaction, len(tm.transactions))
	for tenant, byID := range tm.transactions {
		inner := make(map[ledger.TransactionID]ledger.Transaction, len(byID))
		for id, tx := range byID {
			inner[id] = tx
		}
		txsCopy[tenant] = inner
	}
	refsCopy := make(map[refKey]ledger.TransactionID, len(tm.refs))
	for k, v := range tm.refs {
		refsCopy[k] = v
	}
	return memorySnapshot{
		transactions: txsCopy,
		refs:         refsCopy,
		entries:      append([]ledger.LedgerEntry(nil), tm.entries...),
		nextSeq:      tm.nextSeq,
	}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.transactions = s.transactions
	tm.refs = s.refs
	tm.entries = s.entries
	tm.nextSeq = s.nextSeq
}

// txMemoryView calls the locked helpers directly: the parent mutex is held
// for the whole WithTx.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) CreateTransaction(_ context.Context, tx ledger.Transaction) error {
	return tv.parent.createTransactionLocked(tx)
}

func (tv *txMemoryView) GetTransaction(_ context.Context, tenant ledger.TenantID, id ledger.TransactionID) (ledger.Transaction, error) {
	tx, ok := tv.parent.transactions[tenant][id]
	if !ok {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, nil
}

func (tv *txMemoryView) FindByReference(_ context.Context, tenant ledger.TenantID, source ledger.Source, reference string) (*ledger.Transaction, error) {
	id, ok := tv.parent.refs[refKey{Tenant: tenant, Source: source, Reference: reference}]
	if !ok {
		return nil, nil
	}
	tx := tv.parent.transactions[tenant][id]
	return &tx, nil
}

func (tv *txMemoryView) ListTransactions(ctx context.Context, tenant ledger.TenantID, from, to time.Time) ([]ledger.Transaction, error) {
	var result []ledger.Transaction
	for _, tx := range tv.parent.transactions[tenant] {
		if !tx.OccurredAt.Before(from) && !tx.OccurredAt.After(to) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (tv *txMemoryView) DeleteTransaction(_ context.Context, tenant ledger.TenantID, id ledger.TransactionID) error {
	tv.parent.deleteTransactionLocked(tenant, id)
	return nil
}

func (tv *txMemoryView) AppendEntries(_ context.Context, entries []ledger.LedgerEntry) ([]ledger.LedgerEntry, error) {
	return tv.parent.appendEntriesLocked(entries), nil
}

func (tv *txMemoryView) EntriesForTransaction(_ context.Context, tenant ledger.TenantID, id ledger.TransactionID) ([]ledger.LedgerEntry, error) {
	var result []ledger.LedgerEntry
	for _, e := range tv.parent.entries {
		if e.TenantID == tenant && e.TransactionID == id {
			result = append(result, e)
		}
	}
	return result, nil
}

func (tv *txMemoryView) EntriesInRange(_ context.Context, tenant ledger.TenantID, from, to time.Time) ([]ledger.LedgerEntry, error) {
	return tv.parent.entriesInRangeLocked(tenant, from, to), nil
}

func (tv *txMemoryView) EntriesForAccount(_ context.Context, tenant ledger.TenantID, account string) ([]ledger.LedgerEntry, error) {
	var result []ledger.LedgerEntry
	for _, e := range tv.parent.entries {
		if e.TenantID == tenant && e.Account == account {
			result = append(result, e)
		}
	}
	return result, nil
}

func (tv *txMemoryView) LastRunningBalance(_ context.Context, tenant ledger.TenantID, account string) (decimal.Decimal, bool, error) {
	b, ok := tv.parent.lastRunningBalanceLocked(tenant, account)
	return b, ok, nil
}

func (tv *txMemoryView) ListTenants(_ context.Context) ([]ledger.TenantID, error) {
	tenants := make([]ledger.TenantID, 0, len(tv.parent.transactions))
	for tenant, byID := range tv.parent.transactions {
		if len(byID) > 0 {
			tenants = append(tenants, tenant)
		}
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i] < tenants[j] })
	return tenants, nil
}
