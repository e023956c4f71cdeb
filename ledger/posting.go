/*
posting.go - Double-entry posting engine

PURPOSE:
  Derives the balanced debit/credit entry set for a classified transaction
  and commits it with computed running balances. This is the only writer of
  ledger entries in the system.

CRITICAL INVARIANTS:
  1. BALANCED: for one transaction, sum(debits) == sum(credits). The
     templates guarantee this algebraically and Post asserts it anyway.
  2. ATOMIC: the full entry set commits or none of it does. A partial
     posting must never be observable.
  3. ORDERED: the running balance of (tenant, account) is a strict
     read-last-then-append recurrence. Two concurrent postings to the same
     account would race the read, so Post serializes per key with a striped
     mutex before touching the store.

POSTING TEMPLATES (by kind):
  income:   debit Cash/Bank Account (by payment method), credit Sales Revenue
  expense:  debit the category expense account, credit Cash/Bank Account
  transfer: debit destination asset account, credit source asset account
            (resolved from metadata, defaulting cash -> bank)

SEE ALSO:
  - classifier.go: Produces the Transaction this engine posts
  - store.go: TxStore the atomic append runs through
  - queue.go: Fire-and-forget recompute trigger on success
*/
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PER-KEY SERIALIZATION
// =============================================================================

// keyMutex hands out one mutex per (tenant, account) key. Locks are acquired
// in sorted key order so multi-account postings cannot deadlock each other.
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyMutex) lockAll(keys []string) (unlock func()) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var acquired []*sync.Mutex
	seen := make(map[string]bool, len(sorted))
	for _, key := range sorted {
		if seen[key] {
			continue
		}
		seen[key] = true

		k.mu.Lock()
		m, ok := k.locks[key]
		if !ok {
			m = &sync.Mutex{}
			k.locks[key] = m
		}
		k.mu.Unlock()

		m.Lock()
		acquired = append(acquired, m)
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func accountKey(tenant TenantID, account string) string {
	return string(tenant) + "\x00" + account
}

// =============================================================================
// POSTING ENGINE
// =============================================================================

type Engine struct {
	store TxStore
	chart *Chart
	queue RecomputeQueue
	locks *keyMutex
	now   func() time.Time
}

func NewEngine(store TxStore, chart *Chart, queue RecomputeQueue) *Engine {
	if chart == nil {
		chart = NewChart()
	}
	if queue == nil {
		queue = NopQueue{}
	}
	return &Engine{
		store: store,
		chart: chart,
		queue: queue,
		locks: newKeyMutex(),
		now:   time.Now,
	}
}

// WithClock overrides the engine's clock. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// leg is one derived side of a posting before it becomes a LedgerEntry.
type leg struct {
	account Account
	debit   decimal.Decimal
	credit  decimal.Decimal
}

// Post derives and commits the balanced entry set for tx. On success it
// enqueues a dashboard recompute; the enqueue result is deliberately
// ignored (staleness is acceptable, partial postings are not).
func (e *Engine) Post(ctx context.Context, tx Transaction) ([]LedgerEntry, error) {
	legs, err := e.deriveLegs(tx)
	if err != nil {
		return nil, err
	}

	// Template construction guarantees balance; assert it anyway so a
	// template bug can never reach the store.
	var debits, credits decimal.Decimal
	keys := make([]string, 0, len(legs))
	for _, l := range legs {
		debits = debits.Add(l.debit)
		credits = credits.Add(l.credit)
		keys = append(keys, accountKey(tx.TenantID, l.account.Name))
	}
	if !debits.Equal(credits) {
		return nil, fmt.Errorf("%w: debits %s != credits %s", ErrUnbalancedPosting, debits, credits)
	}

	// Serialize the read-last/append sequence per (tenant, account).
	unlock := e.locks.lockAll(keys)
	defer unlock()

	var stored []LedgerEntry
	err = e.store.WithTx(ctx, func(s Store) error {
		entries := make([]LedgerEntry, 0, len(legs))
		for _, l := range legs {
			prev, _, err := s.LastRunningBalance(ctx, tx.TenantID, l.account.Name)
			if err != nil {
				return fmt.Errorf("read last balance for %q: %w", l.account.Name, err)
			}
			entries = append(entries, LedgerEntry{
				ID:             EntryID(uuid.NewString()),
				TenantID:       tx.TenantID,
				TransactionID:  tx.ID,
				Account:        l.account.Name,
				AccountType:    l.account.Type,
				Debit:          l.debit,
				Credit:         l.credit,
				Description:    tx.Description,
				OccurredAt:     tx.OccurredAt,
				RunningBalance: prev.Add(l.debit).Sub(l.credit),
				CreatedAt:      e.now().UTC(),
			})
		}
		var err error
		stored, err = s.AppendEntries(ctx, entries)
		return err
	})
	if err != nil {
		return nil, &PostingError{TransactionID: tx.ID, TenantID: tx.TenantID, Err: err}
	}

	// Fire-and-forget: the worker or the next schedule tick self-heals a
	// dropped trigger.
	_ = e.queue.Enqueue(ctx, RecomputeJob{
		TenantID: tx.TenantID,
		Report:   ReportDashboard,
		Period:   MonthToDate(e.now()),
	})

	return stored, nil
}

// deriveLegs selects the posting template purely from tx.Kind.
func (e *Engine) deriveLegs(tx Transaction) ([]leg, error) {
	settlement := e.settlementAccount(tx.TenantID, tx.PaymentMethod)

	switch tx.Kind {
	case KindIncome:
		revenue, err := e.chart.Resolve(tx.TenantID, AccountSalesRevenue)
		if err != nil {
			return nil, err
		}
		return []leg{
			{account: settlement, debit: tx.Amount},
			{account: revenue, credit: tx.Amount},
		}, nil

	case KindExpense:
		category := tx.Category
		if category == "" {
			category = CategoryGeneral
		}
		expense := e.chart.ResolveOrRegister(tx.TenantID, category, AccountExpense)
		return []leg{
			{account: expense, debit: tx.Amount},
			{account: settlement, credit: tx.Amount},
		}, nil

	case KindTransfer:
		return e.transferLegs(tx)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tx.Kind)
	}
}

// transferLegs moves value between two asset accounts: debit destination,
// credit source. Neither leg touches an income or expense account, so
// transfers are invisible to the P&L while keeping the ledger balanced.
func (e *Engine) transferLegs(tx Transaction) ([]leg, error) {
	fromName := tx.Metadata[MetaFromAccount]
	if fromName == "" {
		fromName = AccountCash
	}
	toName := tx.Metadata[MetaToAccount]
	if toName == "" {
		toName = AccountBank
	}

	from, err := e.chart.Resolve(tx.TenantID, fromName)
	if err != nil {
		return nil, err
	}
	to, err := e.chart.Resolve(tx.TenantID, toName)
	if err != nil {
		return nil, err
	}
	if from.Name == to.Name {
		return nil, &ValidationError{Field: "metadata", Message: "transfer source and destination are the same account"}
	}
	return []leg{
		{account: to, debit: tx.Amount},
		{account: from, credit: tx.Amount},
	}, nil
}

func (e *Engine) settlementAccount(tenant TenantID, paymentMethod string) Account {
	name := AccountBank
	if paymentMethod == "cash" {
		name = AccountCash
	}
	a, _ := e.chart.Resolve(tenant, name)
	return a
}
