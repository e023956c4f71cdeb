package ledger_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
	memstore "github.com/warp/ledger-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine() (*ledger.Engine, *memstore.TxMemory) {
	store := memstore.NewTxMemory()
	engine := ledger.NewEngine(store, ledger.NewChart(), ledger.NopQueue{}).
		WithClock(func() time.Time { return testClock })
	return engine, store
}

func testTx(tenant string, kind ledger.Kind, amount string) ledger.Transaction {
	return ledger.Transaction{
		ID:         ledger.TransactionID(uuid.NewString()),
		TenantID:   ledger.TenantID(tenant),
		Kind:       kind,
		Amount:     ledger.MustDecimal(amount),
		OccurredAt: ledger.Day(testClock),
	}
}

func entryFor(t *testing.T, entries []ledger.LedgerEntry, account string) ledger.LedgerEntry {
	t.Helper()
	for _, e := range entries {
		if e.Account == account {
			return e
		}
	}
	t.Fatalf("no entry for account %q", account)
	return ledger.LedgerEntry{}
}

func assertBalanced(t *testing.T, entries []ledger.LedgerEntry) {
	t.Helper()
	var debits, credits decimal.Decimal
	for _, e := range entries {
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	assert.True(t, debits.Equal(credits), "debits %s != credits %s", debits, credits)
}

// =============================================================================
// POSTING TEMPLATE TESTS
// =============================================================================

func TestEngine_Post_IncomeCash(t *testing.T) {
	// GIVEN: A cash income of 1000
	// WHEN: Posting
	// THEN: Debit Cash 1000, credit Sales Revenue 1000

	engine, _ := newTestEngine()

	tx := testTx("shop-1", ledger.KindIncome, "1000")
	tx.PaymentMethod = "cash"

	entries, err := engine.Post(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assertBalanced(t, entries)

	cash := entryFor(t, entries, ledger.AccountCash)
	assert.True(t, cash.Debit.Equal(ledger.MustDecimal("1000")))
	assert.True(t, cash.Credit.IsZero())
	assert.Equal(t, ledger.AccountAsset, cash.AccountType)

	revenue := entryFor(t, entries, ledger.AccountSalesRevenue)
	assert.True(t, revenue.Credit.Equal(ledger.MustDecimal("1000")))
	assert.Equal(t, ledger.AccountIncome, revenue.AccountType)
}

func TestEngine_Post_IncomeDefaultsToBank(t *testing.T) {
	// Anything that isn't explicitly cash settles through the bank account.
	engine, _ := newTestEngine()

	tx := testTx("shop-1", ledger.KindIncome, "250")
	tx.PaymentMethod = "upi"

	entries, err := engine.Post(context.Background(), tx)
	require.NoError(t, err)

	bank := entryFor(t, entries, ledger.AccountBank)
	assert.True(t, bank.Debit.Equal(ledger.MustDecimal("250")))
}

func TestEngine_Post_ExpenseDebitsCategoryAccount(t *testing.T) {
	// GIVEN: A 300 cash expense categorized Rent
	// WHEN: Posting
	// THEN: Debit Rent 300, credit Cash 300 (Rent registered on the fly)

	engine, _ := newTestEngine()

	tx := testTx("shop-1", ledger.KindExpense, "300")
	tx.Category = "Rent"
	tx.PaymentMethod = "cash"

	entries, err := engine.Post(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assertBalanced(t, entries)

	rent := entryFor(t, entries, "Rent")
	assert.True(t, rent.Debit.Equal(ledger.MustDecimal("300")))
	assert.Equal(t, ledger.AccountExpense, rent.AccountType)

	cash := entryFor(t, entries, ledger.AccountCash)
	assert.True(t, cash.Credit.Equal(ledger.MustDecimal("300")))
}

func TestEngine_Post_ExpenseWithoutCategoryUsesGeneral(t *testing.T) {
	engine, _ := newTestEngine()

	entries, err := engine.Post(context.Background(), testTx("shop-1", ledger.KindExpense, "50"))
	require.NoError(t, err)

	general := entryFor(t, entries, ledger.CategoryGeneral)
	assert.True(t, general.Debit.Equal(ledger.MustDecimal("50")))
}

func TestEngine_Post_TransferDefaultsCashToBank(t *testing.T) {
	// GIVEN: A transfer with no account metadata
	// WHEN: Posting
	// THEN: Credit Cash (source), debit Bank Account (destination), and the
	//       P&L accounts are untouched

	engine, _ := newTestEngine()

	entries, err := engine.Post(context.Background(), testTx("shop-1", ledger.KindTransfer, "400"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assertBalanced(t, entries)

	cash := entryFor(t, entries, ledger.AccountCash)
	assert.True(t, cash.Credit.Equal(ledger.MustDecimal("400")))

	bank := entryFor(t, entries, ledger.AccountBank)
	assert.True(t, bank.Debit.Equal(ledger.MustDecimal("400")))

	for _, e := range entries {
		assert.Equal(t, ledger.AccountAsset, e.AccountType, "transfers must not touch P&L accounts")
	}
}

func TestEngine_Post_TransferHonorsMetadata(t *testing.T) {
	engine, _ := newTestEngine()

	tx := testTx("shop-1", ledger.KindTransfer, "400")
	tx.Metadata = map[string]string{
		ledger.MetaFromAccount: "bank account",
		ledger.MetaToAccount:   "CASH",
	}

	entries, err := engine.Post(context.Background(), tx)
	require.NoError(t, err)

	// Names resolve case-insensitively to their canonical spelling.
	bank := entryFor(t, entries, ledger.AccountBank)
	assert.True(t, bank.Credit.Equal(ledger.MustDecimal("400")))
	cash := entryFor(t, entries, ledger.AccountCash)
	assert.True(t, cash.Debit.Equal(ledger.MustDecimal("400")))
}

func TestEngine_Post_TransferSameAccountRejected(t *testing.T) {
	engine, _ := newTestEngine()

	tx := testTx("shop-1", ledger.KindTransfer, "400")
	tx.Metadata = map[string]string{
		ledger.MetaFromAccount: "Cash",
		ledger.MetaToAccount:   " cash ",
	}

	_, err := engine.Post(context.Background(), tx)
	var ve *ledger.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestEngine_Post_TransferUnknownAccountRejected(t *testing.T) {
	engine, _ := newTestEngine()

	tx := testTx("shop-1", ledger.KindTransfer, "400")
	tx.Metadata = map[string]string{ledger.MetaToAccount: "Savings"}

	_, err := engine.Post(context.Background(), tx)
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)
}

// =============================================================================
// RUNNING BALANCE TESTS
// =============================================================================

func TestEngine_Post_RunningBalanceSequence(t *testing.T) {
	// GIVEN: Income 1000 in cash, then expense 300 (Rent) in cash
	// WHEN: Posting both
	// THEN: Cash running balance goes 1000, then 700

	engine, store := newTestEngine()
	ctx := context.Background()

	income := testTx("shop-1", ledger.KindIncome, "1000")
	income.PaymentMethod = "cash"
	_, err := engine.Post(ctx, income)
	require.NoError(t, err)

	expense := testTx("shop-1", ledger.KindExpense, "300")
	expense.Category = "Rent"
	expense.PaymentMethod = "cash"
	_, err = engine.Post(ctx, expense)
	require.NoError(t, err)

	cashEntries, err := store.EntriesForAccount(ctx, "shop-1", ledger.AccountCash)
	require.NoError(t, err)
	require.Len(t, cashEntries, 2)
	assert.True(t, cashEntries[0].RunningBalance.Equal(ledger.MustDecimal("1000")))
	assert.True(t, cashEntries[1].RunningBalance.Equal(ledger.MustDecimal("700")))

	balance, ok, err := store.LastRunningBalance(ctx, "shop-1", ledger.AccountCash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, balance.Equal(ledger.MustDecimal("700")))
}

func TestEngine_Post_RunningBalanceIsPerTenant(t *testing.T) {
	engine, store := newTestEngine()
	ctx := context.Background()

	for _, tenant := range []string{"shop-1", "shop-2"} {
		tx := testTx(tenant, ledger.KindIncome, "100")
		tx.PaymentMethod = "cash"
		_, err := engine.Post(ctx, tx)
		require.NoError(t, err)
	}

	for _, tenant := range []ledger.TenantID{"shop-1", "shop-2"} {
		balance, ok, err := store.LastRunningBalance(ctx, tenant, ledger.AccountCash)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, balance.Equal(ledger.MustDecimal("100")), "tenant %s", tenant)
	}
}

func TestEngine_Post_ConcurrentPostingsKeepRecurrence(t *testing.T) {
	// GIVEN: Many goroutines posting cash income to the same tenant
	// WHEN: All complete
	// THEN: Every entry's running balance equals the previous balance plus
	//       the entry delta, in seq order, and the final balance is the sum

	engine, store := newTestEngine()
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := testTx("shop-1", ledger.KindIncome, "10")
			tx.Description = fmt.Sprintf("sale %d", i)
			tx.PaymentMethod = "cash"
			_, err := engine.Post(ctx, tx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := store.EntriesForAccount(ctx, "shop-1", ledger.AccountCash)
	require.NoError(t, err)
	require.Len(t, entries, n)

	prev := decimal.Zero
	for i, e := range entries {
		want := prev.Add(e.Delta())
		assert.True(t, e.RunningBalance.Equal(want),
			"entry %d: running balance %s, want %s", i, e.RunningBalance, want)
		prev = e.RunningBalance
	}
	assert.True(t, prev.Equal(ledger.MustDecimal("250")))
}

// =============================================================================
// RECOMPUTE TRIGGER TESTS
// =============================================================================

func TestEngine_Post_EnqueuesDashboardRecompute(t *testing.T) {
	store := memstore.NewTxMemory()
	queue := ledger.NewChannelQueue(4)
	engine := ledger.NewEngine(store, ledger.NewChart(), queue).
		WithClock(func() time.Time { return testClock })

	_, err := engine.Post(context.Background(), testTx("shop-1", ledger.KindIncome, "100"))
	require.NoError(t, err)

	select {
	case job := <-queue.Jobs():
		assert.Equal(t, ledger.TenantID("shop-1"), job.TenantID)
		assert.Equal(t, ledger.ReportDashboard, job.Report)
		assert.Equal(t, ledger.MonthToDate(testClock), job.Period)
	default:
		t.Fatal("expected a recompute job after a successful posting")
	}
}

func TestEngine_Post_FullQueueDoesNotFailPosting(t *testing.T) {
	store := memstore.NewTxMemory()
	queue := ledger.NewChannelQueue(1)
	engine := ledger.NewEngine(store, ledger.NewChart(), queue)

	ctx := context.Background()
	_, err := engine.Post(ctx, testTx("shop-1", ledger.KindIncome, "100"))
	require.NoError(t, err)

	// Queue is now full; the next posting still succeeds.
	_, err = engine.Post(ctx, testTx("shop-1", ledger.KindIncome, "100"))
	assert.NoError(t, err)
}
