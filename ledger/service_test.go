package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
	memstore "github.com/warp/ledger-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService() (*ledger.Service, *memstore.TxMemory) {
	store := memstore.NewTxMemory()
	return newServiceWith(store), store
}

func newServiceWith(store ledger.TxStore) *ledger.Service {
	clock := func() time.Time { return testClock }
	classifier := ledger.NewClassifier(store).WithClock(clock)
	engine := ledger.NewEngine(store, ledger.NewChart(), ledger.NopQueue{}).WithClock(clock)
	return ledger.NewService(store, classifier, engine)
}

// brokenTxStore fails every WithTx, simulating a database that accepts the
// transaction row but cannot commit entries.
type brokenTxStore struct {
	*memstore.TxMemory
}

var errBrokenTx = errors.New("disk full")

func (b *brokenTxStore) WithTx(context.Context, func(ledger.Store) error) error {
	return errBrokenTx
}

// =============================================================================
// RECORD PIPELINE TESTS
// =============================================================================

func TestService_Record_PostsBalancedEntries(t *testing.T) {
	service, store := newTestService()
	ctx := context.Background()

	req := incomeReq("shop-1", "1000")
	req.PaymentMethod = "cash"

	tx, entries, created, err := service.Record(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, entries, 2)
	assertBalanced(t, entries)

	// The row and its entries are both visible.
	stored, err := store.GetTransaction(ctx, "shop-1", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, stored.ID)
}

func TestService_Record_DuplicateWebhookDeliveredTwice(t *testing.T) {
	// GIVEN: A UPI webhook for reference TXN123
	// WHEN: It is delivered twice (at-least-once delivery)
	// THEN: Exactly one transaction and one entry set exist; the second
	//       delivery returns the original posting unchanged

	service, store := newTestService()
	ctx := context.Background()

	req := incomeReq("shop-1", "500")
	req.Source = ledger.SourceUPI
	req.Reference = "TXN123"

	first, firstEntries, created, err := service.Record(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, firstEntries, 2)

	second, secondEntries, created, err := service.Record(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, firstEntries, secondEntries)

	// Still only one posting in the ledger.
	all, err := store.EntriesForTransaction(ctx, "shop-1", first.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	balance, _, err := store.LastRunningBalance(ctx, "shop-1", ledger.AccountBank)
	require.NoError(t, err)
	assert.True(t, balance.Equal(ledger.MustDecimal("500")), "redelivery must not double the balance")
}

func TestService_Record_PostingFailureLeavesNoTrace(t *testing.T) {
	// GIVEN: A store whose entry commit always fails
	// WHEN: Recording
	// THEN: The transaction row is rolled back; nothing is observable

	store := &brokenTxStore{TxMemory: memstore.NewTxMemory()}
	service := newServiceWith(store)
	ctx := context.Background()

	_, _, _, err := service.Record(ctx, incomeReq("shop-1", "100"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrPostingFailed)

	txs, err := store.ListTransactions(ctx, "shop-1", time.Time{}, testClock.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, txs, "failed posting must not leave a transaction row")
}

func TestService_Record_ValidationFailureWritesNothing(t *testing.T) {
	service, store := newTestService()
	ctx := context.Background()

	_, _, _, err := service.Record(ctx, incomeReq("shop-1", "-5"))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	txs, err := store.ListTransactions(ctx, "shop-1", time.Time{}, testClock.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// =============================================================================
// DELETE (CASCADE) TESTS
// =============================================================================

func TestService_Delete_CascadesToEntries(t *testing.T) {
	// GIVEN: A posted transaction
	// WHEN: Deleting it
	// THEN: The row and both entries are gone together

	service, store := newTestService()
	ctx := context.Background()

	tx, _, _, err := service.Record(ctx, incomeReq("shop-1", "100"))
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, "shop-1", tx.ID))

	_, err = store.GetTransaction(ctx, "shop-1", tx.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)

	entries, err := store.EntriesForTransaction(ctx, "shop-1", tx.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_Delete_UnknownTransaction(t *testing.T) {
	service, _ := newTestService()

	err := service.Delete(context.Background(), "shop-1", "missing")
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestService_Delete_WrongTenant(t *testing.T) {
	// A tenant cannot delete another tenant's transaction.
	service, _ := newTestService()
	ctx := context.Background()

	tx, _, _, err := service.Record(ctx, incomeReq("shop-1", "100"))
	require.NoError(t, err)

	err = service.Delete(ctx, "shop-2", tx.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}
