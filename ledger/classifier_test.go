package ledger_test

import (
	"context"
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

var testClock = time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

func newTestClassifier() *ledger.Classifier {
	return ledger.NewClassifier(memstore.NewMemory()).
		WithClock(func() time.Time { return testClock })
}

func incomeReq(tenant, amount string) ledger.TransactionRequest {
	return ledger.TransactionRequest{
		TenantID: ledger.TenantID(tenant),
		Kind:     ledger.KindIncome,
		Amount:   ledger.MustDecimal(amount),
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestClassifier_RejectsNonPositiveAmount(t *testing.T) {
	// GIVEN: Requests with zero and negative amounts
	// WHEN: Classifying
	// THEN: Both are rejected before any persistence

	c := newTestClassifier()
	ctx := context.Background()

	for _, amount := range []string{"0", "-100"} {
		req := incomeReq("shop-1", amount)
		_, _, err := c.Classify(ctx, req)

		assert.Error(t, err, "amount %s should be rejected", amount)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	}
}

func TestClassifier_RejectsUnknownKind(t *testing.T) {
	c := newTestClassifier()

	req := incomeReq("shop-1", "100")
	req.Kind = "refund"
	_, _, err := c.Classify(context.Background(), req)

	assert.ErrorIs(t, err, ledger.ErrUnknownKind)
}

func TestClassifier_RequiresTenant(t *testing.T) {
	c := newTestClassifier()

	req := incomeReq("", "100")
	_, _, err := c.Classify(context.Background(), req)

	require.Error(t, err)
	var ve *ledger.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "tenantId", ve.Field)
}

// =============================================================================
// DEFAULTS AND DERIVATION
// =============================================================================

func TestClassifier_DefaultsSourceAndDate(t *testing.T) {
	// GIVEN: A request with no source and no date
	// WHEN: Classifying
	// THEN: Source defaults to manual, OccurredAt to today (date granularity)

	c := newTestClassifier()

	tx, created, err := c.Classify(context.Background(), incomeReq("shop-1", "100"))

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ledger.SourceManual, tx.Source)
	assert.Equal(t, ledger.Day(testClock), tx.OccurredAt)
	assert.NotEmpty(t, tx.ID)
}

func TestClassifier_DerivesExpenseCategory(t *testing.T) {
	c := newTestClassifier()
	ctx := context.Background()

	tests := []struct {
		description string
		want        string
	}{
		{"Office rent for March", "Rent"},
		{"Electricity bill", "Utilities"},
		{"Staff salary payout", "Salaries"},
		{"Petrol for delivery bike", "Fuel"},
		{"Something unclassifiable", ledger.CategoryGeneral},
	}
	for _, tt := range tests {
		req := incomeReq("shop-1", "50")
		req.Kind = ledger.KindExpense
		req.Description = tt.description

		tx, _, err := c.Classify(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, tx.Category, "description %q", tt.description)
	}
}

func TestClassifier_KeepsExplicitCategory(t *testing.T) {
	// An explicit category wins over the keyword heuristic.
	c := newTestClassifier()

	req := incomeReq("shop-1", "50")
	req.Kind = ledger.KindExpense
	req.Description = "Office rent for March"
	req.Category = "Premises"

	tx, _, err := c.Classify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Premises", tx.Category)
}

func TestCategorizeExpense_FirstKeywordWins(t *testing.T) {
	// "rent" is checked before "travel", so a description containing both
	// buckets as Rent.
	assert.Equal(t, "Rent", ledger.CategorizeExpense("Rent for travel office"))
}

// =============================================================================
// IDEMPOTENT INGESTION
// =============================================================================

func TestClassifier_MachineSourceDeduplicates(t *testing.T) {
	// GIVEN: A UPI webhook delivered twice with the same reference
	// WHEN: Classifying both deliveries
	// THEN: Only one transaction exists; the second returns the original

	c := newTestClassifier()
	ctx := context.Background()

	req := incomeReq("shop-1", "500")
	req.Source = ledger.SourceUPI
	req.Reference = "TXN123"

	first, created, err := c.Classify(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := c.Classify(ctx, req)
	require.NoError(t, err)
	assert.False(t, created, "redelivery must not create a new transaction")
	assert.Equal(t, first.ID, second.ID)
}

// racingStore reports a dedup-lookup miss for the first misses calls, so a
// second delivery reaches the insert the way a concurrent one would.
type racingStore struct {
	*memstore.Memory
	misses int
}

func (s *racingStore) FindByReference(ctx context.Context, tenant ledger.TenantID, source ledger.Source, reference string) (*ledger.Transaction, error) {
	if s.misses > 0 {
		s.misses--
		return nil, nil
	}
	return s.Memory.FindByReference(ctx, tenant, source, reference)
}

func TestClassifier_ConcurrentDeliveryLosesInsertRace(t *testing.T) {
	// GIVEN: Two deliveries of the same reference where the second one's
	//        dedup lookup ran before the first one's insert committed
	// WHEN: The second insert hits the unique reference key
	// THEN: It is treated as the soft duplicate it is and returns the
	//       winner's transaction, not an error

	store := &racingStore{Memory: memstore.NewMemory(), misses: 2}
	c := ledger.NewClassifier(store).WithClock(func() time.Time { return testClock })
	ctx := context.Background()

	req := incomeReq("shop-1", "500")
	req.Source = ledger.SourceUPI
	req.Reference = "TXN123"

	first, created, err := c.Classify(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := c.Classify(ctx, req)
	require.NoError(t, err, "losing the insert race must not surface an error")
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestClassifier_ManualSourceNeverDeduplicates(t *testing.T) {
	// Manual entries may legitimately repeat a reference (two cash sales
	// noted against the same invoice), so no dedup applies.

	c := newTestClassifier()
	ctx := context.Background()

	req := incomeReq("shop-1", "500")
	req.Reference = "INV-7"

	first, created, err := c.Classify(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := c.Classify(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestClassifier_DedupIsPerTenant(t *testing.T) {
	// The same gateway reference arriving for two tenants is two events.

	c := newTestClassifier()
	ctx := context.Background()

	req := incomeReq("shop-1", "500")
	req.Source = ledger.SourceUPI
	req.Reference = "TXN123"

	_, created, err := c.Classify(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)

	req.TenantID = "shop-2"
	_, created, err = c.Classify(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
}
