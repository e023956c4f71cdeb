/*
classifier.go - Transaction classification and idempotent ingestion

PURPOSE:
  Maps a raw business event to a Transaction row: validates the amount and
  kind, derives an expense category when the caller supplied none, and
  deduplicates machine-ingested events on (tenant, source, reference) so a
  redelivered webhook is a no-op instead of a duplicate posting.

CATEGORIZATION:
  The keyword table is a best-effort heuristic with a General Expense
  default. A wrong bucket moves an amount between expense accounts in
  reports; it cannot affect the balance invariant, which the posting engine
  guarantees independently of category.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// EXPENSE CATEGORIZATION - Fixed keyword heuristic
// =============================================================================

// categoryKeywords maps lowercase description substrings to categories.
// Order matters: first hit wins, so more specific words come first.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"rent", "Rent"},
	{"phone", "Utilities"},
	{"internet", "Utilities"},
	{"electricity", "Utilities"},
	{"water bill", "Utilities"},
	{"salary", "Salaries"},
	{"wages", "Salaries"},
	{"fuel", "Fuel"},
	{"petrol", "Fuel"},
	{"diesel", "Fuel"},
	{"travel", "Travel"},
	{"taxi", "Travel"},
	{"repair", "Maintenance"},
	{"maintenance", "Maintenance"},
	{"stationery", "Office Supplies"},
	{"printing", "Office Supplies"},
	{"advertis", "Marketing"},
	{"marketing", "Marketing"},
}

// CategorizeExpense derives an expense category from a description.
// Best-effort: falls back to General Expense.
func CategorizeExpense(description string) string {
	lower := strings.ToLower(description)
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.category
		}
	}
	return CategoryGeneral
}

// =============================================================================
// CLASSIFIER
// =============================================================================

type Classifier struct {
	store Store
	now   func() time.Time
}

func NewClassifier(store Store) *Classifier {
	return &Classifier{store: store, now: time.Now}
}

// WithClock overrides the classifier's clock. Tests only.
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	c.now = now
	return c
}

// Classify validates req, fills derived fields, deduplicates machine sources
// and persists the transaction row. It does NOT post ledger entries; the
// posting engine does that.
//
// created is false when the request hit the dedup key and the existing
// transaction is returned unchanged.
func (c *Classifier) Classify(ctx context.Context, req TransactionRequest) (tx Transaction, created bool, err error) {
	if !req.Amount.IsPositive() {
		return Transaction{}, false, &AmountError{Amount: req.Amount}
	}
	if !ValidKind(req.Kind) {
		return Transaction{}, false, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	if req.TenantID == "" {
		return Transaction{}, false, &ValidationError{Field: "tenantId", Message: "required"}
	}

	source := req.Source
	if source == "" {
		source = SourceManual
	}

	// Idempotent ingestion: a repeat delivery with the same
	// (tenant, source, reference) returns the original row.
	if MachineSource(source) && req.Reference != "" {
		existing, err := c.store.FindByReference(ctx, req.TenantID, source, req.Reference)
		if err != nil {
			return Transaction{}, false, fmt.Errorf("dedup lookup: %w", err)
		}
		if existing != nil {
			return *existing, false, nil
		}
	}

	category := req.Category
	if req.Kind == KindExpense && category == "" {
		category = CategorizeExpense(req.Description)
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = c.now()
	}

	tx = Transaction{
		ID:            TransactionID(uuid.NewString()),
		TenantID:      req.TenantID,
		Kind:          req.Kind,
		Amount:        req.Amount,
		Description:   req.Description,
		Category:      category,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
		Vendor:        req.Vendor,
		OccurredAt:    Day(occurredAt),
		Source:        source,
		Metadata:      req.Metadata,
		CreatedAt:     c.now().UTC(),
	}

	if err := c.store.CreateTransaction(ctx, tx); err != nil {
		// Lost a race with a concurrent delivery of the same reference: the
		// unique key fired between the lookup and the insert. A duplicate is
		// soft, so return the row the winner created.
		if errors.Is(err, ErrDuplicateTransaction) && MachineSource(source) && req.Reference != "" {
			existing, findErr := c.store.FindByReference(ctx, req.TenantID, source, req.Reference)
			if findErr == nil && existing != nil {
				return *existing, false, nil
			}
		}
		return Transaction{}, false, fmt.Errorf("create transaction: %w", err)
	}
	return tx, true, nil
}
