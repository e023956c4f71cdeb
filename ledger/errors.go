/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All error types in one place. Sentinels for errors.Is checks, structured
  errors for callers that need detail, and small helpers so the HTTP layer
  can map errors to status codes without knowing every type.

ERROR CATEGORIES:
  1. Validation errors - rejected before any persistence
  2. Duplicate errors  - soft, idempotent-ingestion hits
  3. Posting errors    - atomicity failures, fully rolled back
  4. Recompute errors  - async worker failures, logged and isolated
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for non-positive transaction amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnknownKind is returned for a transaction kind outside
	// income/expense/transfer.
	ErrUnknownKind = errors.New("unknown transaction kind")

	// ErrUnknownAccount is returned when an account name does not resolve
	// against the tenant's chart of accounts.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrDuplicateTransaction is a soft signal: the (tenant, source, reference)
	// triple was already ingested. Callers should return the existing record.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrPostingFailed wraps any failure while writing the entry set for one
	// transaction. The whole posting is rolled back; no partial entries remain.
	ErrPostingFailed = errors.New("posting failed")

	// ErrTransactionNotFound is returned when a transaction id does not exist
	// for the tenant.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrUnbalancedPosting is returned if a posting template ever derives an
	// entry set whose debits and credits do not sum equal. This indicates a
	// template bug, never valid input.
	ErrUnbalancedPosting = errors.New("unbalanced posting")

	// ErrRecomputeFailed wraps report recompute failures inside the worker.
	ErrRecomputeFailed = errors.New("report recompute failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AmountError is a ValidationError specialization carrying the offending value.
type AmountError struct {
	Amount decimal.Decimal
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("amount must be positive, got %s", e.Amount)
}

func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// PostingError carries context about an atomicity failure.
type PostingError struct {
	TransactionID TransactionID
	TenantID      TenantID
	Err           error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("posting %s for tenant %s failed: %v", e.TransactionID, e.TenantID, e.Err)
}

func (e *PostingError) Unwrap() error { return ErrPostingFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrUnknownAccount) ||
		errors.As(err, &ve)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTransactionNotFound)
}
