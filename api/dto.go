/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: amounts travel
  as decimal strings, dates as YYYY-MM-DD, timestamps as RFC3339.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Transactions:
    TransactionDTO, RecordTransactionRequest, RecordTransactionResponse

  Entries:
    LedgerEntryDTO

  Webhooks:
    UPIWebhookRequest, BankImportRequest, BankImportResponse

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: The domain types these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// TransactionDTO represents a transaction in API responses.
type TransactionDTO struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenant_id"`
	Kind          string            `json:"kind"`
	Amount        string            `json:"amount"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Reference     string            `json:"reference,omitempty"`
	Vendor        string            `json:"vendor,omitempty"`
	OccurredAt    string            `json:"occurred_at"`
	Source        string            `json:"source"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     string            `json:"created_at,omitempty"`
}

// RecordTransactionRequest is the request to record a transaction.
type RecordTransactionRequest struct {
	Kind          string            `json:"kind"`
	Amount        string            `json:"amount"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Reference     string            `json:"reference,omitempty"`
	Vendor        string            `json:"vendor,omitempty"`
	OccurredAt    string            `json:"occurred_at,omitempty"` // YYYY-MM-DD, defaults to today
	Source        string            `json:"source,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RecordTransactionResponse wraps a recorded transaction with its entries.
// Created is false when the request was an idempotent redelivery.
type RecordTransactionResponse struct {
	Transaction TransactionDTO   `json:"transaction"`
	Entries     []LedgerEntryDTO `json:"entries"`
	Created     bool             `json:"created"`
}

// =============================================================================
// LEDGER ENTRY TYPES
// =============================================================================

// LedgerEntryDTO represents one debit or credit line in API responses.
type LedgerEntryDTO struct {
	ID             string `json:"id"`
	TransactionID  string `json:"transaction_id,omitempty"`
	Account        string `json:"account"`
	AccountType    string `json:"account_type"`
	Debit          string `json:"debit"`
	Credit         string `json:"credit"`
	Description    string `json:"description,omitempty"`
	OccurredAt     string `json:"occurred_at"`
	RunningBalance string `json:"running_balance"`
	Seq            int64  `json:"seq"`
}

// =============================================================================
// WEBHOOK TYPES
// =============================================================================

// UPIWebhookRequest is the payload a UPI payment gateway delivers. Delivery
// is at-least-once; Reference is the dedup key.
type UPIWebhookRequest struct {
	Reference   string `json:"reference"`
	Amount      string `json:"amount"`
	PayerVPA    string `json:"payer_vpa,omitempty"`
	Description string `json:"description,omitempty"`
	OccurredAt  string `json:"occurred_at,omitempty"`
}

// BankImportRequest is a batch of bank statement rows.
type BankImportRequest struct {
	Rows []BankImportRow `json:"rows"`
}

// BankImportRow is one statement line. Direction is "credit" (money in,
// recorded as income) or "debit" (money out, recorded as expense).
type BankImportRow struct {
	Reference   string `json:"reference"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// BankImportResponse summarizes a batch import.
type BankImportResponse struct {
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:            string(tx.ID),
		TenantID:      string(tx.TenantID),
		Kind:          string(tx.Kind),
		Amount:        tx.Amount.String(),
		Description:   tx.Description,
		Category:      tx.Category,
		PaymentMethod: tx.PaymentMethod,
		Reference:     tx.Reference,
		Vendor:        tx.Vendor,
		OccurredAt:    tx.OccurredAt.Format("2006-01-02"),
		Source:        string(tx.Source),
		Metadata:      tx.Metadata,
	}
	if !tx.CreatedAt.IsZero() {
		dto.CreatedAt = tx.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toEntryDTOs(entries []ledger.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LedgerEntryDTO{
			ID:             string(e.ID),
			TransactionID:  string(e.TransactionID),
			Account:        e.Account,
			AccountType:    string(e.AccountType),
			Debit:          e.Debit.String(),
			Credit:         e.Credit.String(),
			Description:    e.Description,
			OccurredAt:     e.OccurredAt.Format("2006-01-02"),
			RunningBalance: e.RunningBalance.String(),
			Seq:            e.Seq,
		}
	}
	return dtos
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
