/*
service.go - Classify-then-post orchestration

PURPOSE:
  The one operation collaborators call to record an event:
  Record = Classify (validate, dedup, persist row) + Post (balanced entries).
  A dedup hit returns the existing transaction and its entries without
  writing anything. A posting failure removes the transaction row again so
  no "posted" transaction without entries is ever observable.
*/
package ledger

import (
	"context"
	"fmt"
)

type Service struct {
	store      TxStore
	classifier *Classifier
	engine     *Engine
}

func NewService(store TxStore, classifier *Classifier, engine *Engine) *Service {
	return &Service{store: store, classifier: classifier, engine: engine}
}

// Record classifies req and posts its ledger entries. created is false for
// an idempotent redelivery, in which case the previously posted entries are
// returned.
func (s *Service) Record(ctx context.Context, req TransactionRequest) (Transaction, []LedgerEntry, bool, error) {
	tx, created, err := s.classifier.Classify(ctx, req)
	if err != nil {
		return Transaction{}, nil, false, err
	}

	if !created {
		entries, err := s.store.EntriesForTransaction(ctx, tx.TenantID, tx.ID)
		if err != nil {
			return Transaction{}, nil, false, fmt.Errorf("load entries for duplicate %s: %w", tx.ID, err)
		}
		return tx, entries, false, nil
	}

	entries, err := s.engine.Post(ctx, tx)
	if err != nil {
		// The transaction row must not survive a failed posting. Removing it
		// restores the pre-call state; the cascade is a no-op on entries
		// because none were committed.
		if delErr := s.store.DeleteTransaction(ctx, tx.TenantID, tx.ID); delErr != nil {
			return Transaction{}, nil, false, fmt.Errorf("rollback of %s failed (%v) after: %w", tx.ID, delErr, err)
		}
		return Transaction{}, nil, false, err
	}
	return tx, entries, true, nil
}

// Delete removes a transaction and its entries together (cascade rule).
// Admin correction path; everyday corrections should post offsetting
// transactions instead.
func (s *Service) Delete(ctx context.Context, tenant TenantID, id TransactionID) error {
	if _, err := s.store.GetTransaction(ctx, tenant, id); err != nil {
		return err
	}
	return s.store.DeleteTransaction(ctx, tenant, id)
}
