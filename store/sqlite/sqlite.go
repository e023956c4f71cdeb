/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store, ledger.TxStore and ledger.SnapshotStore. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements exist for ledger_entries
  - The only DELETE on ledger_entries is the transaction cascade
  - Every entry receives a monotonic seq (AUTOINCREMENT) at insert, which
    totally orders entries for the running-balance recurrence

KEY TABLES:
  transactions:     Classified business events, dedup-indexed per
                    (tenant, source, reference) for machine sources
  ledger_entries:   The append-only ledger
  report_snapshots: Durable report payload fallback for the cache worker

WAL MODE:
  The database is opened with WAL so report scans don't block postings.
  A store-level mutex serializes writers; SQLite allows one at a time anyway.

USAGE:
  store, err := sqlite.New("./data/ledger.db")   // ":memory:" for tests
  engine := ledger.NewEngine(store, chart, queue)
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Classified business events
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		category TEXT,
		payment_method TEXT,
		reference TEXT,
		vendor TEXT,
		occurred_at TEXT NOT NULL,
		source TEXT NOT NULL,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_tenant_date
		ON transactions(tenant_id, occurred_at);

	-- Natural dedup key for machine-ingested transactions. Manual entries
	-- may legitimately repeat a reference, so the index is partial.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_dedup
		ON transactions(tenant_id, source, reference)
		WHERE source IN ('upi', 'bank_import') AND reference IS NOT NULL AND reference != '';

	-- Append-only ledger. seq is the creation sequence the running-balance
	-- recurrence is defined over.
	CREATE TABLE IF NOT EXISTS ledger_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		tenant_id TEXT NOT NULL,
		transaction_id TEXT,
		account TEXT NOT NULL,
		account_type TEXT NOT NULL,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		description TEXT,
		occurred_at TEXT NOT NULL,
		running_balance TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Last-balance lookup (hot path of every posting)
	CREATE INDEX IF NOT EXISTS idx_entries_tenant_account_seq
		ON ledger_entries(tenant_id, account, seq DESC);
	-- Reporting range scans
	CREATE INDEX IF NOT EXISTS idx_entries_tenant_date
		ON ledger_entries(tenant_id, occurred_at);
	-- Cascade delete and per-transaction loads
	CREATE INDEX IF NOT EXISTS idx_entries_transaction
		ON ledger_entries(transaction_id)
		WHERE transaction_id IS NOT NULL;

	-- Durable report fallback for cold caches
	CREATE TABLE IF NOT EXISTS report_snapshots (
		tenant_id TEXT NOT NULL,
		report_type TEXT NOT NULL,
		period_key TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		payload_json TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		PRIMARY KEY (tenant_id, report_type, period_key)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// dbtx abstracts *sql.DB and *sql.Tx for shared statement code.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *Store) CreateTransaction(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createTransaction(ctx, s.db, tx)
}

func createTransaction(ctx context.Context, db dbtx, tx ledger.Transaction) error {
	metadataJSON, _ := json.Marshal(tx.Metadata)

	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions
		(id, tenant_id, kind, amount, description, category, payment_method,
		 reference, vendor, occurred_at, source, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.TenantID,
		tx.Kind,
		tx.Amount.String(),
		tx.Description,
		tx.Category,
		tx.PaymentMethod,
		tx.Reference,
		tx.Vendor,
		tx.OccurredAt.UTC().Format(time.RFC3339),
		tx.Source,
		string(metadataJSON),
		tx.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

const transactionColumns = `id, tenant_id, kind, amount, description, category,
	payment_method, reference, vendor, occurred_at, source, metadata_json, created_at`

func (s *Store) GetTransaction(ctx context.Context, tenant ledger.TenantID, id ledger.TransactionID) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE tenant_id = ? AND id = ?`,
		tenant, id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, err
}

func (s *Store) FindByReference(ctx context.Context, tenant ledger.TenantID, source ledger.Source, reference string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findByReference(ctx, s.db, tenant, source, reference)
}

func findByReference(ctx context.Context, db dbtx, tenant ledger.TenantID, source ledger.Source, reference string) (*ledger.Transaction, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE tenant_id = ? AND source = ? AND reference = ?`,
		tenant, source, reference)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, tenant ledger.TenantID, from, to time.Time) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listTransactions(ctx, s.db, tenant, from, to)
}

func listTransactions(ctx context.Context, db dbtx, tenant ledger.TenantID, from, to time.Time) ([]ledger.Transaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE tenant_id = ? AND occurred_at >= ? AND occurred_at <= ?
		 ORDER BY occurred_at ASC, created_at ASC`,
		tenant, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// DeleteTransaction removes a transaction with its entries (cascade rule)
// in one database transaction.
func (s *Store) DeleteTransaction(ctx context.Context, tenant ledger.TenantID, id ledger.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := deleteTransaction(ctx, sqlTx, tenant, id); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func deleteTransaction(ctx context.Context, db dbtx, tenant ledger.TenantID, id ledger.TransactionID) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM ledger_entries WHERE tenant_id = ? AND transaction_id = ?`,
		tenant, id); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`DELETE FROM transactions WHERE tenant_id = ? AND id = ?`,
		tenant, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var (
		tx            ledger.Transaction
		amount        string
		description   sql.NullString
		category      sql.NullString
		paymentMethod sql.NullString
		reference     sql.NullString
		vendor        sql.NullString
		occurredAt    string
		metadataJSON  sql.NullString
		createdAt     string
	)

	err := row.Scan(
		&tx.ID, &tx.TenantID, &tx.Kind, &amount, &description, &category,
		&paymentMethod, &reference, &vendor, &occurredAt, &tx.Source,
		&metadataJSON, &createdAt,
	)
	if err != nil {
		return tx, err
	}

	tx.Amount = parseDecimal(amount)
	tx.Description = description.String
	tx.Category = category.String
	tx.PaymentMethod = paymentMethod.String
	tx.Reference = reference.String
	tx.Vendor = vendor.String
	tx.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		json.Unmarshal([]byte(metadataJSON.String), &tx.Metadata)
	}
	return tx, nil
}

// =============================================================================
// LEDGER ENTRIES (append-only)
// =============================================================================

// AppendEntries persists a posting's entry set atomically and assigns each
// entry its seq.
func (s *Store) AppendEntries(ctx context.Context, entries []ledger.LedgerEntry) ([]ledger.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	stored, err := appendEntries(ctx, sqlTx, entries)
	if err != nil {
		return nil, err
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit entries: %w", err)
	}
	return stored, nil
}

func appendEntries(ctx context.Context, db dbtx, entries []ledger.LedgerEntry) ([]ledger.LedgerEntry, error) {
	stored := make([]ledger.LedgerEntry, len(entries))
	for i, e := range entries {
		res, err := db.ExecContext(ctx, `
			INSERT INTO ledger_entries
			(id, tenant_id, transaction_id, account, account_type, debit, credit,
			 description, occurred_at, running_balance, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID,
			e.TenantID,
			nullString(string(e.TransactionID)),
			e.Account,
			e.AccountType,
			e.Debit.String(),
			e.Credit.String(),
			e.Description,
			e.OccurredAt.UTC().Format(time.RFC3339),
			e.RunningBalance.String(),
			e.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to append entry: %w", err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read entry seq: %w", err)
		}
		e.Seq = seq
		stored[i] = e
	}
	return stored, nil
}

const entryColumns = `seq, id, tenant_id, transaction_id, account, account_type,
	debit, credit, description, occurred_at, running_balance, created_at`

func (s *Store) EntriesForTransaction(ctx context.Context, tenant ledger.TenantID, id ledger.TransactionID) ([]ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryEntries(ctx, s.db,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE tenant_id = ? AND transaction_id = ? ORDER BY seq ASC`,
		tenant, id)
}

func (s *Store) EntriesInRange(ctx context.Context, tenant ledger.TenantID, from, to time.Time) ([]ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryEntries(ctx, s.db,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE tenant_id = ? AND occurred_at >= ? AND occurred_at <= ?
		 ORDER BY seq ASC`,
		tenant, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

func (s *Store) EntriesForAccount(ctx context.Context, tenant ledger.TenantID, account string) ([]ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryEntries(ctx, s.db,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE tenant_id = ? AND account = ? ORDER BY seq ASC`,
		tenant, account)
}

func (s *Store) LastRunningBalance(ctx context.Context, tenant ledger.TenantID, account string) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lastRunningBalance(ctx, s.db, tenant, account)
}

func lastRunningBalance(ctx context.Context, db dbtx, tenant ledger.TenantID, account string) (decimal.Decimal, bool, error) {
	var balance string
	err := db.QueryRowContext(ctx,
		`SELECT running_balance FROM ledger_entries
		 WHERE tenant_id = ? AND account = ?
		 ORDER BY seq DESC LIMIT 1`,
		tenant, account).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read last balance: %w", err)
	}
	return parseDecimal(balance), true, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]ledger.TenantID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listTenants(ctx, s.db)
}

func listTenants(ctx context.Context, db dbtx) ([]ledger.TenantID, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT tenant_id FROM transactions ORDER BY tenant_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []ledger.TenantID
	for rows.Next() {
		var t ledger.TenantID
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func queryEntries(ctx context.Context, db dbtx, query string, args ...any) ([]ledger.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (ledger.LedgerEntry, error) {
	var (
		e              ledger.LedgerEntry
		transactionID  sql.NullString
		debit          string
		credit         string
		description    sql.NullString
		occurredAt     string
		runningBalance string
		createdAt      string
	)

	err := rows.Scan(
		&e.Seq, &e.ID, &e.TenantID, &transactionID, &e.Account, &e.AccountType,
		&debit, &credit, &description, &occurredAt, &runningBalance, &createdAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.TransactionID = ledger.TransactionID(transactionID.String)
	e.Debit = parseDecimal(debit)
	e.Credit = parseDecimal(credit)
	e.Description = description.String
	e.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
	e.RunningBalance = parseDecimal(runningBalance)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes everything through the open sql.Tx so a posting's balance
// read and entry write see one consistent view.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) CreateTransaction(ctx context.Context, tx ledger.Transaction) error {
	return createTransaction(ctx, ts.tx, tx)
}

func (ts *txStore) GetTransaction(ctx context.Context, tenant ledger.TenantID, id ledger.TransactionID) (ledger.Transaction, error) {
	row := ts.tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE tenant_id = ? AND id = ?`,
		tenant, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, err
}

func (ts *txStore) FindByReference(ctx context.Context, tenant ledger.TenantID, source ledger.Source, reference string) (*ledger.Transaction, error) {
	return findByReference(ctx, ts.tx, tenant, source, reference)
}

func (ts *txStore) ListTransactions(ctx context.Context, tenant ledger.TenantID, from, to time.Time) ([]ledger.Transaction, error) {
	return listTransactions(ctx, ts.tx, tenant, from, to)
}

func (ts *txStore) DeleteTransaction(ctx context.Context, tenant ledger.TenantID, id ledger.TransactionID) error {
	return deleteTransaction(ctx, ts.tx, tenant, id)
}

func (ts *txStore) AppendEntries(ctx context.Context, entries []ledger.LedgerEntry) ([]ledger.LedgerEntry, error) {
	return appendEntries(ctx, ts.tx, entries)
}

func (ts *txStore) EntriesForTransaction(ctx context.Context, tenant ledger.TenantID, id ledger.TransactionID) ([]ledger.LedgerEntry, error) {
	return queryEntries(ctx, ts.tx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE tenant_id = ? AND transaction_id = ? ORDER BY seq ASC`,
		tenant, id)
}

func (ts *txStore) EntriesInRange(ctx context.Context, tenant ledger.TenantID, from, to time.Time) ([]ledger.LedgerEntry, error) {
	return queryEntries(ctx, ts.tx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE tenant_id = ? AND occurred_at >= ? AND occurred_at <= ?
		 ORDER BY seq ASC`,
		tenant, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

func (ts *txStore) EntriesForAccount(ctx context.Context, tenant ledger.TenantID, account string) ([]ledger.LedgerEntry, error) {
	return queryEntries(ctx, ts.tx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE tenant_id = ? AND account = ? ORDER BY seq ASC`,
		tenant, account)
}

func (ts *txStore) LastRunningBalance(ctx context.Context, tenant ledger.TenantID, account string) (decimal.Decimal, bool, error) {
	return lastRunningBalance(ctx, ts.tx, tenant, account)
}

func (ts *txStore) ListTenants(ctx context.Context) ([]ledger.TenantID, error) {
	return listTenants(ctx, ts.tx)
}

// =============================================================================
// REPORT SNAPSHOTS (ledger.SnapshotStore interface)
// =============================================================================

func (s *Store) SaveReportSnapshot(ctx context.Context, snap ledger.ReportSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	generated := snap.GeneratedAt.UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_snapshots
		(tenant_id, report_type, period_key, year, month, payload_json, generated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, report_type, period_key) DO UPDATE SET
			year = excluded.year,
			month = excluded.month,
			payload_json = excluded.payload_json,
			generated_at = excluded.generated_at,
			expires_at = excluded.expires_at`,
		snap.TenantID,
		snap.Type,
		snap.PeriodKey,
		generated.Year(),
		int(generated.Month()),
		string(snap.Payload),
		generated.Format(time.RFC3339),
		snap.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save report snapshot: %w", err)
	}
	return nil
}

func (s *Store) LoadReportSnapshot(ctx context.Context, tenant ledger.TenantID, typ ledger.ReportType, periodKey string) (*ledger.ReportSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		snap        ledger.ReportSnapshot
		payload     string
		generatedAt string
		expiresAt   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT tenant_id, report_type, period_key, payload_json, generated_at, expires_at
		 FROM report_snapshots
		 WHERE tenant_id = ? AND report_type = ? AND period_key = ?`,
		tenant, typ, periodKey,
	).Scan(&snap.TenantID, &snap.Type, &snap.PeriodKey, &payload, &generatedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report snapshot: %w", err)
	}

	snap.Payload = []byte(payload)
	snap.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	snap.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	return &snap, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
