package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"payment-reconciliation/internal/domain"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const dateLayout = time.RFC3339

// SQLRecordStore implements usecase.RecordStore on SQLite or PostgreSQL.
//
// Commits run in one transaction guarded by optimistic version checks on both
// rows; on PostgreSQL the rows are additionally locked with SELECT ... FOR UPDATE.
type SQLRecordStore struct {
	db     *sql.DB
	driver string
}

// OpenSQLRecordStore opens a database and returns a store on it.
func OpenSQLRecordStore(driver, dsn string, maxOpenConns int) (*SQLRecordStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(max(1, maxOpenConns/5))
	}
	return NewSQLRecordStore(db, driver), nil
}

// NewSQLRecordStore wraps an already opened database.
func NewSQLRecordStore(db *sql.DB, driver string) *SQLRecordStore {
	return &SQLRecordStore{db: db, driver: driver}
}

// Close closes the database connection.
func (s *SQLRecordStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLRecordStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema.
func (s *SQLRecordStore) Migrate(ctx context.Context) error {
	for _, stmt := range Migrations() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ─── Reads ──────────────────────────────────────────────────────────────────

const paymentColumns = `id, organization_id, amount, payment_date, reference, counterparty_name,
	counterparty_phone, payment_method, linked_transaction_id, version`

const transactionColumns = `id, organization_id, amount, transaction_date, external_id, reference,
	counterparty_name, counterparty_phone, direction, is_reconciled, version`

// FindUnreconciledPayments returns the organization's unlinked payments,
// oldest first.
func (s *SQLRecordStore) FindUnreconciledPayments(ctx context.Context, organizationID string) ([]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+paymentColumns+`
		FROM payments
		WHERE organization_id = ? AND linked_transaction_id IS NULL
		ORDER BY payment_date, id
	`), organizationID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// FindUnreconciledIncomingTransactions returns the organization's open
// incoming transactions, oldest first.
func (s *SQLRecordStore) FindUnreconciledIncomingTransactions(ctx context.Context, organizationID string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE organization_id = ? AND is_reconciled = 0 AND direction = ?
		ORDER BY transaction_date, id
	`), organizationID, string(domain.DirectionIncoming))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// GetPaymentByID returns a payment scoped to the organization.
func (s *SQLRecordStore) GetPaymentByID(ctx context.Context, organizationID, paymentID string) (*domain.Payment, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+paymentColumns+` FROM payments WHERE organization_id = ? AND id = ?
	`), organizationID, paymentID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError(domain.KindPayment, paymentID)
	}
	return p, err
}

// GetTransactionByID returns a transaction scoped to the organization.
func (s *SQLRecordStore) GetTransactionByID(ctx context.Context, organizationID, transactionID string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+transactionColumns+` FROM transactions WHERE organization_id = ? AND id = ?
	`), organizationID, transactionID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError(domain.KindTransaction, transactionID)
	}
	return t, err
}

// ─── Commit ─────────────────────────────────────────────────────────────────

// LinkPaymentToTransaction marks the transaction reconciled and links the
// payment to it in a single database transaction. Either both rows change or
// neither does.
func (s *SQLRecordStore) LinkPaymentToTransaction(ctx context.Context, link domain.Link) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if s.driver == DriverPostgres {
		if err := s.lockRow(ctx, tx, "payments", domain.KindPayment, link.OrganizationID, link.PaymentID); err != nil {
			return err
		}
		if err := s.lockRow(ctx, tx, "transactions", domain.KindTransaction, link.OrganizationID, link.TransactionID); err != nil {
			return err
		}
	}

	if err := s.markTransactionReconciled(ctx, tx, link); err != nil {
		return err
	}
	if err := s.linkPayment(ctx, tx, link); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLRecordStore) markTransactionReconciled(ctx context.Context, tx *sql.Tx, link domain.Link) error {
	res, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE transactions SET is_reconciled = 1, version = version + 1
		WHERE id = ? AND organization_id = ? AND version = ? AND is_reconciled = 0
	`), link.TransactionID, link.OrganizationID, link.TransactionVersion)
	if err != nil {
		return fmt.Errorf("mark transaction reconciled: %w", err)
	}
	return s.checkUpdated(ctx, tx, res, "transactions", domain.KindTransaction, link.OrganizationID, link.TransactionID)
}

func (s *SQLRecordStore) linkPayment(ctx context.Context, tx *sql.Tx, link domain.Link) error {
	res, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE payments SET linked_transaction_id = ?, version = version + 1
		WHERE id = ? AND organization_id = ? AND version = ? AND linked_transaction_id IS NULL
	`), link.TransactionID, link.PaymentID, link.OrganizationID, link.PaymentVersion)
	if err != nil {
		return fmt.Errorf("link payment: %w", err)
	}
	return s.checkUpdated(ctx, tx, res, "payments", domain.KindPayment, link.OrganizationID, link.PaymentID)
}

// checkUpdated turns a zero-row update into NotFound (row gone or foreign)
// or AlreadyReconciled (row changed since it was read).
func (s *SQLRecordStore) checkUpdated(ctx context.Context, tx *sql.Tx, res sql.Result, table string, kind domain.RecordKind, organizationID, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM `+table+` WHERE id = ? AND organization_id = ?`), id, organizationID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError(kind, id)
	}
	if err != nil {
		return fmt.Errorf("check %s: %w", table, err)
	}
	return domain.AlreadyReconciledError(kind, id)
}

func (s *SQLRecordStore) lockRow(ctx context.Context, tx *sql.Tx, table string, kind domain.RecordKind, organizationID, id string) error {
	var version int64
	err := tx.QueryRowContext(ctx, s.rebind(`SELECT version FROM `+table+` WHERE id = ? AND organization_id = ? FOR UPDATE`), id, organizationID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError(kind, id)
	}
	if err != nil {
		return fmt.Errorf("lock %s: %w", table, err)
	}
	return nil
}

// ─── Imports ────────────────────────────────────────────────────────────────

// InsertPayments stores payments, skipping ids that already exist. It returns
// the number of rows inserted.
func (s *SQLRecordStore) InsertPayments(ctx context.Context, payments []domain.Payment) (int, error) {
	return s.insertAll(ctx, len(payments), `
		INSERT INTO payments (id, organization_id, amount, payment_date, reference, counterparty_name,
			counterparty_phone, payment_method, linked_transaction_id, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, func(i int) []any {
		p := payments[i]
		var linked sql.NullString
		if p.LinkedTransactionID != nil {
			linked = sql.NullString{String: *p.LinkedTransactionID, Valid: true}
		}
		return []any{p.ID, p.OrganizationID, p.Amount.StringFixed(2), p.PaymentDate.UTC().Format(dateLayout),
			p.Reference, p.CounterpartyName, p.CounterpartyPhone, string(p.PaymentMethod), linked, p.Version}
	})
}

// InsertTransactions stores transactions, skipping ids that already exist. It
// returns the number of rows inserted.
func (s *SQLRecordStore) InsertTransactions(ctx context.Context, transactions []domain.Transaction) (int, error) {
	return s.insertAll(ctx, len(transactions), `
		INSERT INTO transactions (id, organization_id, amount, transaction_date, external_id, reference,
			counterparty_name, counterparty_phone, direction, is_reconciled, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, func(i int) []any {
		t := transactions[i]
		return []any{t.ID, t.OrganizationID, t.Amount.StringFixed(2), t.TransactionDate.UTC().Format(dateLayout),
			t.ExternalID, t.Reference, t.CounterpartyName, t.CounterpartyPhone, string(t.Direction),
			boolToInt(t.IsReconciled), t.Version}
	})
}

func (s *SQLRecordStore) insertAll(ctx context.Context, n int, query string, args func(i int) []any) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(query))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := 0; i < n; i++ {
		res, err := stmt.ExecContext(ctx, args(i)...)
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		p              domain.Payment
		amount, date   string
		method         string
		linkedTransact sql.NullString
	)
	err := row.Scan(&p.ID, &p.OrganizationID, &amount, &date, &p.Reference, &p.CounterpartyName,
		&p.CounterpartyPhone, &method, &linkedTransact, &p.Version)
	if err != nil {
		return nil, err
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("payment %s amount %q: %w", p.ID, amount, err)
	}
	if p.PaymentDate, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("payment %s date %q: %w", p.ID, date, err)
	}
	p.PaymentMethod = domain.PaymentMethod(method)
	if linkedTransact.Valid {
		p.LinkedTransactionID = &linkedTransact.String
	}
	return &p, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t            domain.Transaction
		amount, date string
		direction    string
		reconciled   int
	)
	err := row.Scan(&t.ID, &t.OrganizationID, &amount, &date, &t.ExternalID, &t.Reference,
		&t.CounterpartyName, &t.CounterpartyPhone, &direction, &reconciled, &t.Version)
	if err != nil {
		return nil, err
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
	}
	if t.TransactionDate, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("transaction %s date %q: %w", t.ID, date, err)
	}
	t.Direction = domain.Direction(direction)
	t.IsReconciled = reconciled == 1
	return &t, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLRecordStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
