package gateway

// Migrations returns the schema statements for the record store.
// Each string is a single statement; the SQL is valid for SQLite and PostgreSQL.
func Migrations() []string {
	return []string{
		// Ledger payments
		`CREATE TABLE IF NOT EXISTS payments (
			id                    TEXT PRIMARY KEY,
			organization_id       TEXT NOT NULL,
			amount                TEXT NOT NULL,
			payment_date          TEXT NOT NULL,
			reference             TEXT NOT NULL DEFAULT '',
			counterparty_name     TEXT NOT NULL DEFAULT '',
			counterparty_phone    TEXT NOT NULL DEFAULT '',
			payment_method        TEXT NOT NULL,
			linked_transaction_id TEXT,
			version               INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_org_unlinked ON payments(organization_id, linked_transaction_id)`,
		// A transaction can back at most one payment.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_linked_txn ON payments(linked_transaction_id) WHERE linked_transaction_id IS NOT NULL`,

		// Channel feed transactions
		`CREATE TABLE IF NOT EXISTS transactions (
			id                 TEXT PRIMARY KEY,
			organization_id    TEXT NOT NULL,
			amount             TEXT NOT NULL,
			transaction_date   TEXT NOT NULL,
			external_id        TEXT NOT NULL DEFAULT '',
			reference          TEXT NOT NULL DEFAULT '',
			counterparty_name  TEXT NOT NULL DEFAULT '',
			counterparty_phone TEXT NOT NULL DEFAULT '',
			direction          TEXT NOT NULL,
			is_reconciled      INTEGER NOT NULL DEFAULT 0,
			version            INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_org_open ON transactions(organization_id, is_reconciled, direction)`,
	}
}
