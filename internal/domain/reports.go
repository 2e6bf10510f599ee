package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary provides high-level statistics of a reconciliation run.
type Summary struct {
	TotalPayments             int             `json:"total_payments"`
	TotalTransactions         int             `json:"total_transactions"`
	AutomaticCount            int             `json:"automatic_count"`
	SuggestedCount            int             `json:"suggested_count"`
	UnmatchedPaymentCount     int             `json:"unmatched_payment_count"`
	UnmatchedTransactionCount int             `json:"unmatched_transaction_count"`
	AutomaticAmount           decimal.Decimal `json:"automatic_amount"`
	SuggestedAmount           decimal.Decimal `json:"suggested_amount"`
}

// ReconciliationResult is the preview produced by a reconciliation run.
type ReconciliationResult struct {
	RunID                 string        `json:"run_id"`
	OrganizationID        string        `json:"organization_id"`
	GeneratedAt           time.Time     `json:"generated_at"`
	AutomaticMatches      []Match       `json:"automatic_matches"`
	SuggestedMatches      []Match       `json:"suggested_matches"`
	UnmatchedPayments     []Payment     `json:"unmatched_payments"`
	UnmatchedTransactions []Transaction `json:"unmatched_transactions"`
	Summary               Summary       `json:"summary"`
}

// BatchResult reports the outcome of a multi-pair commit.
type BatchResult struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}
