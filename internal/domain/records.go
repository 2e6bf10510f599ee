package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the channel a payment was recorded through.
type PaymentMethod string

const (
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

// Direction of money movement as reported by the originating channel.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Payment is a payment recorded in the organization's ledger.
// A nil LinkedTransactionID means the payment is unreconciled.
type Payment struct {
	ID                  string          `json:"id"`
	OrganizationID      string          `json:"organization_id"`
	Amount              decimal.Decimal `json:"amount"`
	PaymentDate         time.Time       `json:"payment_date"`
	Reference           string          `json:"reference,omitempty"`
	CounterpartyName    string          `json:"counterparty_name,omitempty"`
	CounterpartyPhone   string          `json:"counterparty_phone,omitempty"`
	PaymentMethod       PaymentMethod   `json:"payment_method"`
	LinkedTransactionID *string         `json:"linked_transaction_id"`

	// Version is bumped on every write and used for optimistic locking.
	Version int64 `json:"version"`
}

// IsReconciled reports whether the payment is already linked to a transaction.
func (p Payment) IsReconciled() bool {
	return p.LinkedTransactionID != nil
}

// Transaction is a money-movement event observed on a mobile-money or bank feed.
type Transaction struct {
	ID                string          `json:"id"`
	OrganizationID    string          `json:"organization_id"`
	Amount            decimal.Decimal `json:"amount"`
	TransactionDate   time.Time       `json:"transaction_date"`
	ExternalID        string          `json:"external_id"`
	Reference         string          `json:"reference,omitempty"`
	CounterpartyName  string          `json:"counterparty_name,omitempty"`
	CounterpartyPhone string          `json:"counterparty_phone,omitempty"`
	Direction         Direction       `json:"direction"`
	IsReconciled      bool            `json:"is_reconciled"`
	Version           int64           `json:"version"`
}

// Match pairs one payment with one transaction. It is computed fresh on every run.
type Match struct {
	PaymentID     string   `json:"payment_id"`
	TransactionID string   `json:"transaction_id"`
	Confidence    float64  `json:"confidence"`
	Signals       []string `json:"signals"`
}

// Pair is an explicit payment/transaction pairing supplied by an operator.
type Pair struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
}

// Link is the write set of a commit: both ids plus the versions they were read at.
type Link struct {
	OrganizationID     string
	PaymentID          string
	TransactionID      string
	PaymentVersion     int64
	TransactionVersion int64
}
