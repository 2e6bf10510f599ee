package usecase

import (
	"context"

	"payment-reconciliation/internal/domain"
)

// RecordStore defines the storage the reconciliation usecase reads candidates
// from and commits links to. The usecase layer depends on this interface, not
// on a concrete implementation.
//
// Lookups return an error wrapping domain.ErrNotFound when the record does not
// exist or belongs to another organization.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go RecordStore
type RecordStore interface {
	FindUnreconciledPayments(ctx context.Context, organizationID string) ([]domain.Payment, error)
	FindUnreconciledIncomingTransactions(ctx context.Context, organizationID string) ([]domain.Transaction, error)
	GetPaymentByID(ctx context.Context, organizationID, paymentID string) (*domain.Payment, error)
	GetTransactionByID(ctx context.Context, organizationID, transactionID string) (*domain.Transaction, error)

	// LinkPaymentToTransaction sets the payment's link and marks the
	// transaction reconciled in one atomic write. It fails with
	// domain.ErrAlreadyReconciled if either row changed since the versions in
	// link were read.
	LinkPaymentToTransaction(ctx context.Context, link domain.Link) error
}
