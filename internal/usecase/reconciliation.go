package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payment-reconciliation/internal/domain"
	"payment-reconciliation/internal/matching"
	"payment-reconciliation/internal/observability"
)

// ReconciliationUseCase orchestrates the reconciliation process.
type ReconciliationUseCase struct {
	repo       RecordStore
	matcher    *matching.Matcher
	thresholds matching.Thresholds
	logger     *zap.Logger
	now        func() time.Time
}

// NewReconciliationUseCase creates a new instance of the usecase.
func NewReconciliationUseCase(repo RecordStore, matcher *matching.Matcher, thresholds matching.Thresholds, logger *zap.Logger) *ReconciliationUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationUseCase{
		repo:       repo,
		matcher:    matcher,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// Reconcile loads the organization's unreconciled records, matches them and
// classifies the result into automatic and suggested tiers. It writes nothing.
// Any store failure fails the whole call; no partial preview is returned.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, organizationID string) (*domain.ReconciliationResult, error) {
	start := time.Now()
	result, err := uc.reconcile(ctx, organizationID)
	observability.RunDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		observability.RunsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		observability.RunsTotal.WithLabelValues("cancelled").Inc()
	default:
		observability.RunsTotal.WithLabelValues("error").Inc()
	}
	return result, err
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, organizationID string) (*domain.ReconciliationResult, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrInvalidInput)
	}

	// Step 1: Candidate loading
	payments, err := uc.repo.FindUnreconciledPayments(ctx, organizationID)
	if err != nil {
		return nil, uc.storageError("load unreconciled payments", err)
	}
	transactions, err := uc.repo.FindUnreconciledIncomingTransactions(ctx, organizationID)
	if err != nil {
		return nil, uc.storageError("load unreconciled transactions", err)
	}
	payments = eligiblePayments(payments, organizationID)
	transactions = eligibleTransactions(transactions, organizationID)

	// Step 2: Scoring and conflict resolution
	matches, err := uc.matcher.Match(ctx, payments, transactions)
	if err != nil {
		return nil, fmt.Errorf("could not match records: %w", err)
	}

	// Step 3: Tier classification
	result := &domain.ReconciliationResult{
		RunID:                 uuid.NewString(),
		OrganizationID:        organizationID,
		GeneratedAt:           uc.now().UTC(),
		AutomaticMatches:      make([]domain.Match, 0),
		SuggestedMatches:      make([]domain.Match, 0),
		UnmatchedPayments:     make([]domain.Payment, 0),
		UnmatchedTransactions: make([]domain.Transaction, 0),
		Summary: domain.Summary{
			TotalPayments:     len(payments),
			TotalTransactions: len(transactions),
			AutomaticAmount:   decimal.Zero,
			SuggestedAmount:   decimal.Zero,
		},
	}

	amounts := make(map[string]decimal.Decimal, len(payments))
	for _, p := range payments {
		amounts[p.ID] = p.Amount
	}

	matchedPayments := make(map[string]bool)
	matchedTransactions := make(map[string]bool)
	for _, m := range matches {
		switch {
		case m.Confidence >= uc.thresholds.Automatic:
			result.AutomaticMatches = append(result.AutomaticMatches, m)
			result.Summary.AutomaticAmount = result.Summary.AutomaticAmount.Add(amounts[m.PaymentID])
		case m.Confidence >= uc.thresholds.Suggested:
			result.SuggestedMatches = append(result.SuggestedMatches, m)
			result.Summary.SuggestedAmount = result.Summary.SuggestedAmount.Add(amounts[m.PaymentID])
		default:
			continue
		}
		matchedPayments[m.PaymentID] = true
		matchedTransactions[m.TransactionID] = true
	}

	// Step 4: Collate unmatched records
	for _, p := range payments {
		if !matchedPayments[p.ID] {
			result.UnmatchedPayments = append(result.UnmatchedPayments, p)
		}
	}
	for _, t := range transactions {
		if !matchedTransactions[t.ID] {
			result.UnmatchedTransactions = append(result.UnmatchedTransactions, t)
		}
	}

	result.Summary.AutomaticCount = len(result.AutomaticMatches)
	result.Summary.SuggestedCount = len(result.SuggestedMatches)
	result.Summary.UnmatchedPaymentCount = len(result.UnmatchedPayments)
	result.Summary.UnmatchedTransactionCount = len(result.UnmatchedTransactions)

	observability.MatchesByTier.WithLabelValues("automatic").Add(float64(result.Summary.AutomaticCount))
	observability.MatchesByTier.WithLabelValues("suggested").Add(float64(result.Summary.SuggestedCount))

	uc.logger.Info("reconciliation preview complete",
		zap.String("run_id", result.RunID),
		zap.String("organization_id", organizationID),
		zap.Int("payments", len(payments)),
		zap.Int("transactions", len(transactions)),
		zap.Int("automatic", result.Summary.AutomaticCount),
		zap.Int("suggested", result.Summary.SuggestedCount),
	)
	return result, nil
}

// ApplyMatches commits each match independently. A failed item is recorded
// and does not roll back or stop the others.
func (uc *ReconciliationUseCase) ApplyMatches(ctx context.Context, organizationID string, matches []domain.Match) (*domain.BatchResult, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no matches to apply", domain.ErrInvalidInput)
	}

	result := &domain.BatchResult{Errors: make([]string, 0)}
	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++
		if _, err := uc.commit(ctx, organizationID, m.PaymentID, m.TransactionID); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("match %d: %v", i+1, err))
			continue
		}
		result.Succeeded++
	}

	uc.logger.Info("matches applied",
		zap.String("organization_id", organizationID),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ManualReconcile links one payment to one transaction after checking both
// belong to the organization and are still unlinked. Both writes succeed or
// neither does.
func (uc *ReconciliationUseCase) ManualReconcile(ctx context.Context, organizationID, paymentID, transactionID string) (*domain.Payment, error) {
	return uc.commit(ctx, organizationID, paymentID, transactionID)
}

// BulkReconcile applies explicit operator pairs one at a time, collecting
// per-pair errors without aborting the batch.
func (uc *ReconciliationUseCase) BulkReconcile(ctx context.Context, organizationID string, pairs []domain.Pair) (*domain.BatchResult, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no pairs to reconcile", domain.ErrInvalidInput)
	}

	result := &domain.BatchResult{Errors: make([]string, 0)}
	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++
		if _, err := uc.ManualReconcile(ctx, organizationID, pair.PaymentID, pair.TransactionID); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("pair %d: %v", i+1, err))
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// AutoReconcile previews the organization and commits only the automatic tier.
func (uc *ReconciliationUseCase) AutoReconcile(ctx context.Context, organizationID string) (*domain.ReconciliationResult, *domain.BatchResult, error) {
	preview, err := uc.Reconcile(ctx, organizationID)
	if err != nil {
		return nil, nil, err
	}
	if len(preview.AutomaticMatches) == 0 {
		return preview, &domain.BatchResult{Errors: make([]string, 0)}, nil
	}
	applied, err := uc.ApplyMatches(ctx, organizationID, preview.AutomaticMatches)
	return preview, applied, err
}

func (uc *ReconciliationUseCase) commit(ctx context.Context, organizationID, paymentID, transactionID string) (*domain.Payment, error) {
	payment, err := uc.link(ctx, organizationID, paymentID, transactionID)
	observability.Commits.WithLabelValues(commitResult(err)).Inc()
	return payment, err
}

func (uc *ReconciliationUseCase) link(ctx context.Context, organizationID, paymentID, transactionID string) (*domain.Payment, error) {
	if strings.TrimSpace(organizationID) == "" || strings.TrimSpace(paymentID) == "" || strings.TrimSpace(transactionID) == "" {
		return nil, fmt.Errorf("%w: organization, payment and transaction ids are required", domain.ErrInvalidInput)
	}

	payment, err := uc.repo.GetPaymentByID(ctx, organizationID, paymentID)
	if err != nil {
		return nil, uc.lookupError(domain.KindPayment, paymentID, err)
	}
	if payment.OrganizationID != organizationID {
		return nil, domain.NotFoundError(domain.KindPayment, paymentID)
	}

	txn, err := uc.repo.GetTransactionByID(ctx, organizationID, transactionID)
	if err != nil {
		return nil, uc.lookupError(domain.KindTransaction, transactionID, err)
	}
	if txn.OrganizationID != organizationID {
		return nil, domain.NotFoundError(domain.KindTransaction, transactionID)
	}

	if payment.IsReconciled() {
		return nil, domain.AlreadyReconciledError(domain.KindPayment, paymentID)
	}
	if txn.IsReconciled {
		return nil, domain.AlreadyReconciledError(domain.KindTransaction, transactionID)
	}

	err = uc.repo.LinkPaymentToTransaction(ctx, domain.Link{
		OrganizationID:     organizationID,
		PaymentID:          payment.ID,
		TransactionID:      txn.ID,
		PaymentVersion:     payment.Version,
		TransactionVersion: txn.Version,
	})
	if err != nil {
		var recordErr *domain.RecordError
		switch {
		case errors.As(err, &recordErr):
			return nil, recordErr
		case errors.Is(err, domain.ErrAlreadyReconciled):
			return nil, domain.AlreadyReconciledError(domain.KindPayment, paymentID)
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NotFoundError(domain.KindPayment, paymentID)
		default:
			return nil, uc.storageError("link payment "+paymentID, err)
		}
	}

	linked := *payment
	linked.LinkedTransactionID = &txn.ID
	linked.Version++

	uc.logger.Info("payment reconciled",
		zap.String("organization_id", organizationID),
		zap.String("payment_id", paymentID),
		zap.String("transaction_id", transactionID),
	)
	return &linked, nil
}

func (uc *ReconciliationUseCase) lookupError(kind domain.RecordKind, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFoundError(kind, id)
	}
	return uc.storageError(fmt.Sprintf("get %s %s", kind, id), err)
}

// storageError logs the raw store error and replaces it with a message that
// is safe to return to callers. Context errors pass through untouched.
func (uc *ReconciliationUseCase) storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	uc.logger.Error("record store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, domain.ErrStorageFailure)
}

func commitResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyReconciled):
		return "already_reconciled"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "storage_failure"
	}
}

func eligiblePayments(payments []domain.Payment, organizationID string) []domain.Payment {
	var filtered []domain.Payment
	for _, p := range payments {
		if p.OrganizationID == organizationID && !p.IsReconciled() {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func eligibleTransactions(transactions []domain.Transaction, organizationID string) []domain.Transaction {
	var filtered []domain.Transaction
	for _, t := range transactions {
		if t.OrganizationID == organizationID && !t.IsReconciled && t.Direction == domain.DirectionIncoming {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
