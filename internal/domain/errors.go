package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyReconciled = errors.New("already reconciled")
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidInput      = errors.New("invalid input")
)

// RecordKind names the kind of record an error refers to.
type RecordKind string

const (
	KindPayment     RecordKind = "payment"
	KindTransaction RecordKind = "transaction"
)

// RecordError ties a sentinel error to the record it concerns.
// Its message is safe to show to users.
type RecordError struct {
	Kind RecordKind
	ID   string
	Err  error
}

func (e *RecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s %v", e.Kind, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// NotFoundError reports a record missing or outside the organization's scope.
func NotFoundError(kind RecordKind, id string) error {
	return &RecordError{Kind: kind, ID: id, Err: ErrNotFound}
}

// AlreadyReconciledError reports a record already linked elsewhere.
func AlreadyReconciledError(kind RecordKind, id string) error {
	return &RecordError{Kind: kind, ID: id, Err: ErrAlreadyReconciled}
}
