package gateway

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-reconciliation/internal/domain"
)

// Column layouts of the CSV exports, header row included.
var (
	PaymentColumns     = []string{"id", "amount", "payment_date", "reference", "counterparty_name", "counterparty_phone", "payment_method"}
	TransactionColumns = []string{"id", "amount", "transaction_date", "external_id", "reference", "counterparty_name", "counterparty_phone", "direction"}
)

// CSVFeedReader parses ledger payment exports and channel feed exports.
type CSVFeedReader struct {
	newID func() string
}

// NewCSVFeedReader creates a new reader instance.
func NewCSVFeedReader() *CSVFeedReader {
	return &CSVFeedReader{newID: uuid.NewString}
}

// ReadPayments reads and parses a payment ledger CSV file for one organization.
func (r *CSVFeedReader) ReadPayments(ctx context.Context, organizationID, path string) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := readRecords(ctx, path, len(PaymentColumns), func(record []string) error {
		amount, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			return fmt.Errorf("could not parse amount '%s': %w", record[1], err)
		}
		if amount.IsNegative() {
			return fmt.Errorf("payment amount '%s' is negative", record[1])
		}

		date, err := parseDate(record[2])
		if err != nil {
			return fmt.Errorf("could not parse payment_date '%s': %w", record[2], err)
		}

		method, err := parsePaymentMethod(record[6])
		if err != nil {
			return err
		}

		payments = append(payments, domain.Payment{
			ID:                r.idOrNew(record[0]),
			OrganizationID:    organizationID,
			Amount:            amount.Round(2),
			PaymentDate:       date,
			Reference:         strings.TrimSpace(record[3]),
			CounterpartyName:  strings.TrimSpace(record[4]),
			CounterpartyPhone: strings.TrimSpace(record[5]),
			PaymentMethod:     method,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ReadTransactions reads and parses one or more channel feed CSV files.
// When the direction column is empty the sign of the amount decides it, the
// way bank statements report debits as negative amounts.
func (r *CSVFeedReader) ReadTransactions(ctx context.Context, organizationID string, paths []string) ([]domain.Transaction, error) {
	allTransactions := []domain.Transaction{}

	for _, path := range paths {
		err := readRecords(ctx, path, len(TransactionColumns), func(record []string) error {
			amount, err := decimal.NewFromString(strings.TrimSpace(record[1]))
			if err != nil {
				return fmt.Errorf("could not parse amount '%s': %w", record[1], err)
			}

			date, err := parseDate(record[2])
			if err != nil {
				return fmt.Errorf("could not parse transaction_date '%s': %w", record[2], err)
			}

			tx := domain.Transaction{
				ID:                r.idOrNew(record[0]),
				OrganizationID:    organizationID,
				Amount:            amount.Abs().Round(2),
				TransactionDate:   date,
				ExternalID:        strings.TrimSpace(record[3]),
				Reference:         strings.TrimSpace(record[4]),
				CounterpartyName:  strings.TrimSpace(record[5]),
				CounterpartyPhone: strings.TrimSpace(record[6]),
			}

			// Normalize the direction for easier matching
			switch direction := domain.Direction(strings.ToLower(strings.TrimSpace(record[7]))); direction {
			case domain.DirectionIncoming, domain.DirectionOutgoing:
				tx.Direction = direction
			case "":
				if amount.IsNegative() {
					tx.Direction = domain.DirectionOutgoing
				} else {
					tx.Direction = domain.DirectionIncoming
				}
			default:
				return fmt.Errorf("unknown direction '%s'", record[7])
			}

			allTransactions = append(allTransactions, tx)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allTransactions, nil
}

func (r *CSVFeedReader) idOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return r.newID()
}

func readRecords(ctx context.Context, path string, columns int, parse func(record []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = columns
	// Skip header
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading record from %s: %w", path, err)
		}
		if err := parse(record); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func parsePaymentMethod(s string) (domain.PaymentMethod, error) {
	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch method {
	case domain.PaymentMethodMobileMoney, domain.PaymentMethodBankTransfer, domain.PaymentMethodCash,
		domain.PaymentMethodCard, domain.PaymentMethodCheque:
		return method, nil
	default:
		return "", fmt.Errorf("unknown payment_method '%s'", s)
	}
}
