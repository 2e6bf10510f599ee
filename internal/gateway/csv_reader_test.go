package gateway

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-reconciliation/internal/domain"
)

var transactionHeader = strings.Join(TransactionColumns, ",")

func TestCSVFeedReader_ReadPayments(t *testing.T) {
	tests := []struct {
		name     string
		csvData  [][]string
		expected []domain.Payment
		wantErr  bool
	}{
		{
			name: "valid payments",
			csvData: [][]string{
				PaymentColumns,
				{"PAY-1", "1500.00", "2024-01-15", "AIRTEL-123", "Jane Achieng", "0772 123 456", "mobile_money"},
				{"PAY-2", "200.5", "2024-01-16T10:30:00Z", "", "", "", "BANK_TRANSFER"},
			},
			expected: []domain.Payment{
				{
					ID:                "PAY-1",
					OrganizationID:    "org-1",
					Amount:            decimal.RequireFromString("1500.00"),
					PaymentDate:       mustParseDate("2024-01-15"),
					Reference:         "AIRTEL-123",
					CounterpartyName:  "Jane Achieng",
					CounterpartyPhone: "0772 123 456",
					PaymentMethod:     domain.PaymentMethodMobileMoney,
				},
				{
					ID:             "PAY-2",
					OrganizationID: "org-1",
					Amount:         decimal.RequireFromString("200.50"),
					PaymentDate:    mustParseTime("2024-01-16T10:30:00Z"),
					PaymentMethod:  domain.PaymentMethodBankTransfer,
				},
			},
		},
		{
			name:     "empty file with header only",
			csvData:  [][]string{PaymentColumns},
			expected: nil,
		},
		{
			name: "invalid amount format",
			csvData: [][]string{
				PaymentColumns,
				{"PAY-1", "invalid_amount", "2024-01-15", "", "", "", "cash"},
			},
			wantErr: true,
		},
		{
			name: "negative amount",
			csvData: [][]string{
				PaymentColumns,
				{"PAY-1", "-10.00", "2024-01-15", "", "", "", "cash"},
			},
			wantErr: true,
		},
		{
			name: "invalid date format",
			csvData: [][]string{
				PaymentColumns,
				{"PAY-1", "150.00", "15/01/2024", "", "", "", "cash"},
			},
			wantErr: true,
		},
		{
			name: "unknown payment method",
			csvData: [][]string{
				PaymentColumns,
				{"PAY-1", "150.00", "2024-01-15", "", "", "", "barter"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpFile, err := createTempCSV(t, tt.csvData)
			require.NoError(t, err)

			got, err := NewCSVFeedReader().ReadPayments(context.Background(), "org-1", tmpFile)
			if tt.wantErr {
				assert.Error(t, err, "Expected error but got nil")
				assert.Nil(t, got)
				return
			}

			assert.NoError(t, err)
			require.Len(t, got, len(tt.expected))
			for i, want := range tt.expected {
				assert.True(t, want.Amount.Equal(got[i].Amount), "amount[%d] = %s, want %s", i, got[i].Amount, want.Amount)
				got[i].Amount = want.Amount
				assert.True(t, want.PaymentDate.Equal(got[i].PaymentDate))
				got[i].PaymentDate = want.PaymentDate
				assert.Equal(t, want, got[i])
			}
		})
	}
}

func TestCSVFeedReader_ReadPayments_GeneratesMissingIDs(t *testing.T) {
	tmpFile, err := createTempCSV(t, [][]string{
		PaymentColumns,
		{"", "10.00", "2024-01-15", "", "", "", "cash"},
	})
	require.NoError(t, err)

	reader := NewCSVFeedReader()
	reader.newID = func() string { return "generated-1" }

	got, err := reader.ReadPayments(context.Background(), "org-1", tmpFile)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "generated-1", got[0].ID)
}

func TestCSVFeedReader_ReadTransactions(t *testing.T) {
	tests := []struct {
		name      string
		filesData [][]string // Each element represents a CSV file
		expected  []domain.Transaction
		wantErr   bool
	}{
		{
			name: "signed amounts imply direction",
			filesData: [][]string{
				{
					transactionHeader,
					"TXN-1,1500.00,2024-01-15,AIRTEL-123,,JANE ACHIENG,256772123456,",
					"TXN-2,-75.00,2024-01-16,BANK-2,ATM withdrawal,,,",
				},
			},
			expected: []domain.Transaction{
				{ID: "TXN-1", OrganizationID: "org-1", Amount: decimal.RequireFromString("1500"), TransactionDate: mustParseDate("2024-01-15"), ExternalID: "AIRTEL-123", CounterpartyName: "JANE ACHIENG", CounterpartyPhone: "256772123456", Direction: domain.DirectionIncoming},
				{ID: "TXN-2", OrganizationID: "org-1", Amount: decimal.RequireFromString("75"), TransactionDate: mustParseDate("2024-01-16"), ExternalID: "BANK-2", Reference: "ATM withdrawal", Direction: domain.DirectionOutgoing},
			},
		},
		{
			name: "explicit direction from multiple files",
			filesData: [][]string{
				{transactionHeader, "TXN-A,20.00,2024-01-15,MM-1,,,,Incoming"},
				{transactionHeader, "TXN-B,30.00,2024-01-17,MM-2,,,,outgoing"},
			},
			expected: []domain.Transaction{
				{ID: "TXN-A", OrganizationID: "org-1", Amount: decimal.RequireFromString("20"), TransactionDate: mustParseDate("2024-01-15"), ExternalID: "MM-1", Direction: domain.DirectionIncoming},
				{ID: "TXN-B", OrganizationID: "org-1", Amount: decimal.RequireFromString("30"), TransactionDate: mustParseDate("2024-01-17"), ExternalID: "MM-2", Direction: domain.DirectionOutgoing},
			},
		},
		{
			name:      "empty files with headers only",
			filesData: [][]string{{transactionHeader}, {transactionHeader}},
			expected:  []domain.Transaction{},
		},
		{
			name:      "invalid amount format",
			filesData: [][]string{{transactionHeader, "TXN-1,abc,2024-01-15,X,,,,"}},
			wantErr:   true,
		},
		{
			name:      "unknown direction",
			filesData: [][]string{{transactionHeader, "TXN-1,10.00,2024-01-15,X,,,,sideways"}},
			wantErr:   true,
		},
		{
			name:      "wrong column count",
			filesData: [][]string{{transactionHeader, "TXN-1,10.00,2024-01-15"}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tmpFiles []string
			for i, fileData := range tt.filesData {
				tmpFile, err := createTempCSVFromLines(t, fileData, "feed_"+string(rune('0'+i))+".csv")
				require.NoError(t, err)
				tmpFiles = append(tmpFiles, tmpFile)
			}

			got, err := NewCSVFeedReader().ReadTransactions(context.Background(), "org-1", tmpFiles)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.Len(t, got, len(tt.expected))
			for i, want := range tt.expected {
				if !compareTransactions(got[i], want) {
					t.Errorf("ReadTransactions() transaction[%d] = %+v, want %+v", i, got[i], want)
				}
			}
		})
	}
}

func TestCSVFeedReader_FileErrors(t *testing.T) {
	reader := NewCSVFeedReader()
	ctx := context.Background()

	t.Run("file not found", func(t *testing.T) {
		_, err := reader.ReadPayments(ctx, "org-1", "nonexistent_file.csv")
		assert.Error(t, err)
	})

	t.Run("file with no header", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, err := reader.ReadPayments(ctx, "org-1", path)
		assert.Error(t, err)
	})

	t.Run("one valid file and one missing file", func(t *testing.T) {
		validFile, err := createTempCSVFromLines(t, []string{transactionHeader, "TXN-1,10.00,2024-01-15,X,,,,"}, "valid.csv")
		require.NoError(t, err)

		_, err = reader.ReadTransactions(ctx, "org-1", []string{validFile, "nonexistent.csv"})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		validFile, err := createTempCSVFromLines(t, []string{transactionHeader, "TXN-1,10.00,2024-01-15,X,,,,"}, "valid.csv")
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = reader.ReadTransactions(cancelled, "org-1", []string{validFile})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// Helper functions

func createTempCSV(t *testing.T, data [][]string) (string, error) {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "test_*.csv")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	writer := csv.NewWriter(tmpFile)
	if err := writer.WriteAll(data); err != nil {
		return "", err
	}
	return tmpFile.Name(), nil
}

func createTempCSVFromLines(t *testing.T, lines []string, filename string) (string, error) {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), filename)
	return tmpFile, os.WriteFile(tmpFile, []byte(strings.Join(lines, "\n")), 0o600)
}

func mustParseTime(timeStr string) time.Time {
	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		panic(err)
	}
	return t
}

func mustParseDate(dateStr string) time.Time {
	t, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

func compareTransactions(got, want domain.Transaction) bool {
	return got.ID == want.ID &&
		got.OrganizationID == want.OrganizationID &&
		got.Amount.Equal(want.Amount) &&
		got.TransactionDate.Equal(want.TransactionDate) &&
		got.ExternalID == want.ExternalID &&
		got.Reference == want.Reference &&
		got.CounterpartyName == want.CounterpartyName &&
		got.CounterpartyPhone == want.CounterpartyPhone &&
		got.Direction == want.Direction &&
		got.IsReconciled == want.IsReconciled
}
