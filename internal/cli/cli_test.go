package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-reconciliation/internal/config"
	"payment-reconciliation/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// setupWorkspace writes a config pointing at a fresh SQLite file plus one
// payment export and one channel feed export.
func setupWorkspace(t *testing.T) (configPath, paymentsPath, feedPath string) {
	t.Helper()
	t.Setenv(config.EnvDatabaseDSN, "")
	dir := t.TempDir()

	configPath = writeFile(t, dir, "config.toml", fmt.Sprintf(`
[database]
driver = "sqlite"
dsn = %q

[matching]
workers = 2

[log]
level = "error"
`, filepath.Join(dir, "recon.db")))

	paymentsPath = writeFile(t, dir, "payments.csv", strings.Join([]string{
		"id,amount,payment_date,reference,counterparty_name,counterparty_phone,payment_method",
		"PAY-1,1500.00,2024-01-15,AIRTEL-123,,,bank_transfer",
		"PAY-2,1000.00,2024-01-15,,,,cash",
		"PAY-3,42.00,2024-02-01,,,,cash",
	}, "\n"))

	feedPath = writeFile(t, dir, "feed.csv", strings.Join([]string{
		"id,amount,transaction_date,external_id,reference,counterparty_name,counterparty_phone,direction",
		"TXN-1,1500.00,2024-01-15,AIRTEL-123,,,,incoming",
		"TXN-2,1000.00,2024-01-15,BANK-9,,,,incoming",
		"TXN-3,-42.00,2024-02-01,BANK-10,,,,",
	}, "\n"))
	return configPath, paymentsPath, feedPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_ImportPreviewAutoLink(t *testing.T) {
	cfg, payments, feed := setupWorkspace(t)

	_, err := run(t, "migrate", "-c", cfg)
	require.NoError(t, err)

	out, err := run(t, "import", "-c", cfg, "--org", "org-1", "--payments", payments, "--transactions", feed)
	require.NoError(t, err)
	var imported importSummary
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, importSummary{PaymentsRead: 3, PaymentsInserted: 3, TransactionsRead: 3, TransactionsInserted: 3}, imported)

	// Re-importing is a no-op.
	out, err = run(t, "import", "-c", cfg, "--org", "org-1", "--payments", payments)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, 0, imported.PaymentsInserted)

	out, err = run(t, "preview", "-c", cfg, "--org", "org-1")
	require.NoError(t, err)
	var preview domain.ReconciliationResult
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	require.Len(t, preview.AutomaticMatches, 1)
	assert.Equal(t, "PAY-1", preview.AutomaticMatches[0].PaymentID)
	require.Len(t, preview.SuggestedMatches, 1)
	assert.Equal(t, "PAY-2", preview.SuggestedMatches[0].PaymentID)
	assert.Equal(t, []string{"PAY-3"}, paymentIDs(preview.UnmatchedPayments))
	assert.Empty(t, preview.UnmatchedTransactions, "outgoing TXN-3 is not a candidate")

	out, err = run(t, "auto", "-c", cfg, "--org", "org-1")
	require.NoError(t, err)
	var auto struct {
		Applied domain.BatchResult `json:"applied"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &auto))
	assert.Equal(t, 1, auto.Applied.Succeeded)

	out, err = run(t, "link", "-c", cfg, "--org", "org-1", "--payment", "PAY-2", "--transaction", "TXN-2")
	require.NoError(t, err)
	var linked domain.Payment
	require.NoError(t, json.Unmarshal([]byte(out), &linked))
	require.NotNil(t, linked.LinkedTransactionID)
	assert.Equal(t, "TXN-2", *linked.LinkedTransactionID)

	_, err = run(t, "link", "-c", cfg, "--org", "org-1", "--payment", "PAY-1", "--transaction", "TXN-2")
	assert.ErrorIs(t, err, domain.ErrAlreadyReconciled)

	_, err = run(t, "link", "-c", cfg, "--org", "org-2", "--payment", "PAY-3", "--transaction", "TXN-3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCLI_Bulk(t *testing.T) {
	cfg, payments, feed := setupWorkspace(t)

	_, err := run(t, "import", "-c", cfg, "--org", "org-1", "--payments", payments, "--transactions", feed)
	require.NoError(t, err)

	pairsFile := writeFile(t, t.TempDir(), "pairs.json", `[{"payment_id":"PAY-2","transaction_id":"TXN-2"}]`)
	out, err := run(t, "bulk", "-c", cfg, "--org", "org-1", "--pair", "PAY-1:TXN-1", "--pair", "PAY-3:TXN-1", "-f", pairsFile)
	assert.EqualError(t, err, "1 of 3 pairs failed")

	var result domain.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, []string{"pair 2: transaction TXN-1 already reconciled"}, result.Errors)
}

func TestCLI_Errors(t *testing.T) {
	cfg, _, _ := setupWorkspace(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "preview without org", args: []string{"preview", "-c", cfg}},
		{name: "import without files", args: []string{"import", "-c", cfg, "--org", "org-1"}},
		{name: "bad pair", args: []string{"bulk", "-c", cfg, "--org", "org-1", "--pair", "PAY-1"}},
		{name: "missing config", args: []string{"migrate", "-c", filepath.Join(t.TempDir(), "missing.toml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"PAY-1:TXN-1", "PAY-2:TXN-2"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Pair{
		{PaymentID: "PAY-1", TransactionID: "TXN-1"},
		{PaymentID: "PAY-2", TransactionID: "TXN-2"},
	}, pairs)

	_, err = parsePairs([]string{":TXN-1"})
	assert.Error(t, err)
}

func paymentIDs(payments []domain.Payment) []string {
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID)
	}
	return ids
}
