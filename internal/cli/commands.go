package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"payment-reconciliation/internal/domain"
	"payment-reconciliation/internal/gateway"
)

// ─── migrate ────────────────────────────────────────────────────────────────

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the record store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("schema up to date", zap.String("driver", a.cfg.Database.Driver))
			return nil
		},
	}
}

// ─── import ─────────────────────────────────────────────────────────────────

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load payment and transaction CSV exports into the record store",
		Long: `Load a payment ledger export and any number of channel feed exports for one
organization. Rows whose id already exists are skipped, so re-importing the
same files is safe.`,
		RunE: runImport,
	}
	cmd.Flags().String("org", "", "Organization id (required)")
	cmd.Flags().String("payments", "", "Path to the payment ledger CSV")
	cmd.Flags().StringSlice("transactions", nil, "Paths to channel feed CSVs (repeat or comma-separate)")
	return cmd
}

type importSummary struct {
	PaymentsRead         int `json:"payments_read"`
	PaymentsInserted     int `json:"payments_inserted"`
	TransactionsRead     int `json:"transactions_read"`
	TransactionsInserted int `json:"transactions_inserted"`
}

func runImport(cmd *cobra.Command, args []string) error {
	org, err := requiredString(cmd, "org")
	if err != nil {
		return err
	}
	paymentsFile, _ := cmd.Flags().GetString("payments")
	transactionFiles, _ := cmd.Flags().GetStringSlice("transactions")
	if paymentsFile == "" && len(transactionFiles) == 0 {
		return fmt.Errorf("nothing to import: pass --payments and/or --transactions")
	}

	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.store.Migrate(ctx); err != nil {
		return err
	}

	reader := gateway.NewCSVFeedReader()
	var summary importSummary

	if paymentsFile != "" {
		payments, err := reader.ReadPayments(ctx, org, paymentsFile)
		if err != nil {
			return err
		}
		summary.PaymentsRead = len(payments)
		if summary.PaymentsInserted, err = a.store.InsertPayments(ctx, payments); err != nil {
			return err
		}
	}

	if len(transactionFiles) > 0 {
		transactions, err := reader.ReadTransactions(ctx, org, transactionFiles)
		if err != nil {
			return err
		}
		summary.TransactionsRead = len(transactions)
		if summary.TransactionsInserted, err = a.store.InsertTransactions(ctx, transactions); err != nil {
			return err
		}
	}

	a.logger.Info("import complete",
		zap.String("organization_id", org),
		zap.Int("payments_inserted", summary.PaymentsInserted),
		zap.Int("transactions_inserted", summary.TransactionsInserted),
	)
	return printJSON(cmd.OutOrStdout(), summary)
}

// ─── preview / auto ─────────────────────────────────────────────────────────

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show automatic and suggested matches without committing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requiredString(cmd, "org")
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.uc.Reconcile(cmd.Context(), org)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().String("org", "", "Organization id (required)")
	return cmd
}

func newAutoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Commit every automatic-tier match",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requiredString(cmd, "org")
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			preview, applied, err := a.uc.AutoReconcile(cmd.Context(), org)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"preview": preview,
				"applied": applied,
			})
		},
	}
	cmd.Flags().String("org", "", "Organization id (required)")
	return cmd
}

// ─── link / bulk ────────────────────────────────────────────────────────────

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manually link one payment to one transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requiredString(cmd, "org")
			if err != nil {
				return err
			}
			paymentID, err := requiredString(cmd, "payment")
			if err != nil {
				return err
			}
			transactionID, err := requiredString(cmd, "transaction")
			if err != nil {
				return err
			}

			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			payment, err := a.uc.ManualReconcile(cmd.Context(), org, paymentID, transactionID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), payment)
		},
	}
	cmd.Flags().String("org", "", "Organization id (required)")
	cmd.Flags().String("payment", "", "Payment id (required)")
	cmd.Flags().String("transaction", "", "Transaction id (required)")
	return cmd
}

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Link many explicit payment/transaction pairs",
		Long: `Link many explicit pairs. Pairs come from --pair PAYMENT:TRANSACTION flags
and/or a JSON file of [{"payment_id": ..., "transaction_id": ...}] objects.
A failed pair is reported and does not stop the others.`,
		RunE: runBulk,
	}
	cmd.Flags().String("org", "", "Organization id (required)")
	cmd.Flags().StringArray("pair", nil, "PAYMENT:TRANSACTION pair (repeatable)")
	cmd.Flags().StringP("file", "f", "", "JSON file of pairs")
	return cmd
}

func runBulk(cmd *cobra.Command, args []string) error {
	org, err := requiredString(cmd, "org")
	if err != nil {
		return err
	}
	rawPairs, _ := cmd.Flags().GetStringArray("pair")
	file, _ := cmd.Flags().GetString("file")

	pairs, err := parsePairs(rawPairs)
	if err != nil {
		return err
	}
	if file != "" {
		fromFile, err := readPairsFile(file)
		if err != nil {
			return err
		}
		pairs = append(pairs, fromFile...)
	}

	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.uc.BulkReconcile(cmd.Context(), org, pairs)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d pairs failed", result.Failed, result.Attempted)
	}
	return nil
}

func parsePairs(raw []string) ([]domain.Pair, error) {
	pairs := make([]domain.Pair, 0, len(raw))
	for _, r := range raw {
		paymentID, transactionID, ok := strings.Cut(r, ":")
		if !ok || paymentID == "" || transactionID == "" {
			return nil, fmt.Errorf("invalid pair %q: want PAYMENT:TRANSACTION", r)
		}
		pairs = append(pairs, domain.Pair{PaymentID: paymentID, TransactionID: transactionID})
	}
	return pairs, nil
}

func readPairsFile(path string) ([]domain.Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	var pairs []domain.Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("failed to parse pairs from %s: %w", path, err)
	}
	return pairs, nil
}
