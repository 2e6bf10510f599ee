// Package cli implements the reconciler command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"payment-reconciliation/internal/config"
	"payment-reconciliation/internal/gateway"
	"payment-reconciliation/internal/matching"
	"payment-reconciliation/internal/usecase"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reconciler",
		Short: "Match ledger payments to channel transactions",
		Long: `reconciler links internally recorded payments to the bank and mobile-money
transactions that confirm them. It scores every candidate pair, proposes
automatic and suggested matches, and commits links atomically.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to a TOML config file")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newImportCmd(),
		newPreviewCmd(),
		newAutoCmd(),
		newLinkCmd(),
		newBulkCmd(),
	)
	return root
}

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *gateway.SQLRecordStore
	uc     *usecase.ReconciliationUseCase
}

func bootstrap(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := gateway.OpenSQLRecordStore(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		logger.Sync()
		return nil, err
	}

	scorer := matching.NewScorer(cfg.Matching.Weights, cfg.Phone)
	matcher := matching.NewMatcher(scorer, cfg.Matching.Thresholds.Minimum, cfg.Matching.Workers)
	uc := usecase.NewReconciliationUseCase(store, matcher, cfg.Matching.Thresholds, logger)

	return &app{cfg: cfg, logger: logger, store: store, uc: uc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close record store", zap.Error(err))
	}
	a.logger.Sync()
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate JSON report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func requiredString(cmd *cobra.Command, name string) (string, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return v, nil
}
