// Command invetl converts hospital inventory exports into clean workbooks and
// folds them into combined stores.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"inventoryetl/database"
	"inventoryetl/detect"
	"inventoryetl/internal/config"
	"inventoryetl/internal/logging"
	"inventoryetl/normalization"
)

var (
	// Глобальные флаги
	cfgFile   string
	verbose   bool
	noColor   bool
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
	ui     *UI
)

var rootCmd = &cobra.Command{
	Use:   "invetl",
	Short: "Inventory export conversion and combination",
	Long: `invetl turns raw inventory exports (pipe or tab delimited text, legacy .xls,
.xlsx) into typed native workbooks and appends them to combined stores.

Typical run:
  invetl convert --year 2024 --bu PT2
  invetl combine --category INV_VALUE --year 2024 --bu PT2`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		level := cfg.LogLevel
		if verbose {
			level = "DEBUG"
		}
		format := cfg.LogFormat
		if logFormat != "" {
			format = logFormat
		}
		if err := logging.Setup(level, format, os.Stderr); err != nil {
			return err
		}
		logger = logging.Logger

		if noColor {
			color.NoColor = true
		}
		ui = NewUI(noColor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path, .json or .yaml (default: env vars)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or text (default from config)")

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newConvertFileCmd())
	rootCmd.AddCommand(newCombineCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newStoresCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newDetectCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// registry возвращает встроенные категории с переопределениями из конфигурации.
func registry() *normalization.Registry {
	reg := normalization.DefaultRegistry()
	if unknown := reg.ApplyConfig(cfg.ColumnRenames, cfg.ValueReplacements); len(unknown) > 0 {
		logger.Warn("config overrides for unknown categories ignored", "categories", unknown)
	}
	return reg
}

func newDetector() *detect.Detector {
	return detect.New(cfg.DetectorConfig(), logger)
}

func openStore() (*database.CombinedDB, error) {
	db, err := database.NewCombinedDB(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.StorePath, err)
	}
	return db, nil
}
