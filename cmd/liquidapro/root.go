package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gersimian1/LiquidaPro/pkg/config"
)

var (
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "liquidapro",
	Short: "Consolidate provincial payroll statements into per-employee reports",
	Long: `LiquidaPro reads payroll statement documents (PDF or plain text),
extracts every employee settlement block, merges the blocks that belong to
the same person, and writes a consolidated spreadsheet with exact totals.

Example usage:
  liquidapro process enero.pdf febrero.pdf -o consolidado.xlsx
  liquidapro process *.pdf --fields net_payable --format csv
  liquidapro history --limit 10`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		logger = newLogger(cfg.Log.Level)
		slog.SetDefault(logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// fieldNames lists the accepted --fields values for help output.
func fieldNames() string {
	var sb strings.Builder
	for i, f := range fieldChoices() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(f))
	}
	return sb.String()
}
