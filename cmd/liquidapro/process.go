package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gersimian1/LiquidaPro/internal/domain/export"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/consolidator"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/parser"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/pipeline"
	"github.com/gersimian1/LiquidaPro/internal/domain/history"
	"github.com/gersimian1/LiquidaPro/pkg/money"
)

var (
	outputPath string
	format     string
	fieldsFlag []string
	ordering   string
	workers    int
	title      string
	noHistory  bool
)

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Extract and consolidate one or more payroll statements",
	Long: `Process reads every given document, detects its format from the content,
extracts the employee settlement blocks, and merges them into one row per
employee. Documents that cannot be read are reported and skipped; the run
fails only when no document contains any settlement.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (extension chooses the default format)")
	processCmd.Flags().StringVar(&format, "format", "", "output format: xlsx, csv or both")
	processCmd.Flags().StringSliceVar(&fieldsFlag, "fields", nil, "monetary columns to keep ("+fieldNames()+")")
	processCmd.Flags().StringVar(&ordering, "ordering", "", "row ordering: alphabetical or original")
	processCmd.Flags().IntVar(&workers, "workers", 0, "parallel document workers (0 = one per CPU)")
	processCmd.Flags().StringVar(&title, "title", "", "report title for the XLSX banner")
	processCmd.Flags().BoolVar(&noHistory, "no-history", false, "skip recording this run in the local history")
}

func fieldChoices() []parser.FieldID {
	return parser.MonetaryFields()
}

func runProcess(ctx context.Context, paths []string) error {
	start := time.Now()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs := make([]pipeline.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, pipeline.Document{Name: filepath.Base(path), Data: data})
	}

	opts, err := buildOptions()
	if err != nil {
		return err
	}

	res, err := pipeline.New(logger).Run(ctx, docs, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr)

	for _, docErr := range res.DocumentErrors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", docErr.Error())
	}

	if err := writeReports(res); err != nil {
		return err
	}
	if !noHistory && cfg.History.Enabled {
		recordRun(ctx, res, len(docs), start)
	}

	netTotal := money.FromDecimal(res.Totals[parser.FieldNetPayable])
	fmt.Printf("Processed %d document(s) in %s\n", len(docs), time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Employees:      %d\n", res.UniqueEmployees)
	fmt.Printf("  Settlements:    %d (%d skipped)\n", res.TotalBlocks, res.SkippedBlocks)
	if _, ok := res.Totals[parser.FieldNetPayable]; ok {
		fmt.Printf("  Net payable:    %s\n", netTotal.Display())
	}
	return nil
}

func buildOptions() (pipeline.Options, error) {
	opts := pipeline.Options{
		Fields:   cfg.Extract.Fields,
		Ordering: cfg.Extract.Ordering,
		Workers:  cfg.Extract.Workers,
		Progress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rProcessing documents... %d/%d", done, total)
		},
	}

	if len(fieldsFlag) > 0 {
		fields := []parser.FieldID{parser.FieldName}
		for _, raw := range fieldsFlag {
			id, err := parser.ParseFieldID(strings.TrimSpace(raw))
			if err != nil {
				return pipeline.Options{}, err
			}
			if id != parser.FieldName {
				fields = append(fields, id)
			}
		}
		opts.Fields = fields
	}
	switch strings.ToLower(ordering) {
	case "":
	case "alphabetical":
		opts.Ordering = consolidator.OrderAlphabetical
	case "original":
		opts.Ordering = consolidator.OrderOriginal
	default:
		return pipeline.Options{}, fmt.Errorf("unknown ordering %q", ordering)
	}
	if workers > 0 {
		opts.Workers = workers
	}
	return opts, nil
}

// writeReports renders the result in the requested format(s). With no flags
// an XLSX report lands next to the inputs under a timestamped name.
func writeReports(res *pipeline.Result) error {
	svc := export.NewService(logger)

	reportTitle := title
	if reportTitle == "" {
		reportTitle = cfg.Output.Title
	}

	path := outputPath
	if path == "" {
		name := fmt.Sprintf("consolidado_%s", time.Now().Format("20060102_150405"))
		path = filepath.Join(cfg.Output.Dir, name+".xlsx")
	}

	selected := format
	if selected == "" {
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			selected = "csv"
		} else {
			selected = "xlsx"
		}
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	write := func(path string, data []byte) error {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}

	switch strings.ToLower(selected) {
	case "xlsx":
		data, err := svc.XLSX(res, reportTitle)
		if err != nil {
			return err
		}
		return write(base+".xlsx", data)
	case "csv":
		data, err := svc.CSV(res)
		if err != nil {
			return err
		}
		return write(base+".csv", data)
	case "both":
		data, err := svc.XLSX(res, reportTitle)
		if err != nil {
			return err
		}
		if err := write(base+".xlsx", data); err != nil {
			return err
		}
		data, err = svc.CSV(res)
		if err != nil {
			return err
		}
		return write(base+".csv", data)
	default:
		return fmt.Errorf("unknown format %q", selected)
	}
}

// recordRun appends the run to the local history; failures are logged and
// never fail the run itself.
func recordRun(ctx context.Context, res *pipeline.Result, documents int, start time.Time) {
	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		logger.Warn("history unavailable", "error", err)
		return
	}
	repo, err := history.Open(ctx, cfg.History.Path, logger)
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return
	}
	defer repo.Close()

	_, err = repo.Record(ctx, history.Run{
		StartedAt:       start,
		Documents:       documents,
		FailedDocuments: len(res.DocumentErrors),
		Blocks:          res.TotalBlocks,
		SkippedBlocks:   res.SkippedBlocks,
		Employees:       res.UniqueEmployees,
		NetPayableTotal: res.Totals[parser.FieldNetPayable],
	})
	if err != nil {
		logger.Warn("history record failed", "error", err)
	}
}
