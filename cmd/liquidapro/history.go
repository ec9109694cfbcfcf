package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gersimian1/LiquidaPro/internal/domain/history"
	"github.com/gersimian1/LiquidaPro/pkg/money"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent extraction runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := history.Open(cmd.Context(), cfg.History.Path, logger)
		if err != nil {
			return err
		}
		defer repo.Close()

		runs, err := repo.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tDOCS\tFAILED\tEMPLOYEES\tSETTLEMENTS\tNET PAYABLE")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04"),
				run.Documents,
				run.FailedDocuments,
				run.Employees,
				run.Blocks,
				money.FromDecimal(run.NetPayableTotal).Display(),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
}
