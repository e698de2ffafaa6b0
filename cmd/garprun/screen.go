package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/garprun/garprun/internal/app"
	"github.com/garprun/garprun/internal/export"
	"github.com/garprun/garprun/internal/models"
)

// formatFlag validates --format at parse time.
type formatFlag string

var _ pflag.Value = (*formatFlag)(nil)

func (f *formatFlag) String() string { return string(*f) }
func (f *formatFlag) Type() string   { return "format" }

func (f *formatFlag) Set(value string) error {
	switch value {
	case "json", "csv", "none":
		*f = formatFlag(value)
		return nil
	default:
		return fmt.Errorf("must be one of json, csv, none")
	}
}

func screenCmd() *cobra.Command {
	var (
		configPath string
		limit      int
		workers    int
	)
	format := formatFlag("json")
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Run a screening pass and export the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			exporter, err := export.NewExporter(s.cfg.Results.ExportDir)
			if err != nil {
				return err
			}

			screener := app.NewScreener(s.cfg, app.Deps{
				Universe:     s.fmp,
				Fundamentals: s.fmp,
				Cache:        s.cache,
				Runs:         s.runs,
				Workers:      workers,
			})

			result, err := screener.Run(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if format != "none" {
				if _, err := exporter.Export(result, export.Format(format), ""); err != nil {
					return err
				}
			}

			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a screening profile (defaults to the built-in GARP profile)")
	cmd.Flags().IntVar(&limit, "limit", 0, "cap the candidate universe (0 = no cap)")
	cmd.Flags().Var(&format, "format", "export format: json|csv|none")
	cmd.Flags().IntVar(&workers, "workers", 0, "screening worker count (0 = default)")
	return cmd
}

func printResult(result *models.ScreenerResult) {
	fmt.Printf("Run %s (%s): %d/%d matched in %.2fs\n\n",
		result.RunID, result.ConfigName, result.TotalMatches, result.TotalScanned, result.ExecutionSeconds)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tSECTOR\tPRICE\tSCORE")
	for i := range result.Stocks {
		stock := &result.Stocks[i]
		score := "-"
		if stock.Score != nil {
			score = fmt.Sprintf("%.2f", *stock.Score)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
			stock.Symbol, stock.Name, stock.Sector, stock.Price, score)
	}
	w.Flush()

	if len(result.Errors) > 0 {
		fmt.Printf("\n%d errors during the run (first: %s)\n", len(result.Errors), result.Errors[0])
	}
}
