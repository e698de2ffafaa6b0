package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garprun/garprun/internal/analysis"
	"github.com/garprun/garprun/internal/models"
	"github.com/garprun/garprun/internal/scoring"
)

func analyzeCmd() *cobra.Command {
	var (
		configPath string
		sectorPE   float64
		asJSON     bool
		asPlain    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run the deep analysis, AI score and trade write-up for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])

			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()

			metrics, err := s.fmp.Fundamentals(ctx, symbol)
			if err != nil {
				return fmt.Errorf("failed to load fundamentals for %s: %w", symbol, err)
			}
			stock := &models.Stock{Symbol: symbol, Metrics: *metrics, DataSource: s.cfg.DataSource}

			analyzer := analysis.NewAnalyzer(s.fmp, s.fmp, s.fmp, s.fmp, s.fmp, s.fmp, s.cfg.Provider.MaxNewsItems)
			record := analyzer.Analyze(ctx, stock)

			scorer := scoring.NewAIScorer(s.fmp)
			var median *float64
			if sectorPE > 0 {
				median = &sectorPE
			}
			breakdown := scorer.Score(ctx, stock, record, median)

			idea := analysis.NewIdeaWriter().Generate(stock, record, breakdown)

			if asJSON {
				out := map[string]interface{}{
					"symbol":   symbol,
					"analysis": record,
					"score":    breakdown,
					"idea":     idea,
				}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if asPlain {
				fmt.Println(idea.PlainText)
				return nil
			}
			fmt.Println(idea.Markdown)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a screening profile")
	cmd.Flags().Float64Var(&sectorPE, "sector-pe", 0, "sector median P/E for peer comparison (0 = skip)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw analysis, score and write-up as JSON")
	cmd.Flags().BoolVar(&asPlain, "plain", false, "print the plain-text write-up instead of markdown")
	return cmd
}
