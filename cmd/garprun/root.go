package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// Execute builds and runs the CLI.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:   "garprun",
		Short: "GARP stock screener",
		Long:  "garprun screens equity universes for growth-at-a-reasonable-price candidates,\nscores survivors and serves past runs over a JSON API.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(screenCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	log.Debug().Msg("garprun starting")
	return root.ExecuteContext(ctx)
}
