package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/garprun/garprun/internal/app"
	httpapi "github.com/garprun/garprun/internal/interfaces/http"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		every      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve past runs over HTTP and optionally screen on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			metrics := httpapi.NewMetricsRegistry()
			hub := httpapi.NewHub()
			server := httpapi.NewServer(s.cfg.Server.Listen, s.runs, metrics, hub)

			ctx := cmd.Context()

			if every > 0 {
				screener := app.NewScreener(s.cfg, app.Deps{
					Universe:     s.fmp,
					Fundamentals: s.fmp,
					Cache:        s.cache,
					Runs:         s.runs,
					Metrics:      metrics,
					Progress:     hubSink{hub: hub},
				})
				go runOnSchedule(ctx, screener, every)
			}

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a screening profile")
	cmd.Flags().DurationVar(&every, "every", 0, "run a screening pass on this interval (0 = serve only)")
	return cmd
}

// runOnSchedule runs an immediate pass and then repeats on the interval
// until the context is cancelled.
func runOnSchedule(ctx context.Context, screener *app.Screener, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := screener.Run(ctx, 0); err != nil {
			log.Error().Err(err).Msg("Scheduled screening pass failed")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
