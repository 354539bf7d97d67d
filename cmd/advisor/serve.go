package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantdesk/advisor/internal/interfaces/http"
	"github.com/quantdesk/advisor/internal/metrics"
	"github.com/quantdesk/advisor/internal/persistence"
	"github.com/quantdesk/advisor/internal/persistence/postgres"
)

const shutdownGrace = 10 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	var noPersist bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the advisory HTTP API",
		Long:  "Serves the backtest, advisory and risk endpoints plus /health and /metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			prom := prometheus.NewRegistry()
			registry := metrics.NewRegistry()
			if err := registry.Register(prom); err != nil {
				return err
			}

			app, err := newApp(*configPath, true, registry)
			if err != nil {
				return err
			}

			var backtests persistence.BacktestRepo
			var decisions persistence.DecisionRepo
			if !noPersist {
				db, err := postgres.Connect(app.cfg.Postgres.DSN,
					app.cfg.Postgres.MaxOpenConns, app.cfg.Postgres.MaxIdleConns)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.EnsureSchema(cmd.Context(), db); err != nil {
					return err
				}
				backtests = postgres.NewBacktestRepo(db, 0)
				decisions = postgres.NewDecisionRepo(db, 0)
			}

			handlers := http.NewHandlers(app.engine, app.detector, app.cfg.Strategy,
				app.source, app.fetcher, app.sectors, backtests, decisions, registry)
			server := http.NewServer(http.ServerConfig{
				Addr:         app.cfg.Server.Addr,
				ReadTimeout:  app.cfg.Server.ReadTimeout,
				WriteTimeout: app.cfg.Server.WriteTimeout,
				IdleTimeout:  app.cfg.Server.IdleTimeout,
			}, handlers, prom)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				log.Info().Msg("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				return server.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "Run without the Postgres audit trail")
	return cmd
}
