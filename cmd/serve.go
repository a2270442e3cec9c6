package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mbonsma/cyclelinx/internal/api"
	"github.com/mbonsma/cyclelinx/internal/export"
	"github.com/mbonsma/cyclelinx/internal/plan"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the plan editor HTTP server for the map renderer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve", true)
		if err != nil {
			return err
		}
		defer env.Close()

		ctl := env.Controller()
		ctl.Subscribe(func(s plan.Snapshot) {
			zap.L().Debug("plan state changed",
				zap.Uint64("seq", s.Seq),
				zap.Bool("busy", s.Busy),
				zap.Int("confirmed", len(s.Confirmed)),
				zap.Int("pending", len(s.ToAdd)+len(s.ToRemove)),
			)
		})

		breaker := env.Client.Breaker()
		srv := api.NewServer(api.Config{
			Controller:     ctl,
			Exporter:       export.New(env.Catalog.Segments),
			Budgets:        env.Catalog.Budgets,
			Metrics:        env.Catalog.Metrics,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Prometheus: api.NewMetrics(func() float64 {
				return float64(breaker.State())
			}),
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("scoring", cfg.Scoring.BaseURL),
			zap.String("history", cfg.History.Driver),
			zap.Stringer("circuit", breaker.State()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
