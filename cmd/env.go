package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mbonsma/cyclelinx/internal/config"
	"github.com/mbonsma/cyclelinx/internal/db"
	"github.com/mbonsma/cyclelinx/internal/history"
	"github.com/mbonsma/cyclelinx/internal/model"
	"github.com/mbonsma/cyclelinx/internal/plan"
	"github.com/mbonsma/cyclelinx/internal/resilience"
	"github.com/mbonsma/cyclelinx/internal/store"
	"github.com/mbonsma/cyclelinx/pkg/scoring"
)

// catalog is the static reference data loaded once per session.
type catalog struct {
	Budgets  []model.Budget
	Metrics  []model.Metric
	Defaults model.DefaultScores
	Segments []model.Segment
}

// appEnv holds the collaborators shared by commands.
type appEnv struct {
	Client  *scoring.Client
	Store   store.Store
	History *history.Store
	Catalog catalog
}

// Close releases the history store.
func (e *appEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close history store", zap.Error(err))
		}
	}
}

// Controller builds a plan controller over the loaded catalog.
func (e *appEnv) Controller() *plan.Controller {
	return plan.New(plan.Config{
		Service:  e.Client,
		Segments: e.Catalog.Segments,
		Defaults: e.Catalog.Defaults,
		Metrics:  e.Catalog.Metrics,
		History:  e.History,
	})
}

func newScoringClient(c config.ScoringConfig) (*scoring.Client, error) {
	breaker := resilience.NewCircuitBreaker(scoring.BreakerConfig(
		resilience.CircuitFromConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs),
	))
	opts := []scoring.Option{
		scoring.WithBaseURL(c.BaseURL),
		scoring.WithRateLimit(c.RatePerSec, c.RateBurst),
		scoring.WithRetry(resilience.RetryFromConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)),
		scoring.WithCircuitBreaker(breaker),
		scoring.WithCacheSize(c.BudgetCacheSize),
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, scoring.WithHTTPClient(&http.Client{Timeout: time.Duration(c.TimeoutSecs) * time.Second}))
	}
	return scoring.NewClient(opts...)
}

// initHistory opens the configured history store and hydrates a history
// from it. The memory driver yields a session-only history and a nil store.
func initHistory(ctx context.Context) (store.Store, *history.Store, error) {
	st, err := store.Open(ctx, cfg.History.Driver, cfg.History.DatabaseURL, &db.PoolConfig{MaxConns: cfg.History.MaxConns})
	if err != nil {
		return nil, nil, eris.Wrap(err, "open history store")
	}
	var repo history.Repository
	if st != nil {
		repo = st
	}
	h, err := history.Open(ctx, repo)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, nil, err
	}
	return st, h, nil
}

// loadCatalog fetches the static catalog concurrently. Segments are only
// fetched when withSegments is set.
func loadCatalog(ctx context.Context, client *scoring.Client, withSegments bool) (catalog, error) {
	var cat catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cat.Budgets, err = client.Budgets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cat.Metrics, err = client.Metrics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cat.Defaults, err = client.DefaultScores(gctx)
		return err
	})
	if withSegments {
		g.Go(func() error {
			var err error
			cat.Segments, err = client.Segments(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return catalog{}, eris.Wrap(err, "load catalog")
	}

	zap.L().Info("catalog loaded",
		zap.Int("budgets", len(cat.Budgets)),
		zap.Int("metrics", len(cat.Metrics)),
		zap.Int("areas", len(cat.Defaults)),
		zap.Int("segments", len(cat.Segments)),
	)
	return cat, nil
}

// initEnv validates config for mode, builds the scoring client, loads the
// catalog and opens history.
func initEnv(ctx context.Context, mode string, withSegments bool) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	client, err := newScoringClient(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(ctx, client, withSegments)
	if err != nil {
		return nil, err
	}

	st, hist, err := initHistory(ctx)
	if err != nil {
		return nil, err
	}

	return &appEnv{Client: client, Store: st, History: hist, Catalog: cat}, nil
}
