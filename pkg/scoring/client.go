// Package scoring is a client for the cyclelinx scoring API: the static
// catalog (budgets, metrics, default scores, segments) and the
// accessibility calculations.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mbonsma/cyclelinx/internal/model"
	"github.com/mbonsma/cyclelinx/internal/resilience"
)

const defaultCacheSize = 64

// Option configures the scoring client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. "http://localhost:5000".
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithRetry sets the retry policy for static catalog requests.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithCircuitBreaker sets the breaker guarding every request.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// WithCacheSize sets how many budgets' projects and scores are cached.
func WithCacheSize(n int) Option {
	return func(c *Client) {
		c.cacheSize = n
	}
}

// Client talks to the scoring API over HTTP.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
	breaker   *resilience.CircuitBreaker
	cacheSize int

	budgetScores   *lru.Cache[int, model.ScoreResults]
	budgetProjects *lru.Cache[int, model.ProjectSet]
}

// NewClient creates a scoring client.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: "http://localhost:5000",
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Inf, 0),
		retry:     resilience.DefaultRetryConfig(),
		breaker:   resilience.NewCircuitBreaker(BreakerConfig(resilience.DefaultCircuitBreakerConfig())),
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize <= 0 {
		c.cacheSize = defaultCacheSize
	}

	var err error
	if c.budgetScores, err = lru.New[int, model.ScoreResults](c.cacheSize); err != nil {
		return nil, eris.Wrap(err, "scoring: create score cache")
	}
	if c.budgetProjects, err = lru.New[int, model.ProjectSet](c.cacheSize); err != nil {
		return nil, eris.Wrap(err, "scoring: create project cache")
	}
	return c, nil
}

// ShouldTrip reports whether a failed call counts against the circuit
// breaker. Client errors and cancelled requests do not.
func ShouldTrip(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		return resilience.IsTransientHTTPStatus(se.StatusCode)
	}
	return true
}

// BreakerConfig installs ShouldTrip into cfg.
func BreakerConfig(cfg resilience.CircuitBreakerConfig) resilience.CircuitBreakerConfig {
	cfg.ShouldTrip = ShouldTrip
	return cfg
}

// Breaker exposes the client's circuit breaker for health reporting.
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// get performs one GET and decodes a JSON body into out. Failures are
// returned as *ServiceError; retryable ones also carry a TransientError.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &ServiceError{Op: op, Err: err}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var cause error = eris.Errorf("%s", strings.TrimSpace(string(body)))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			cause = resilience.NewTransientError(cause, resp.StatusCode)
		}
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Err: cause}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Err: eris.Wrap(err, "decode response")}
	}

	zap.L().Debug("scoring: request complete",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// call runs a request through the circuit breaker.
func call[T any](ctx context.Context, c *Client, op, path string, query url.Values) (T, error) {
	v, err := resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (T, error) {
		var out T
		err := c.get(ctx, op, path, query, &out)
		return out, err
	})
	if err != nil && !errors.Is(err, ErrServiceUnavailable) {
		err = &ServiceError{Op: op, Err: err}
	}
	return v, err
}

// callRetry runs a request through the breaker with retries. Only static
// catalog data is fetched this way.
func callRetry[T any](ctx context.Context, c *Client, op, path string) (T, error) {
	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger(op)
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		return call[T](ctx, c, op, path, nil)
	})
}

// Budgets lists the precomputed budgets, smallest first.
func (c *Client) Budgets(ctx context.Context) ([]model.Budget, error) {
	budgets, err := callRetry[[]model.Budget](ctx, c, "budgets", "/budgets")
	if err != nil {
		return nil, eris.Wrap(err, "scoring: budgets")
	}
	model.SortBudgets(budgets)
	return budgets, nil
}

// Metrics lists the accessibility metrics in catalog order.
func (c *Client) Metrics(ctx context.Context) ([]model.Metric, error) {
	metrics, err := callRetry[[]model.Metric](ctx, c, "metrics", "/metrics")
	if err != nil {
		return nil, eris.Wrap(err, "scoring: metrics")
	}
	return metrics, nil
}

// DefaultScores returns the pre-plan score of every area.
func (c *Client) DefaultScores(ctx context.Context) (model.DefaultScores, error) {
	scores, err := callRetry[model.DefaultScores](ctx, c, "default scores", "/default-scores")
	if err != nil {
		return nil, eris.Wrap(err, "scoring: default scores")
	}
	return scores, nil
}

// ProjectsForBudget returns the project ids in a precomputed budget.
func (c *Client) ProjectsForBudget(ctx context.Context, budgetID int) (model.ProjectSet, error) {
	if ids, ok := c.budgetProjects.Get(budgetID); ok {
		return ids.Clone(), nil
	}
	members, err := call[[]model.BudgetProjectMember](ctx, c, "budget projects", fmt.Sprintf("/budgets/%d/arterials", budgetID), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: projects for budget %d", budgetID)
	}
	ids := make(model.ProjectSet, len(members))
	for _, m := range members {
		ids[m.ProjectID] = struct{}{}
	}
	c.budgetProjects.Add(budgetID, ids)
	return ids.Clone(), nil
}

// ScoresForBudget returns the precomputed scores of a budget.
func (c *Client) ScoresForBudget(ctx context.Context, budgetID int) (model.ScoreResults, error) {
	if scores, ok := c.budgetScores.Get(budgetID); ok {
		return scores.Clone(), nil
	}
	scores, err := call[model.ScoreResults](ctx, c, "budget scores", fmt.Sprintf("/budgets/%d/scores", budgetID), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: scores for budget %d", budgetID)
	}
	c.budgetScores.Add(budgetID, scores)
	return scores.Clone(), nil
}

// ScoresForProjects computes accessibility for an arbitrary plan. Results
// are not cached: each plan is scored on demand.
func (c *Client) ScoresForProjects(ctx context.Context, ids model.ProjectSet) (model.ScoreResults, error) {
	sorted := ids.Sorted()
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.Itoa(int(id))
	}
	q := url.Values{"project_ids": []string{strings.Join(parts, ",")}}

	scores, err := call[model.ScoreResults](ctx, c, "accessibility", "/accessibility", q)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: accessibility for %d projects", len(sorted))
	}
	return scores, nil
}
