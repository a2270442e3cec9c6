package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbonsma/cyclelinx/internal/config"
	"github.com/mbonsma/cyclelinx/internal/model"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /budgets", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"id":2,"name":"40"},{"id":1,"name":"8"}]`))
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"jobs"},{"id":2,"name":"greenspace"}]`))
	})
	mux.HandleFunc("GET /default-scores", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"1":{"da":1,"jobs":10,"greenspace":0},"2":{"da":2,"jobs":20,"greenspace":1}}`))
	})
	mux.HandleFunc("GET /arterials", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},
			 "properties":{"id":5,"GEO_ID":900,"total_length":10,"default_project_id":3,"budget_project_ids":[]}}]}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(baseURL string) *config.Config {
	c := &config.Config{}
	c.Scoring.BaseURL = baseURL
	c.Scoring.TimeoutSecs = 5
	c.Scoring.Retry.MaxAttempts = 1
	c.History.Driver = "memory"
	c.Server.Port = 8080
	return c
}

func TestLoadCatalog(t *testing.T) {
	ts := newCatalogServer(t)
	client, err := newScoringClient(testConfig(ts.URL).Scoring)
	require.NoError(t, err)

	cat, err := loadCatalog(context.Background(), client, true)
	require.NoError(t, err)

	require.Len(t, cat.Budgets, 2)
	assert.Equal(t, "8", cat.Budgets[0].Name, "budgets sorted by length")
	assert.Equal(t, []string{"jobs", "greenspace"}, model.MetricNames(cat.Metrics))
	assert.Len(t, cat.Defaults, 2)
	require.Len(t, cat.Segments, 1)
	assert.Equal(t, int64(900), cat.Segments[0].GeoID)
}

func TestLoadCatalog_WithoutSegments(t *testing.T) {
	ts := newCatalogServer(t)
	client, err := newScoringClient(testConfig(ts.URL).Scoring)
	require.NoError(t, err)

	cat, err := loadCatalog(context.Background(), client, false)
	require.NoError(t, err)
	assert.Empty(t, cat.Segments)
}

func TestLoadCatalog_Failure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	client, err := newScoringClient(testConfig(ts.URL).Scoring)
	require.NoError(t, err)

	_, err = loadCatalog(context.Background(), client, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog")
}

func TestInitHistory_Memory(t *testing.T) {
	cfg = testConfig("http://localhost")
	t.Cleanup(func() { cfg = nil })

	st, hist, err := initHistory(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.Zero(t, hist.Len())
}

func TestInitHistory_SQLite(t *testing.T) {
	cfg = testConfig("http://localhost")
	cfg.History.Driver = "sqlite"
	cfg.History.DatabaseURL = filepath.Join(t.TempDir(), "history.db")
	t.Cleanup(func() { cfg = nil })

	ctx := context.Background()
	st, hist, err := initHistory(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)

	_, err = hist.Save(ctx, "kept", model.NewProjectSet(1), nil)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, hist, err = initHistory(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	assert.Equal(t, []string{"kept"}, hist.Names())
}

func TestInitEnv_Controller(t *testing.T) {
	ts := newCatalogServer(t)
	cfg = testConfig(ts.URL)
	t.Cleanup(func() { cfg = nil })

	env, err := initEnv(context.Background(), "serve", true)
	require.NoError(t, err)
	defer env.Close()

	ctl := env.Controller()
	cl, err := ctl.OnSegmentClicked(5)
	require.NoError(t, err)
	assert.Equal(t, "pending-add", cl.Status)

	stats := ctl.Summary()
	assert.InDelta(t, 15.0, stats["jobs"].Avg, 1e-9)
}
