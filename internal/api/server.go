// Package api exposes the plan controller to a map renderer over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mbonsma/cyclelinx/internal/export"
	"github.com/mbonsma/cyclelinx/internal/model"
	"github.com/mbonsma/cyclelinx/internal/plan"
	"github.com/mbonsma/cyclelinx/internal/scores"
)

// Config wires the server to its collaborators.
type Config struct {
	Controller     *plan.Controller
	Exporter       *export.Exporter
	Budgets        []model.Budget
	Metrics        []model.Metric
	AllowedOrigins []string
	// Prometheus defaults to a fresh registry without a circuit gauge.
	Prometheus *Metrics
}

// Server routes renderer requests to the plan controller.
type Server struct {
	ctl      *plan.Controller
	exporter *export.Exporter
	budgets  []model.Budget
	metrics  []model.Metric
	origins  []string
	prom     *Metrics
}

// NewServer builds a server from cfg.
func NewServer(cfg Config) *Server {
	prom := cfg.Prometheus
	if prom == nil {
		prom = NewMetrics(nil)
	}
	return &Server{
		ctl:      cfg.Controller,
		exporter: cfg.Exporter,
		budgets:  cfg.Budgets,
		metrics:  cfg.Metrics,
		origins:  cfg.AllowedOrigins,
		prom:     prom,
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(s.prom.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.prom.Handler())

	r.Get("/catalog/budgets", s.handleBudgets)
	r.Get("/catalog/metrics", s.handleMetrics)

	r.Get("/state", s.handleState)
	r.Get("/summary", s.handleSummary)
	r.Post("/calculate", s.handleCalculate)
	r.Post("/reset", s.handleReset)
	r.Post("/budgets/{id}/select", s.handleSelectBudget)
	r.Put("/view", s.handleView)
	r.Get("/legend", s.handleLegend)

	r.Route("/segments", func(r chi.Router) {
		r.Get("/", s.handleClassifications)
		r.Get("/{id}", s.handleClassify)
		r.Post("/{id}/click", s.handleClick)
	})

	r.Route("/areas/{id}", func(r chi.Router) {
		r.Get("/style", s.handleStyle)
		r.Get("/tooltip", s.handleTooltip)
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.handleListHistory)
		r.Post("/", s.handleSaveHistory)
		r.Delete("/{name}", s.handleRemoveHistory)
		r.Post("/{name}/restore", s.handleRestoreHistory)
		r.Post("/{name}/baseline", s.handleSetBaseline)
		r.Get("/{name}/export", s.handleExport)
	})
	r.Delete("/baseline", s.handleResetBaseline)

	return r
}

func intParam(r *http.Request, key string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, key))
}

func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	type budget struct {
		model.Budget
		Km float64 `json:"km"`
	}
	out := make([]budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, budget{Budget: b, Km: b.Km()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	type metric struct {
		model.Metric
		Label string `json:"label"`
	}
	out := make([]metric, 0, len(s.metrics))
	for _, m := range s.metrics {
		out = append(out, metric{Metric: m, Label: scores.MetricLabel(m.Name)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Summary())
}

// writeOutcome reports a plan operation. A superseded request answers 202
// with the state as it now stands.
func (s *Server) writeOutcome(w http.ResponseWriter, op string, err error) {
	switch {
	case err == nil:
		s.prom.observePlan(op, "ok")
		writeJSON(w, http.StatusOK, s.ctl.Snapshot())
	case errors.Is(err, plan.ErrStaleResponse):
		s.prom.observePlan(op, "stale")
		writeJSON(w, http.StatusAccepted, s.ctl.Snapshot())
	default:
		s.prom.observePlan(op, "error")
		writeError(w, err)
	}
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	s.writeOutcome(w, "calculate", s.ctl.Calculate(r.Context()))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctl.Reset()
	s.writeOutcome(w, "reset", nil)
}

func (s *Server) handleSelectBudget(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		badRequest(w, "budget id must be an integer")
		return
	}
	s.writeOutcome(w, "select_budget", s.ctl.SelectBudget(r.Context(), id))
}

type viewRequest struct {
	Metric *string `json:"metric"`
	Scope  *string `json:"scope"`
	Scale  *string `json:"scale"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	// Validate everything before changing anything.
	var (
		scope model.Scope
		scale scores.ScaleType
		err   error
	)
	if req.Scope != nil {
		if scope, err = model.ParseScope(*req.Scope); err != nil {
			badRequest(w, err.Error())
			return
		}
	}
	if req.Scale != nil {
		if scale, err = scores.ParseScaleType(*req.Scale); err != nil {
			badRequest(w, err.Error())
			return
		}
	}
	if req.Metric != nil {
		if err := s.ctl.SetMetric(*req.Metric); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Scope != nil {
		s.ctl.SetScope(scope)
	}
	if req.Scale != nil {
		s.ctl.SetScaleType(scale)
	}
	writeJSON(w, http.StatusOK, s.ctl.Snapshot().View)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	legend, ok := s.ctl.Legend()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, legend)
}

func segmentParam(w http.ResponseWriter, r *http.Request) (model.SegmentID, bool) {
	id, err := intParam(r, "id")
	if err != nil {
		badRequest(w, "segment id must be an integer")
		return 0, false
	}
	return model.SegmentID(id), true
}

func (s *Server) handleClassifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Classifications())
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentParam(w, r)
	if !ok {
		return
	}
	cl, err := s.ctl.Classify(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cl)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentParam(w, r)
	if !ok {
		return
	}
	cl, err := s.ctl.OnSegmentClicked(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cl)
}

func areaParam(w http.ResponseWriter, r *http.Request) (model.AreaID, bool) {
	id, err := intParam(r, "id")
	if err != nil {
		badRequest(w, "area id must be an integer")
		return 0, false
	}
	return model.AreaID(id), true
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	id, ok := areaParam(w, r)
	if !ok {
		return
	}
	style, ok := s.ctl.StyleFor(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, style)
}

func (s *Server) handleTooltip(w http.ResponseWriter, r *http.Request) {
	id, ok := areaParam(w, r)
	if !ok {
		return
	}
	rows, ok := s.ctl.Tooltip(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type historyEntry struct {
	Name         string            `json:"name"`
	Improvements []model.ProjectID `json:"improvements"`
	Active       bool              `json:"active"`
	CreatedAt    string            `json:"created_at"`
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	hist := s.ctl.History()
	active := hist.Active()
	items := hist.List()
	out := make([]historyEntry, 0, len(items))
	for _, it := range items {
		out = append(out, historyEntry{
			Name:         it.Name,
			Improvements: it.Improvements,
			Active:       it.Name == active,
			CreatedAt:    it.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	item, err := s.ctl.SaveHistory(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, historyEntry{
		Name:         item.Name,
		Improvements: item.Improvements,
		Active:       true,
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.RemoveHistory(r.Context(), nameParam(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.RestoreHistory(nameParam(r)); err != nil {
		writeError(w, err)
		return
	}
	s.writeOutcome(w, "restore", nil)
}

func (s *Server) handleSetBaseline(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.SetBaseline(nameParam(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Summary())
}

func (s *Server) handleResetBaseline(w http.ResponseWriter, r *http.Request) {
	s.ctl.ResetBaseline()
	writeJSON(w, http.StatusOK, s.ctl.Summary())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	item, err := s.ctl.History().Restore(name)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.exporter == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "export not configured"})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName(name)}))
	if _, err := s.exporter.Write(w, item); err != nil {
		writeError(w, err)
	}
}
