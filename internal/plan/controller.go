// Package plan orchestrates plan editing: segment clicks, calculations,
// budget selection, history and the choropleth view. It owns the confirmed
// project set, the pending changes and the score store.
package plan

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mbonsma/cyclelinx/internal/history"
	"github.com/mbonsma/cyclelinx/internal/membership"
	"github.com/mbonsma/cyclelinx/internal/model"
	"github.com/mbonsma/cyclelinx/internal/pending"
	"github.com/mbonsma/cyclelinx/internal/scores"
	"github.com/mbonsma/cyclelinx/internal/summary"
	"github.com/mbonsma/cyclelinx/pkg/scoring"
)

// Service computes and looks up accessibility scores.
type Service interface {
	ProjectsForBudget(ctx context.Context, budgetID int) (model.ProjectSet, error)
	ScoresForBudget(ctx context.Context, budgetID int) (model.ScoreResults, error)
	ScoresForProjects(ctx context.Context, ids model.ProjectSet) (model.ScoreResults, error)
}

// Config holds the controller's collaborators and static reference data.
type Config struct {
	Service  Service
	Segments []model.Segment
	Defaults model.DefaultScores
	Metrics  []model.Metric
	// History defaults to a session-only store.
	History *history.Store
}

// Controller is safe for concurrent use. Scoring calls run without the lock
// held; only the most recent request may commit its result.
type Controller struct {
	svc      Service
	index    *membership.Index
	defaults model.DefaultScores
	metrics  []string
	palette  *scores.Palette
	history  *history.Store

	mu             sync.Mutex
	confirmed      model.ProjectSet
	pending        pending.ChangeSet
	scores         *scores.Store
	selectedBudget *int
	view           View
	stats          summary.Stats
	scale          scores.Scale

	seq      uint64
	cancel   context.CancelFunc
	inflight bool

	observers map[int]func(Snapshot)
	nextObs   int
}

// New builds a controller with an empty plan.
func New(cfg Config) *Controller {
	hist := cfg.History
	if hist == nil {
		hist = history.New(nil)
	}
	names := model.MetricNames(cfg.Metrics)
	c := &Controller{
		svc:       cfg.Service,
		index:     membership.NewIndex(cfg.Segments),
		defaults:  cfg.Defaults,
		metrics:   names,
		palette:   scores.NewPalette(names),
		history:   hist,
		confirmed: model.NewProjectSet(),
		scores:    scores.NewStore(),
		view:      defaultView(),
		observers: make(map[int]func(Snapshot)),
	}
	c.refreshLocked()
	return c
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// commitLocked recomputes derived state and returns the snapshot and
// observers to notify once the lock is released.
func (c *Controller) commitLocked() (Snapshot, []func(Snapshot)) {
	c.refreshLocked()
	obs := make([]func(Snapshot), 0, len(c.observers))
	for _, id := range slices.Sorted(maps.Keys(c.observers)) {
		obs = append(obs, c.observers[id])
	}
	return c.snapshotLocked(), obs
}

func notify(snap Snapshot, obs []func(Snapshot)) {
	for _, fn := range obs {
		fn(snap)
	}
}

// unlockAndNotify releases the lock and then delivers the snapshot.
func (c *Controller) unlockAndNotify() {
	snap, obs := c.commitLocked()
	c.mu.Unlock()
	notify(snap, obs)
}

// refreshLocked rebuilds the summary and the opacity scale.
func (c *Controller) refreshLocked() {
	c.stats = summary.Recompute(c.defaults, c.scores.Snapshot(), c.history.Baseline())
	c.scale = nil
	if c.view.Metric == "" {
		return
	}
	if s, ok := scores.NewScale(c.view.Scale, c.scores.Values(c.view.Metric, c.view.Scope)); ok {
		c.scale = s
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	var budget *int
	if c.selectedBudget != nil {
		b := *c.selectedBudget
		budget = &b
	}
	return Snapshot{
		Seq:            c.seq,
		Busy:           c.inflight,
		Confirmed:      c.confirmed.Sorted(),
		ToAdd:          c.pending.ToAdd().Sorted(),
		ToRemove:       c.pending.ToRemove().Sorted(),
		SelectedBudget: budget,
		ActiveHistory:  c.history.Active(),
		History:        c.history.Names(),
		BaselineSet:    c.history.Baseline() != nil,
		ScoredAreas:    c.scores.Len(),
		Summary:        maps.Clone(c.stats),
		View:           c.view,
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Busy reports whether a scoring request is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

// beginLocked starts a new request generation, cancelling any outstanding
// request.
func (c *Controller) beginLocked(ctx context.Context) (context.Context, uint64) {
	c.invalidateLocked()
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.inflight = true
	return reqCtx, c.seq
}

// invalidateLocked makes any outstanding request stale.
func (c *Controller) invalidateLocked() {
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inflight = false
}

// finishLocked reports whether seq is still current and, if so, ends the
// request.
func (c *Controller) finishLocked(seq uint64, op string) bool {
	if seq != c.seq {
		zap.L().Debug("plan: discarding stale response",
			zap.String("op", op),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", c.seq),
		)
		return false
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inflight = false
	return true
}

func serviceError(op string, err error) error {
	if errors.Is(err, scoring.ErrServiceUnavailable) {
		return err
	}
	return &scoring.ServiceError{Op: op, Err: err}
}

// Calculate scores (confirmed \ toRemove) ∪ toAdd. An empty plan resets the
// controller without calling the service. On failure nothing changes.
func (c *Controller) Calculate(ctx context.Context) error {
	c.mu.Lock()
	final := c.pending.Apply(c.confirmed)
	if final.Len() == 0 {
		c.resetLocked()
		c.unlockAndNotify()
		zap.L().Info("plan: empty plan, reset")
		return nil
	}
	reqCtx, seq := c.beginLocked(ctx)
	c.unlockAndNotify()

	res, err := c.svc.ScoresForProjects(reqCtx, final)

	c.mu.Lock()
	if !c.finishLocked(seq, "calculate") {
		c.mu.Unlock()
		return ErrStaleResponse
	}
	if err != nil {
		c.unlockAndNotify()
		return eris.Wrap(serviceError("calculate", err), "plan: calculate")
	}
	c.confirmed = final
	c.pending = c.pending.Reset()
	c.scores.Replace(res)
	c.selectedBudget = nil
	c.history.ClearActive()
	c.ensureMetricLocked()
	c.unlockAndNotify()

	zap.L().Info("plan: calculated",
		zap.Int("projects", final.Len()),
		zap.Int("areas", len(res)),
	)
	return nil
}

// SelectBudget loads a precomputed budget. Projects and scores are fetched
// concurrently and committed only if both succeed.
func (c *Controller) SelectBudget(ctx context.Context, budgetID int) error {
	c.mu.Lock()
	reqCtx, seq := c.beginLocked(ctx)
	c.unlockAndNotify()

	var (
		ids model.ProjectSet
		res model.ScoreResults
	)
	g, gctx := errgroup.WithContext(reqCtx)
	g.Go(func() error {
		var err error
		ids, err = c.svc.ProjectsForBudget(gctx, budgetID)
		return err
	})
	g.Go(func() error {
		var err error
		res, err = c.svc.ScoresForBudget(gctx, budgetID)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	if !c.finishLocked(seq, "select budget") {
		c.mu.Unlock()
		return ErrStaleResponse
	}
	if err != nil {
		c.unlockAndNotify()
		return eris.Wrapf(serviceError("select budget", err), "plan: select budget %d", budgetID)
	}
	c.confirmed = ids.Clone()
	c.pending = c.pending.Reset()
	c.scores.Replace(res)
	c.selectedBudget = &budgetID
	c.history.ClearActive()
	c.ensureMetricLocked()
	c.unlockAndNotify()

	zap.L().Info("plan: budget selected",
		zap.Int("budget_id", budgetID),
		zap.Int("projects", ids.Len()),
	)
	return nil
}

// RestoreHistory makes a saved plan the plan in effect.
func (c *Controller) RestoreHistory(name string) error {
	item, err := c.history.Restore(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.invalidateLocked()
	c.confirmed = model.NewProjectSet(item.Improvements...)
	c.pending = c.pending.Reset()
	c.scores.Replace(item.Scores)
	c.selectedBudget = nil
	if err := c.history.SetActive(name); err != nil {
		// Removed between Restore and now; the plan is still restored.
		zap.L().Warn("plan: restored item vanished", zap.String("name", name), zap.Error(err))
	}
	c.ensureMetricLocked()
	c.unlockAndNotify()
	return nil
}

// Reset returns to the initial "no plan selected" state. Saved history and
// any baseline are kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.unlockAndNotify()
}

func (c *Controller) resetLocked() {
	c.invalidateLocked()
	c.confirmed = model.NewProjectSet()
	c.pending = c.pending.Reset()
	c.scores.Replace(nil)
	c.selectedBudget = nil
	c.history.ClearActive()
	c.view.Metric = ""
}

// OnSegmentClicked toggles the segment's projects in the pending changes and
// returns the segment's new classification. Clicks are accepted while a
// request is outstanding.
func (c *Controller) OnSegmentClicked(id model.SegmentID) (Classification, error) {
	ids, ok := c.index.Lookup(id)
	if !ok {
		return Classification{}, eris.Wrapf(ErrUnknownSegment, "plan: click %d", id)
	}

	c.mu.Lock()
	c.pending = c.pending.Toggle(ids, c.confirmed)
	cl := classification(c.pending.Classify(ids, c.confirmed))
	c.unlockAndNotify()
	return cl, nil
}

// ToggleProjects applies the click rule to an explicit project set, as if
// a segment carrying exactly ids had been clicked.
func (c *Controller) ToggleProjects(ids model.ProjectSet) {
	if ids.Len() == 0 {
		return
	}
	c.mu.Lock()
	c.pending = c.pending.Toggle(ids, c.confirmed)
	c.unlockAndNotify()
}

func classification(s pending.Status) Classification {
	return Classification{Status: s.String(), ColorKey: s.ColorKey()}
}

// Classify returns the edit status of a segment.
func (c *Controller) Classify(id model.SegmentID) (Classification, error) {
	ids, ok := c.index.Lookup(id)
	if !ok {
		return Classification{}, eris.Wrapf(ErrUnknownSegment, "plan: classify %d", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return classification(c.pending.Classify(ids, c.confirmed)), nil
}

// Classifications returns the status of every segment that is not inert.
func (c *Controller) Classifications() map[model.SegmentID]Classification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[model.SegmentID]Classification)
	for _, id := range c.index.Segments() {
		ids, _ := c.index.Lookup(id)
		if st := c.pending.Classify(ids, c.confirmed); st != pending.StatusInert {
			out[id] = classification(st)
		}
	}
	return out
}

// ProjectIDsFor returns the improvements of a saved plan.
func (c *Controller) ProjectIDsFor(name string) (model.ProjectSet, error) {
	item, err := c.history.Restore(name)
	if err != nil {
		return nil, err
	}
	return model.NewProjectSet(item.Improvements...), nil
}

// History returns the history store backing the controller.
func (c *Controller) History() *history.Store {
	return c.history
}

// SaveHistory saves the plan in effect under name and marks it active.
func (c *Controller) SaveHistory(ctx context.Context, name string) (model.HistoryItem, error) {
	c.mu.Lock()
	if c.scores.Len() == 0 {
		c.mu.Unlock()
		return model.HistoryItem{}, ErrNothingToSave
	}
	item, err := c.history.Save(ctx, name, c.confirmed, c.scores.Snapshot())
	if err != nil {
		c.mu.Unlock()
		return model.HistoryItem{}, err
	}
	if err := c.history.SetActive(name); err != nil {
		c.mu.Unlock()
		return model.HistoryItem{}, err
	}
	c.unlockAndNotify()
	return item, nil
}

// RemoveHistory deletes a saved plan.
func (c *Controller) RemoveHistory(ctx context.Context, name string) error {
	c.mu.Lock()
	if err := c.history.Remove(ctx, name); err != nil {
		c.mu.Unlock()
		return err
	}
	c.unlockAndNotify()
	return nil
}

// SetBaseline compares the summary against a saved plan's scores.
func (c *Controller) SetBaseline(name string) error {
	item, err := c.history.Restore(name)
	if err != nil {
		return err
	}
	c.SetBaselineScores(item.Scores)
	return nil
}

// SetBaselineScores compares the summary against arbitrary scores.
func (c *Controller) SetBaselineScores(s model.ScoreResults) {
	c.mu.Lock()
	if s == nil {
		s = model.ScoreResults{}
	}
	c.history.SetBaseline(s)
	c.unlockAndNotify()
}

// ResetBaseline compares the summary against the default scores again.
func (c *Controller) ResetBaseline() {
	c.mu.Lock()
	c.history.ResetBaseline()
	c.unlockAndNotify()
}

// Summary returns the per-metric averages of the plan in effect.
func (c *Controller) Summary() summary.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.stats)
}
