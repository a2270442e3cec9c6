package plan

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/mbonsma/cyclelinx/internal/model"
	"github.com/mbonsma/cyclelinx/internal/scores"
)

// Metrics returns the metric catalog in display order.
func (c *Controller) Metrics() []string {
	return slices.Clone(c.metrics)
}

// SetMetric selects the metric to draw.
func (c *Controller) SetMetric(metric string) error {
	if !c.knownMetric(metric) {
		return eris.Wrapf(ErrUnknownMetric, "plan: metric %q", metric)
	}
	c.mu.Lock()
	c.view = c.view.withMetric(metric)
	c.unlockAndNotify()
	return nil
}

func (c *Controller) knownMetric(metric string) bool {
	if len(c.metrics) > 0 {
		return slices.Contains(c.metrics, metric)
	}
	return metric != ""
}

// SetScope selects which score variant is drawn.
func (c *Controller) SetScope(scope model.Scope) {
	c.mu.Lock()
	c.view.Scope = scope
	c.unlockAndNotify()
}

// SetScaleType selects how scores map to opacity.
func (c *Controller) SetScaleType(t scores.ScaleType) {
	c.mu.Lock()
	c.view.Scale = t
	c.unlockAndNotify()
}

// ensureMetricLocked selects the first metric once scores exist.
func (c *Controller) ensureMetricLocked() {
	if c.view.Metric != "" || c.scores.Len() == 0 {
		return
	}
	candidates := c.metrics
	if len(candidates) == 0 {
		candidates = c.scores.Metrics()
	}
	if len(candidates) > 0 {
		c.view = c.view.withMetric(candidates[0])
	}
}

// StyleFor returns the fill of an area. ok is false when there is nothing
// to draw: no metric selected or no score for the area this round.
func (c *Controller) StyleFor(id model.AreaID) (Style, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scale == nil {
		return Style{}, false
	}
	rec, ok := c.scores.Get(id)
	if !ok {
		return Style{}, false
	}
	v, ok := rec.Scores.Scope(c.view.Scope)[c.view.Metric]
	if !ok {
		return Style{}, false
	}
	return Style{
		FillOpacity: c.scale.Opacity(v),
		FillColor:   c.palette.Color(c.view.Metric),
	}, true
}

// Legend describes the colour ramp. ok is false when there is no legend to
// draw.
func (c *Controller) Legend() (Legend, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scale == nil {
		return Legend{}, false
	}
	lo, hi, ok := c.scores.Extent(c.view.Metric, c.view.Scope)
	if !ok {
		return Legend{}, false
	}
	legend := Legend{
		Metric: c.view.Metric,
		Label:  scores.MetricLabel(c.view.Metric),
		Scope:  c.view.Scope,
		Scale:  c.view.Scale,
		Color:  c.palette.Color(c.view.Metric),
		Min:    lo,
		Max:    hi,
		Range:  c.scale.Range(),
	}
	if q, ok := c.scale.(scores.Thresholder); ok {
		legend.Thresholds = q.Thresholds()
	}
	return legend, true
}

// Tooltip returns the per-metric rows for an area, or ok=false when the
// area has no score.
func (c *Controller) Tooltip(id model.AreaID) ([]scores.TooltipRow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.scores.Get(id)
	if !ok {
		return nil, false
	}
	metrics := c.metrics
	if len(metrics) == 0 {
		metrics = c.scores.Metrics()
	}
	return scores.TooltipRows(rec, c.view.Scope, metrics), true
}
