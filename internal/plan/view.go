package plan

import (
	"github.com/mbonsma/cyclelinx/internal/model"
	"github.com/mbonsma/cyclelinx/internal/scores"
)

// binaryMetric is shown as presence/absence rather than a gradient.
const binaryMetric = "greenspace"

// View is how the score layer is drawn.
type View struct {
	Metric string           `json:"metric"`
	Scope  model.Scope      `json:"scope"`
	Scale  scores.ScaleType `json:"scale"`
}

func defaultView() View {
	return View{Scope: model.ScopeBudget, Scale: scores.ScaleLinear}
}

// withMetric switches metric. Binary metrics force the bin scale and scope;
// leaving one restores the defaults.
func (v View) withMetric(metric string) View {
	switch {
	case metric == binaryMetric:
		v.Scale, v.Scope = scores.ScaleBin, model.ScopeBin
	case v.Scale == scores.ScaleBin:
		v.Scale, v.Scope = scores.ScaleLinear, model.ScopeBudget
	}
	v.Metric = metric
	return v
}

// Style is the fill for one area.
type Style struct {
	FillOpacity float64 `json:"fillOpacity"`
	FillColor   string  `json:"fillColor"`
}

// Legend describes the current colour ramp.
type Legend struct {
	Metric string           `json:"metric"`
	Label  string           `json:"label"`
	Scope  model.Scope      `json:"scope"`
	Scale  scores.ScaleType `json:"scale"`
	Color  string           `json:"color"`
	Min    float64          `json:"min"`
	Max    float64          `json:"max"`
	Range  []float64        `json:"range"`
	// Thresholds holds the quartile cut points of a quantile scale.
	Thresholds []float64 `json:"thresholds,omitempty"`
}

// Classification is the edit status of a segment and its renderer colour.
type Classification struct {
	Status   string `json:"status"`
	ColorKey string `json:"colorKey"`
}
