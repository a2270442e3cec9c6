package scores

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
)

// ScaleType selects how a score maps to fill opacity.
type ScaleType string

const (
	// ScaleLinear maps the extent linearly onto opacity.
	ScaleLinear ScaleType = "linear"
	// ScaleLog maps the extent through a symmetric log transform.
	ScaleLog ScaleType = "log"
	// ScaleQuantile buckets values into quartiles.
	ScaleQuantile ScaleType = "quantile"
	// ScaleBin maps 0/1 indicators.
	ScaleBin ScaleType = "bin"
)

// ParseScaleType validates a scale name.
func ParseScaleType(s string) (ScaleType, error) {
	switch t := ScaleType(s); t {
	case ScaleLinear, ScaleLog, ScaleQuantile, ScaleBin:
		return t, nil
	default:
		return "", eris.Errorf("scores: unknown scale type %q", s)
	}
}

var (
	opacityRange  = [2]float64{0, 0.75}
	binRange      = [2]float64{0, 0.8}
	quantileSteps = []float64{0.2, 0.4, 0.6, 0.8}
)

// Scale maps a score to a fill opacity.
type Scale interface {
	// Opacity returns the fill opacity for v.
	Opacity(v float64) float64
	// Domain returns the input bounds.
	Domain() (lo, hi float64)
	// Range returns the output opacities the scale can produce, lowest first.
	Range() []float64
}

// NewScale builds a scale of type t over sorted values. ok is false when
// values is empty: there is nothing to scale.
func NewScale(t ScaleType, values []float64) (Scale, bool) {
	if len(values) == 0 {
		return nil, false
	}
	lo, hi := values[0], values[len(values)-1]
	switch t {
	case ScaleBin:
		return linearScale{d0: 0, d1: 1, r0: binRange[0], r1: binRange[1]}, true
	case ScaleLog:
		return symlogScale{d0: lo, d1: hi}, true
	case ScaleQuantile:
		return newQuantileScale(values), true
	default:
		return linearScale{d0: lo, d1: hi, r0: opacityRange[0], r1: opacityRange[1]}, true
	}
}

type linearScale struct {
	d0, d1 float64
	r0, r1 float64
}

func (s linearScale) Opacity(v float64) float64 {
	return interpolate(s.r0, s.r1, normalize(s.d0, s.d1, v))
}

func (s linearScale) Domain() (float64, float64) { return s.d0, s.d1 }

func (s linearScale) Range() []float64 { return []float64{s.r0, s.r1} }

// symlogScale uses the symmetric log transform sign(x)·log1p(|x|), which is
// defined at zero and for negative differences.
type symlogScale struct {
	d0, d1 float64
}

func symlog(x float64) float64 {
	return math.Copysign(math.Log1p(math.Abs(x)), x)
}

func (s symlogScale) Opacity(v float64) float64 {
	t := normalize(symlog(s.d0), symlog(s.d1), symlog(v))
	return interpolate(opacityRange[0], opacityRange[1], t)
}

func (s symlogScale) Domain() (float64, float64) { return s.d0, s.d1 }

func (s symlogScale) Range() []float64 { return []float64{opacityRange[0], opacityRange[1]} }

type quantileScale struct {
	lo, hi     float64
	thresholds []float64
}

func newQuantileScale(sorted []float64) quantileScale {
	qs := quantileScale{lo: sorted[0], hi: sorted[len(sorted)-1]}
	n := len(quantileSteps)
	for i := 1; i < n; i++ {
		qs.thresholds = append(qs.thresholds, stat.Quantile(float64(i)/float64(n), stat.Empirical, sorted, nil))
	}
	return qs
}

func (s quantileScale) Opacity(v float64) float64 {
	i := sort.Search(len(s.thresholds), func(i int) bool { return s.thresholds[i] > v })
	return quantileSteps[i]
}

func (s quantileScale) Domain() (float64, float64) { return s.lo, s.hi }

func (s quantileScale) Range() []float64 {
	out := make([]float64, len(quantileSteps))
	copy(out, quantileSteps)
	return out
}

// Thresholder is implemented by scales that bucket values at fixed cut
// points.
type Thresholder interface {
	Thresholds() []float64
}

// Thresholds returns the quartile cut points.
func (s quantileScale) Thresholds() []float64 {
	out := make([]float64, len(s.thresholds))
	copy(out, s.thresholds)
	return out
}

// normalize maps v into [0,1] relative to [a,b]; a degenerate domain maps
// everything to the midpoint.
func normalize(a, b, v float64) float64 {
	if b == a {
		return 0.5
	}
	return (v - a) / (b - a)
}

func interpolate(a, b, t float64) float64 {
	return a + (b-a)*t
}
