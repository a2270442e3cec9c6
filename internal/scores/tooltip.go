package scores

import "github.com/mbonsma/cyclelinx/internal/model"

// Change describes how a diff-scope value relates to the original score.
type Change string

const (
	// ChangeNone is used outside the diff scope.
	ChangeNone Change = ""
	// ChangeNA marks an area with no original score and no change.
	ChangeNA Change = "N/A"
	// ChangeInf marks an area that gained access from zero.
	ChangeInf Change = "Inf"
)

// TooltipRow is one metric line of an area tooltip.
type TooltipRow struct {
	Metric   string `json:"metric"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Change   string `json:"change,omitempty"`
	Improved bool   `json:"improved"`
}

// TooltipRows builds one row per metric for an area record viewed in scope.
// Metrics absent from the record are skipped.
func TooltipRows(rec model.AreaScore, scope model.Scope, metrics []string) []TooltipRow {
	values := rec.Scores.Scope(scope)
	rows := make([]TooltipRow, 0, len(metrics))
	for _, m := range metrics {
		v, ok := values[m]
		if !ok {
			continue
		}
		row := TooltipRow{Metric: m, Label: MetricLabel(m), Value: FormatNumber(v)}
		if scope == model.ScopeDiff {
			row.Change, row.Improved = percentChange(rec.Scores.Original[m], rec.Scores.Diff[m])
		}
		rows = append(rows, row)
	}
	return rows
}

func percentChange(original, diff float64) (string, bool) {
	switch {
	case original == 0 && diff == 0:
		return string(ChangeNA), false
	case original == 0:
		return string(ChangeInf), true
	default:
		return FormatPercent(diff / original), true
	}
}
