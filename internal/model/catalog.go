package model

import (
	"cmp"
	"slices"
	"strconv"
)

// Budget is a named, precomputed bundle of projects. The name is a number
// of quarter-kilometres, as published by the scoring API.
type Budget struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Km returns the budget length in kilometres, or 0 when the name is not
// numeric.
func (b Budget) Km() float64 {
	v, err := strconv.ParseFloat(b.Name, 64)
	if err != nil {
		return 0
	}
	return v / 4
}

// SortBudgets orders budgets by their numeric name, smallest first.
func SortBudgets(budgets []Budget) {
	slices.SortStableFunc(budgets, func(a, b Budget) int {
		return cmp.Compare(a.Km(), b.Km())
	})
}

// Metric is a named accessibility measure.
type Metric struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MetricNames returns the metric names in catalog order.
func MetricNames(metrics []Metric) []string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = m.Name
	}
	return names
}

// BudgetProjectMember links a segment to a project within a budget.
type BudgetProjectMember struct {
	ArterialID int       `json:"arterial_id"`
	BudgetID   int       `json:"budget_id"`
	ProjectID  ProjectID `json:"project_id"`
}
