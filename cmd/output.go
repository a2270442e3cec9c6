package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/mbonsma/cyclelinx/internal/model"
	"github.com/mbonsma/cyclelinx/internal/scores"
	"github.com/mbonsma/cyclelinx/internal/summary"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return eris.Errorf("unknown output format %q (want table, json or yaml)", f)
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(v)
	default:
		return validFormat(format)
	}
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	return tbl
}

type summaryRow struct {
	Metric      string  `json:"metric" yaml:"metric"`
	Label       string  `json:"label" yaml:"label"`
	Avg         float64 `json:"avg" yaml:"avg"`
	BaselineAvg float64 `json:"baseline_avg" yaml:"baseline_avg"`
	Delta       float64 `json:"delta" yaml:"delta"`
	Improved    bool    `json:"improved" yaml:"improved"`
}

// summaryRows orders stats by the metric catalog, then any metric the
// catalog does not name.
func summaryRows(stats summary.Stats, metrics []string) []summaryRow {
	seen := make(map[string]bool, len(stats))
	order := make([]string, 0, len(stats))
	for _, m := range metrics {
		if _, ok := stats[m]; ok && !seen[m] {
			order = append(order, m)
			seen[m] = true
		}
	}
	for _, m := range stats.Metrics() {
		if !seen[m] {
			order = append(order, m)
		}
	}

	rows := make([]summaryRow, 0, len(order))
	for _, m := range order {
		st := stats[m]
		rows = append(rows, summaryRow{
			Metric:      m,
			Label:       scores.MetricLabel(m),
			Avg:         st.Avg,
			BaselineAvg: st.BaselineAvg,
			Delta:       st.Delta(),
			Improved:    st.Improved(),
		})
	}
	return rows
}

// formatDelta renders an absolute and relative change, green when the plan
// improves on the baseline and red when it is worse.
func formatDelta(delta, baseline float64) string {
	sign := ""
	if delta > 0 {
		sign = "+"
	}
	s := sign + scores.FormatNumber(delta)
	if baseline != 0 {
		s += " (" + sign + scores.FormatPercent(delta/baseline) + ")"
	}
	switch {
	case delta > 0:
		return color.New(color.FgGreen).Sprint(s)
	case delta < 0:
		return color.New(color.FgRed).Sprint(s)
	default:
		return s
	}
}

func writeSummary(w io.Writer, stats summary.Stats, metrics []string, format string) error {
	rows := summaryRows(stats, metrics)
	if format != formatTable {
		return writeStructured(w, format, rows)
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Metric", "Average", "Baseline", "Change"})
	for _, r := range rows {
		tbl.AppendRow(table.Row{
			r.Label,
			scores.FormatNumber(r.Avg),
			scores.FormatNumber(r.BaselineAvg),
			formatDelta(r.Delta, r.BaselineAvg),
		})
	}
	tbl.Render()
	return nil
}

type historyRow struct {
	Name         string            `json:"name" yaml:"name"`
	Projects     int               `json:"projects" yaml:"projects"`
	Improvements []model.ProjectID `json:"improvements" yaml:"improvements"`
	Areas        int               `json:"areas" yaml:"areas"`
	CreatedAt    time.Time         `json:"created_at" yaml:"created_at"`
}

func writeHistory(w io.Writer, items []model.HistoryItem, format string) error {
	rows := make([]historyRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, historyRow{
			Name:         it.Name,
			Projects:     len(it.Improvements),
			Improvements: it.Improvements,
			Areas:        len(it.Scores),
			CreatedAt:    it.CreatedAt,
		})
	}
	if format != formatTable {
		return writeStructured(w, format, rows)
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Name", "Projects", "Areas", "Saved"})
	for _, r := range rows {
		tbl.AppendRow(table.Row{r.Name, r.Projects, r.Areas, r.CreatedAt.Local().Format("2006-01-02 15:04")})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d plans", len(rows))})
	tbl.Render()
	return nil
}

type budgetRow struct {
	ID   int     `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
	Km   float64 `json:"km" yaml:"km"`
}

func writeBudgets(w io.Writer, budgets []model.Budget, format string) error {
	rows := make([]budgetRow, 0, len(budgets))
	for _, b := range budgets {
		rows = append(rows, budgetRow{ID: b.ID, Name: b.Name, Km: b.Km()})
	}
	if format != formatTable {
		return writeStructured(w, format, rows)
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"ID", "Budget", "Km"})
	for _, r := range rows {
		tbl.AppendRow(table.Row{r.ID, r.Name, strconv.FormatFloat(r.Km, 'f', -1, 64)})
	}
	tbl.Render()
	return nil
}

type metricRow struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
}

func writeMetrics(w io.Writer, metrics []model.Metric, format string) error {
	rows := make([]metricRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, metricRow{ID: m.ID, Name: m.Name, Label: scores.MetricLabel(m.Name)})
	}
	if format != formatTable {
		return writeStructured(w, format, rows)
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"ID", "Metric", "Label"})
	for _, r := range rows {
		tbl.AppendRow(table.Row{r.ID, r.Name, r.Label})
	}
	tbl.Render()
	return nil
}

// parseProjectIDs accepts "1,2,3" with optional spaces.
func parseProjectIDs(s string) (model.ProjectSet, error) {
	ids := model.NewProjectSet()
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, eris.Errorf("invalid project id %q", part)
		}
		ids[model.ProjectID(n)] = struct{}{}
	}
	return ids, nil
}
