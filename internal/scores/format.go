package scores

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// RoundValue rounds small magnitudes (|v| < 10) to three significant digits
// and larger ones to two decimal places.
func RoundValue(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	var s string
	if math.Abs(v) < 10 {
		s = strconv.FormatFloat(v, 'g', 3, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', 2, 64)
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return v
	}
	return r
}

// FormatNumber renders a score for display. Values above 1000 are shown as
// grouped integers; smaller values keep their rounded decimals with trailing
// zeros stripped.
func FormatNumber(v float64) string {
	r := RoundValue(v)
	if r > 1000 {
		return printer.Sprintf("%d", int64(math.Round(r)))
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// FormatPercent renders a ratio as a grouped percentage with one decimal.
func FormatPercent(ratio float64) string {
	return printer.Sprintf("%.1f", ratio*100) + "%"
}

// MetricLabel turns a metric key such as "food_retail" into "Food Retail".
// A Caser keeps per-call state, so each call builds its own.
func MetricLabel(metric string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(metric, "_", " "))
}
