// Package edge holds the shared betting-edge math. The server analyzer, the
// analytics recompute and the risk endpoint all go through these functions so
// the same player/stat never shows different numbers in different views.
package edge

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Urgency tags are used only for sort ordering.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// UrgencyRank maps an urgency tag to its sort weight.
func UrgencyRank(urgency string) int {
	switch urgency {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance of values.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// Compute returns the percentage deviation between a modeled value (e.g. a
// recent average) and the posted line: |modeled-line| / line * 100.
func Compute(modeled, line float64) float64 {
	if line == 0 {
		return 0
	}
	return math.Abs(modeled-line) / line * 100
}

// PropConfidence maps an edge percentage to the 0-100 heuristic confidence
// score: min(90, 60 + 2*edge). Not a calibrated probability.
func PropConfidence(edgePct float64) float64 {
	return math.Min(90, 60+edgePct*2)
}

// PropUrgency buckets an edge percentage. The boundaries are strict: exactly
// 12 is medium, exactly 8 is low.
func PropUrgency(edgePct float64) string {
	switch {
	case edgePct > 12:
		return UrgencyHigh
	case edgePct > 8:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// LineSpread returns (min, max) over the given book lines.
func LineSpread(lines []float64) (float64, float64) {
	if len(lines) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(lines))
	copy(sorted, lines)
	sort.Float64s(sorted)
	return sorted[0], sorted[len(sorted)-1]
}

// SpreadEdge returns the cross-book spread as a percentage of the lowest
// line: (max-min)/min * 100.
func SpreadEdge(lines []float64) float64 {
	min, max := LineSpread(lines)
	if min == 0 {
		return 0
	}
	return (max - min) / min * 100
}

// IsArbitrage reports whether the cross-book line spread is wide enough to
// play both sides: max-min >= 1.0 line points.
func IsArbitrage(lines []float64) bool {
	min, max := LineSpread(lines)
	return max-min >= 1.0
}

// ParseAmericanOdds converts an American-format price string ("-110", "+150")
// to its integer value.
func ParseAmericanOdds(odds string) (int, error) {
	s := strings.TrimSpace(odds)
	s = strings.TrimPrefix(s, "+")
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid american odds %q: %w", odds, err)
	}
	return v, nil
}

// ImpliedProbability returns the break-even win probability implied by an
// American price, before removing the vig.
func ImpliedProbability(americanOdds int) float64 {
	if americanOdds == 0 {
		return 0
	}
	if americanOdds > 0 {
		return 100 / float64(americanOdds+100)
	}
	return float64(-americanOdds) / float64(-americanOdds+100)
}

// RemoveVig converts a two-way pair of implied probabilities to fair
// probabilities by stripping the bookmaker's overround.
func RemoveVig(over, under float64) (float64, float64) {
	total := over + under
	if total == 0 {
		return 0, 0
	}
	return over / total, under / total
}

// RiskCategory buckets a quoted American price by payout. Longer payouts
// mean the book considers the outcome less likely, so plus-money props are
// tagged higher risk.
func RiskCategory(odds string) string {
	v, err := ParseAmericanOdds(odds)
	if err != nil {
		return "unknown"
	}
	switch {
	case v >= 150:
		return "high"
	case v > 0:
		return "medium"
	case v >= -130:
		return "medium"
	default:
		return "low"
	}
}

// RecentMean averages the newest n values. Values must already be ordered
// newest first.
func RecentMean(values []float64, n int) float64 {
	if len(values) > n {
		values = values[:n]
	}
	return Mean(values)
}
