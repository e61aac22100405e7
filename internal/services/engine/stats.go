package engine

import (
	"math"
	"sort"
	"time"

	"TradeMirror/internal/domain/models"
)

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PopStdDev returns the population standard deviation (divide by N, not N-1).
func PopStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	v := sum2 / float64(len(xs))
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// Median returns the median of xs without mutating it.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, xs)
	sort.Float64s(cp)
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampScore rounds v to an integer score in [0,100].
func clampScore(v float64) int {
	s := int(math.Round(v))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// dayKey buckets a timestamp by its UTC calendar date.
func dayKey(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

// sortedByTS returns a copy of trades ordered by ts ascending. The engine
// never mutates the caller's slice, so every time-dependent computation sorts
// its own copy defensively.
func sortedByTS(trades []models.Trade) []models.Trade {
	cp := make([]models.Trade, len(trades))
	copy(cp, trades)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].TS.Before(cp[j].TS) })
	return cp
}

// dayCounts buckets trades with a parseable timestamp by UTC day and returns
// the per-day counts keyed by date. Trades without a timestamp are excluded
// from bucketing only.
func dayCounts(trades []models.Trade) map[string]int {
	counts := make(map[string]int)
	for i := range trades {
		if !trades[i].HasTS() {
			continue
		}
		counts[dayKey(trades[i].TS)]++
	}
	return counts
}

func countsSlice(m map[string]int) []float64 {
	out := make([]float64, 0, len(m))
	for _, c := range m {
		out = append(out, float64(c))
	}
	return out
}
