package engine

import (
	"math"
	"sort"

	"github.com/go-gota/gota/series"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/stat"

	"zomato-dashboard/internal/models"
)

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// round2 rounds to 2 decimals, halves to even.
func round2(f float64) float64 {
	return math.RoundToEven(f*100) / 100
}

// present drops NaN values.
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// meanOf averages the non-NaN values, "no data" if there are none.
func meanOf(xs []float64) models.Stat {
	vals := present(xs)
	if len(vals) == 0 {
		return models.None()
	}
	return models.Some(stat.Mean(vals, nil))
}

func fiveNumber(mode string, xs []float64) (models.BoxStats, bool) {
	vals := present(xs)
	if len(vals) == 0 {
		return models.BoxStats{}, false
	}
	s := series.New(vals, series.Float, mode)
	return models.BoxStats{
		Mode:   mode,
		Count:  len(vals),
		Min:    s.Min(),
		Q1:     s.Quantile(0.25),
		Median: s.Median(),
		Q3:     s.Quantile(0.75),
		Max:    s.Max(),
	}, true
}

func describe(column string, xs []float64) models.ColumnSummary {
	vals := present(xs)
	out := models.ColumnSummary{Column: column, Count: len(vals)}
	if len(vals) == 0 {
		return out
	}
	s := series.New(vals, series.Float, column)
	out.Mean = finite(s.Mean())
	out.Std = finite(s.StdDev())
	out.Min = finite(s.Min())
	out.Q1 = finite(s.Quantile(0.25))
	out.Median = finite(s.Median())
	out.Q3 = finite(s.Quantile(0.75))
	out.Max = finite(s.Max())
	return out
}

func finite(v float64) models.Stat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.None()
	}
	return models.Some(v)
}

// pearson correlates x and y over the positions where both are present.
func pearson(x, y []float64) models.Stat {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return models.None()
	}
	return finite(stat.Correlation(xs, ys, nil))
}

// histogram splits the non-NaN values into equal-width bins over their
// observed range. The last bin is closed on both ends.
func histogram(xs []float64, bins int) []models.HistogramBin {
	vals := present(xs)
	if len(vals) == 0 || bins <= 0 {
		return []models.HistogramBin{}
	}
	sort.Float64s(vals)
	lo, hi := vals[0], vals[len(vals)-1]
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(bins)

	dividers := make([]float64, bins+1)
	for i := range dividers {
		dividers[i] = lo + float64(i)*width
	}
	// stat.Histogram bins are half-open; nudge the top divider so hi counts.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, vals, nil)

	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i] = models.HistogramBin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	out[bins-1].Upper = hi
	return out
}
