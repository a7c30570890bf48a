package dataprocessing

import (
	"math"

	"probecli/pkg/contracts/domain"
)

// Summarize computes summary statistics for a numeric series. The standard
// deviation is the population form. Spec-limit percentages are filled only
// when both limits are present. An empty series returns nil, false.
func Summarize(values []float64, limits domain.SpecLimits) (*domain.SummaryStatistics, bool) {
	n := len(values)
	if n == 0 {
		return nil, false
	}

	minValue, maxValue, sum := values[0], values[0], 0.0
	for _, v := range values {
		sum += v
		minValue = math.Min(minValue, v)
		maxValue = math.Max(maxValue, v)
	}
	mean := sum / float64(n)

	var squares float64
	for _, v := range values {
		d := v - mean
		squares += d * d
	}

	stats := &domain.SummaryStatistics{
		Count:             n,
		Average:           mean,
		Min:               minValue,
		Max:               maxValue,
		Range:             maxValue - minValue,
		StandardDeviation: math.Sqrt(squares / float64(n)),
		UpperLimit:        limits.Upper,
		LowerLimit:        limits.Lower,
	}

	if limits.HasBoth() {
		upper, lower := *limits.Upper, *limits.Lower
		var within, above, below int
		for _, v := range values {
			switch {
			case v > upper:
				above++
			case v < lower:
				below++
			default:
				within++
			}
		}
		stats.WithinSpecPercent = percentOf(within, n)
		stats.AboveUpperPercent = percentOf(above, n)
		stats.BelowLowerPercent = percentOf(below, n)
	}

	return stats, true
}

func percentOf(count, total int) *float64 {
	p := float64(count) / float64(total) * 100
	return &p
}
