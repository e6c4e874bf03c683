package scoring

import "slices"

// Median returns the middle value of values, or the mean of the two middle
// values for an even count. The median of no values is 0.
func Median(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	half := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[half])
	}
	return (float64(sorted[half-1]) + float64(sorted[half])) / 2.0
}
