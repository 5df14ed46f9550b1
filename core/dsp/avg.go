package dsp

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// CenteredBoxcar returns the mean of the windowSize values centered at each index in [from, to].
// The window must be odd and must not reach beyond the given values.
func CenteredBoxcar(values []float64, windowSize, from, to int) []float64 {
	if windowSize%2 == 0 {
		panic("window size must be odd")
	}
	if len(values) < windowSize {
		panic(fmt.Errorf("%d values are not enough for a window of %d", len(values), windowSize))
	}
	halfWindow := windowSize / 2
	if from-halfWindow < 0 || to+halfWindow >= len(values) || from > to {
		panic(fmt.Errorf("range [%d,%d] with window %d exceeds %d values", from, to, windowSize, len(values)))
	}

	result := make([]float64, to-from+1)
	for i := range result {
		center := from + i
		result[i] = floats.Sum(values[center-halfWindow:center+halfWindow+1]) / float64(windowSize)
	}
	return result
}

// OrderStatistic returns the k-th smallest value (0-based) without modifying the given values.
func OrderStatistic(values []float64, k int) float64 {
	if k < 0 || k >= len(values) {
		panic(fmt.Errorf("rank %d out of range of %d values", k, len(values)))
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[k]
}
