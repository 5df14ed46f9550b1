package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCenteredBoxcar(t *testing.T) {
	tt := []struct {
		name       string
		values     []float64
		windowSize int
		from, to   int
		expected   []float64
	}{
		{"flat", []float64{1, 1, 1, 1, 1}, 3, 1, 3, []float64{1, 1, 1}},
		{"single spike", []float64{0, 0, 0, 9, 0, 0, 0}, 3, 1, 5, []float64{0, 3, 3, 3, 0}},
		{"ramp", []float64{0, 1, 2, 3, 4, 5, 6}, 7, 3, 3, []float64{3}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			actual := CenteredBoxcar(tc.values, tc.windowSize, tc.from, tc.to)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestCenteredBoxcarContract(t *testing.T) {
	assert.Panics(t, func() { CenteredBoxcar(make([]float64, 10), 4, 2, 5) }, "even window")
	assert.Panics(t, func() { CenteredBoxcar(make([]float64, 6), 7, 3, 3) }, "not enough values")
	assert.Panics(t, func() { CenteredBoxcar(make([]float64, 10), 7, 2, 5) }, "window beyond the values")
}

func TestOrderStatistic(t *testing.T) {
	values := []float64{5, 3, 9, 1, 7}

	assert.Equal(t, 1.0, OrderStatistic(values, 0))
	assert.Equal(t, 5.0, OrderStatistic(values, 2))
	assert.Equal(t, 9.0, OrderStatistic(values, 4))
	assert.Equal(t, []float64{5, 3, 9, 1, 7}, values, "input must not be modified")
	assert.Panics(t, func() { OrderStatistic(values, 5) })
}
