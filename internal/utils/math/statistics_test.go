package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPopulationStdDev(t *testing.T) {
	mean, std := PopulationStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.0, std, 1e-12)

	mean, std = PopulationStdDev(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestQuantileLinear(t *testing.T) {
	values := []float64{4, 1, 3, 2, 5}

	assert.Equal(t, 1.0, Quantile(values, 0))
	assert.Equal(t, 5.0, Quantile(values, 1))
	assert.Equal(t, 3.0, Quantile(values, 0.5))
	assert.InDelta(t, 4.8, Quantile(values, 0.95), 1e-12)
	assert.Equal(t, 0.0, Quantile(nil, 0.5))

	// input is not reordered
	assert.Equal(t, []float64{4, 1, 3, 2, 5}, values)
}

func TestDifferenceAndIntegrate(t *testing.T) {
	history := []float64{1, 4, 9, 16, 25}

	first := Difference(history, 1)
	assert.Equal(t, []float64{3, 5, 7, 9}, first)

	second := Difference(history, 2)
	assert.Equal(t, []float64{2, 2, 2}, second)

	// continuing the second difference of squares reproduces the next squares
	assert.Equal(t, []float64{36, 49}, Integrate([]float64{2, 2}, history, 2))
	assert.Equal(t, []float64{36, 49}, Integrate([]float64{11, 13}, history, 1))
	assert.Equal(t, []float64{11, 13}, Integrate([]float64{11, 13}, history, 0))
}

func TestAllFinite(t *testing.T) {
	assert.True(t, AllFinite([]float64{1, 2, 3}))
	assert.False(t, AllFinite([]float64{1, math.NaN()}))
	assert.False(t, AllFinite([]float64{math.Inf(-1)}))
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, AveragePathLength(1))
	assert.Equal(t, 1.0, AveragePathLength(2))
	assert.InDelta(t, 10.2448, AveragePathLength(256), 1e-3)
}
