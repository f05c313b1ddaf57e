package analytics

import (
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

func noisyWithSpike(n, spikeAt int, spike float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 70 + 0.3*math.Sin(float64(i))
	}
	values[spikeAt] = spike
	return values
}

func TestDetectInsufficientData(t *testing.T) {
	detector := NewAnomalyDetector(DefaultConfig(), nil, logrus.New())

	_, err := detector.Detect(context.Background(), seriesOf(models.MetricBodyFat, 20, 21, 22))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInsufficientData))
}

func TestDetectConstantSeries(t *testing.T) {
	detector := NewAnomalyDetector(DefaultConfig(), nil, logrus.New())

	result, err := detector.Detect(context.Background(), seriesOf(models.MetricWeight, linearWeights(20, 72.5, 0)...))
	require.NoError(t, err)
	assert.Equal(t, 0, result.AnomalyCount)
	assert.Empty(t, result.Anomalies)
	assert.Equal(t, 20, result.TotalRecords)
	assert.Equal(t, 72.5, result.MetricMean)
	assert.Equal(t, 0.0, result.MetricStd)
}

func TestDetectFlagsSpike(t *testing.T) {
	detector := NewAnomalyDetector(DefaultConfig(), nil, logrus.New())
	values := noisyWithSpike(30, 17, 95)

	result, err := detector.Detect(context.Background(), seriesOf(models.MetricWeight, values...))
	require.NoError(t, err)
	require.Equal(t, 1, result.AnomalyCount)

	flagged := result.Anomalies[0]
	assert.Equal(t, 95.0, flagged.Value)
	assert.Greater(t, flagged.Deviation, 3.0)
	assert.InDelta(t, math.Abs(95-result.MetricMean)/result.MetricStd, flagged.Deviation, 1e-12)
}

func TestDetectContaminationBound(t *testing.T) {
	detector := NewAnomalyDetector(DefaultConfig(), nil, logrus.New())

	values := make([]float64, 100)
	for i := range values {
		values[i] = 60 + float64(i%17)*0.4
	}

	result, err := detector.Detect(context.Background(), seriesOf(models.MetricMuscleMass, values...))
	require.NoError(t, err)
	assert.LessOrEqual(t, result.AnomalyCount, 5)
	assert.Equal(t, len(result.Anomalies), result.AnomalyCount)
}

func TestDetectIsDeterministic(t *testing.T) {
	detector := NewAnomalyDetector(DefaultConfig(), nil, logrus.New())
	series := seriesOf(models.MetricWeight, noisyWithSpike(40, 5, 50)...)

	first, err := detector.Detect(context.Background(), series)
	require.NoError(t, err)
	second, err := detector.Detect(context.Background(), series)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDetectSavesArtifact(t *testing.T) {
	artifacts := newMemoryArtifacts()
	detector := NewAnomalyDetector(DefaultConfig(), artifacts, logrus.New())

	_, err := detector.Detect(context.Background(), seriesOf(models.MetricBodyFat, noisyWithSpike(12, 3, 40)...))
	require.NoError(t, err)

	_, err = artifacts.Load(context.Background(), "anomaly_detection/body_fat")
	assert.NoError(t, err)
}

func TestIsolationForestScores(t *testing.T) {
	forest := NewIsolationForest(100, 256, 42)
	values := noisyWithSpike(50, 10, 120)
	forest.Fit(values)

	scores := forest.ScoreAll(values)
	top := 0
	for i, s := range scores {
		assert.Greater(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		if s > scores[top] {
			top = i
		}
	}
	assert.Equal(t, 10, top)

	unfitted := NewIsolationForest(10, 256, 1)
	assert.Equal(t, 0.5, unfitted.Score(1))
}
