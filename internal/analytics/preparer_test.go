package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

func TestPrepareSeriesSortsAscending(t *testing.T) {
	records := []models.MetricRecord{
		{Date: "2024-05-03", Weight: models.Float(72)},
		{Date: "2024-05-01T08:00:00Z", Weight: models.Float(70)},
		{Date: "2024-05-04 06:00:00", BodyFat: models.Float(20)},
		{Date: "2024-05-02T08:00:00", Weight: models.Float(71)},
	}

	series, err := PrepareSeries(records, models.MetricWeight)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, []float64{70, 71, 72}, series.Values())

	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Points[i-1].Timestamp.Before(series.Points[i].Timestamp))
	}

	again, err := PrepareSeries(records, models.MetricWeight)
	require.NoError(t, err)
	assert.Equal(t, series, again)
}

func TestPrepareSeriesKeepsDuplicateTimestamps(t *testing.T) {
	records := []models.MetricRecord{
		{Date: "2024-05-02", Weight: models.Float(80)},
		{Date: "2024-05-01", Weight: models.Float(79)},
		{Date: "2024-05-02", Weight: models.Float(81)},
	}

	series, err := PrepareSeries(records, models.MetricWeight)
	require.NoError(t, err)
	assert.Equal(t, []float64{79, 80, 81}, series.Values())
}

func TestPrepareSeriesUnknownMetric(t *testing.T) {
	series, err := PrepareSeries(dailyWeights(70, 71), models.Metric("heart_rate"))
	require.NoError(t, err)
	assert.Equal(t, 0, series.Len())
	assert.NotNil(t, series.Points)
}

func TestPrepareSeriesEmptyInput(t *testing.T) {
	series, err := PrepareSeries(nil, models.MetricWeight)
	require.NoError(t, err)
	assert.Equal(t, 0, series.Len())
}

func TestPrepareSeriesUnparseableDate(t *testing.T) {
	records := dailyWeights(70, 71)
	records = append(records, models.MetricRecord{Date: "last tuesday", BodyFat: models.Float(20)})

	_, err := PrepareSeries(records, models.MetricWeight)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestSortRecords(t *testing.T) {
	records := []models.MetricRecord{
		{Date: "2024-05-03", Weight: models.Float(3)},
		{Date: "2024-05-01", Weight: models.Float(1)},
		{Date: "2024-05-02", Weight: models.Float(2)},
	}

	sorted, err := SortRecords(records)
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, "2024-05-01", sorted[0].Date)
	assert.Equal(t, "2024-05-03", sorted[2].Date)
	assert.Equal(t, "2024-05-03", records[0].Date)
}
