package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/pkg/models"
)

func TestSummarizeMetrics(t *testing.T) {
	records := []models.MetricRecord{
		{Date: "2024-05-03", Weight: models.Float(78), Steps: models.Float(9000)},
		{Date: "2024-05-01", Weight: models.Float(80)},
		{Date: "2024-05-02", Weight: models.Float(79), BodyFat: models.Float(0)},
	}

	summary, err := SummarizeMetrics(records)
	require.NoError(t, err)

	weight := summary.Metrics[models.MetricWeight]
	assert.Equal(t, 78.0, weight.Current)
	assert.Equal(t, 78.0, weight.Min)
	assert.Equal(t, 80.0, weight.Max)
	assert.InDelta(t, 79.0, weight.Avg, 1e-12)
	assert.Equal(t, -2.0, weight.Change)
	require.NotNil(t, weight.ChangePercent)
	assert.InDelta(t, -2.5, *weight.ChangePercent, 1e-12)
	assert.Equal(t, 3, weight.Count)

	steps := summary.Metrics[models.MetricSteps]
	assert.Nil(t, steps.ChangePercent)

	fat := summary.Metrics[models.MetricBodyFat]
	assert.Nil(t, fat.ChangePercent)

	_, ok := summary.Metrics[models.MetricProtein]
	assert.False(t, ok)

	assert.Equal(t, 3, summary.Overall.TotalRecords)
	assert.Equal(t, "2024-05-01T00:00:00Z", summary.Overall.FirstRecordDate)
	assert.Equal(t, "2024-05-03T00:00:00Z", summary.Overall.LastRecordDate)
}

func TestSummarizeEmpty(t *testing.T) {
	summary, err := SummarizeMetrics(nil)
	require.NoError(t, err)
	assert.Empty(t, summary.Metrics)
	assert.Equal(t, 0, summary.Overall.TotalRecords)
	assert.Empty(t, summary.Overall.FirstRecordDate)
}
