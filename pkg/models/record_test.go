package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", "2024-03-01T08:30:00Z", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"rfc3339 with offset", "2024-03-01T10:30:00+02:00", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"iso without zone", "2024-03-01T08:30:00", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"iso with micros", "2024-03-01T08:30:00.123456", time.Date(2024, 3, 1, 8, 30, 0, 123456000, time.UTC)},
		{"space separated", "2024-03-01 08:30:00", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"date only", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "yesterday", "01/03/2024", "2024-13-01"} {
		_, err := ParseDate(input)
		assert.Error(t, err, input)
	}
}

func TestMetricRecordValue(t *testing.T) {
	record := MetricRecord{Date: "2024-03-01", Weight: Float(72.5)}

	v, ok := record.Value(MetricWeight)
	assert.True(t, ok)
	assert.Equal(t, 72.5, v)

	_, ok = record.Value(MetricBodyFat)
	assert.False(t, ok)

	_, ok = record.Value(Metric("heart_rate"))
	assert.False(t, ok)
}

func TestMetricRecordWithValueCopies(t *testing.T) {
	original := MetricRecord{Date: "2024-03-01"}
	updated := original.WithValue(MetricSteps, 8000)

	_, ok := original.Value(MetricSteps)
	assert.False(t, ok)

	v, ok := updated.Value(MetricSteps)
	assert.True(t, ok)
	assert.Equal(t, 8000.0, v)
	assert.True(t, updated.HasAnyMetric())
	assert.False(t, original.HasAnyMetric())
}

func TestMetricRecordJSON(t *testing.T) {
	raw := `{"date":"2024-03-01T07:00:00","weight":80.1,"body_fat":22.4,"source":"xiaomi"}`

	var record MetricRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &record))

	values := record.Values()
	assert.Len(t, values, 2)
	assert.Equal(t, 80.1, values[MetricWeight])
	assert.Equal(t, 22.4, values[MetricBodyFat])
	assert.Equal(t, "xiaomi", record.Source)
}

func TestMetricVocabulary(t *testing.T) {
	assert.Len(t, AllMetrics(), 14)
	assert.Len(t, AnalyzableMetrics(), 9)

	assert.True(t, IsValidMetric(MetricSleepHours))
	assert.False(t, IsValidMetric("heart_rate"))

	assert.True(t, IsAnalyzable(MetricProtein))
	assert.False(t, IsAnalyzable(MetricSteps))
}

func TestUserProfileHeightMetres(t *testing.T) {
	var nilProfile *UserProfile
	_, ok := nilProfile.HeightMetres()
	assert.False(t, ok)

	_, ok = (&UserProfile{UserID: "u1"}).HeightMetres()
	assert.False(t, ok)

	h, ok := (&UserProfile{UserID: "u1", Height: Float(175)}).HeightMetres()
	assert.True(t, ok)
	assert.InDelta(t, 1.75, h, 1e-12)
}

func TestTimeRange(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	window := LastDays(now, 30)

	assert.True(t, window.Valid())
	assert.True(t, window.Contains(now))
	assert.True(t, window.Contains(now.AddDate(0, 0, -30)))
	assert.False(t, window.Contains(now.AddDate(0, 0, -31)))
	assert.False(t, window.Contains(now.Add(time.Second)))

	var open *TimeRange
	assert.True(t, open.Contains(now))

	inverted := &TimeRange{Start: now, End: now.Add(-time.Hour)}
	assert.False(t, inverted.Valid())
}
