package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inferloop/healthtrack/pkg/models"
)

var baseDay = time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)

// dailyWeights builds one record per day carrying the given weights
func dailyWeights(weights ...float64) []models.MetricRecord {
	records := make([]models.MetricRecord, len(weights))
	for i, w := range weights {
		records[i] = models.MetricRecord{
			Date:   baseDay.AddDate(0, 0, i).Format("2006-01-02T15:04:05"),
			Source: "xiaomi",
			Weight: models.Float(w),
		}
	}
	return records
}

func linearWeights(n int, start, step float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values
}

func seriesOf(metric models.Metric, values ...float64) *models.PreparedSeries {
	series := &models.PreparedSeries{Metric: metric}
	for i, v := range values {
		series.Points = append(series.Points, models.SeriesPoint{
			Timestamp: baseDay.AddDate(0, 0, i),
			Value:     v,
		})
	}
	return series
}

type memoryArtifacts struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func newMemoryArtifacts() *memoryArtifacts {
	return &memoryArtifacts{items: make(map[string][]byte)}
}

func (m *memoryArtifacts) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items[key] = data
	return nil
}

func (m *memoryArtifacts) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", key)
	}
	return data, nil
}
