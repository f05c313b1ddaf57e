package analytics

import (
	"time"

	mathutil "github.com/inferloop/healthtrack/internal/utils/math"
	"github.com/inferloop/healthtrack/pkg/models"
)

// SummarizeMetrics computes per-metric window statistics over records.
// Metrics with no observation are omitted.
func SummarizeMetrics(records []models.MetricRecord) (*models.MetricSummary, error) {
	summary := &models.MetricSummary{
		Metrics: make(map[models.Metric]models.MetricStats),
		Overall: models.OverallStats{TotalRecords: len(records)},
	}

	for _, metric := range models.AllMetrics() {
		series, err := PrepareSeries(records, metric)
		if err != nil {
			return nil, err
		}
		if series.Len() == 0 {
			continue
		}

		values := series.Values()
		first, last := values[0], values[len(values)-1]
		lo, hi := mathutil.MinMax(values)

		stats := models.MetricStats{
			Current: last,
			Min:     lo,
			Max:     hi,
			Avg:     mathutil.Mean(values),
			Change:  last - first,
			Count:   len(values),
		}
		if len(values) > 1 && first != 0 {
			pct := (last - first) / first * 100
			stats.ChangePercent = &pct
		}

		summary.Metrics[metric] = stats
	}

	sorted, err := SortRecords(records)
	if err != nil {
		return nil, err
	}
	if len(sorted) > 0 {
		firstAt, _ := sorted[0].Timestamp()
		lastAt, _ := sorted[len(sorted)-1].Timestamp()
		summary.Overall.FirstRecordDate = firstAt.Format(time.RFC3339)
		summary.Overall.LastRecordDate = lastAt.Format(time.RFC3339)
	}

	return summary, nil
}
