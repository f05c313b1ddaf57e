package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// PrepareSeries extracts metric from records as a timestamp-ascending series.
// Records without the metric are dropped and duplicate timestamps are kept in
// input order. An unknown metric yields an empty series, and any unparseable
// date fails the whole call with a data error.
func PrepareSeries(records []models.MetricRecord, metric models.Metric) (*models.PreparedSeries, error) {
	series := &models.PreparedSeries{
		Metric: metric,
		Points: []models.SeriesPoint{},
	}

	if !models.IsValidMetric(metric) {
		return series, nil
	}

	for i := range records {
		ts, err := records[i].Timestamp()
		if err != nil {
			return nil, errors.NewDataError(errors.CodeInvalidDate,
				fmt.Sprintf("record %d has an unparseable date", i)).WithDetails(err.Error())
		}

		value, ok := records[i].Value(metric)
		if !ok {
			continue
		}

		series.Points = append(series.Points, models.SeriesPoint{Timestamp: ts, Value: value})
	}

	sort.SliceStable(series.Points, func(i, j int) bool {
		return series.Points[i].Timestamp.Before(series.Points[j].Timestamp)
	})

	return series, nil
}

// SortRecords returns a copy of records ordered oldest first. Dates must
// already be valid.
func SortRecords(records []models.MetricRecord) ([]models.MetricRecord, error) {
	type stamped struct {
		at     time.Time
		record models.MetricRecord
	}

	items := make([]stamped, len(records))
	for i := range records {
		ts, err := records[i].Timestamp()
		if err != nil {
			return nil, errors.NewDataError(errors.CodeInvalidDate,
				fmt.Sprintf("record %d has an unparseable date", i)).WithDetails(err.Error())
		}
		items[i] = stamped{at: ts, record: records[i]}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.Before(items[j].at)
	})

	sorted := make([]models.MetricRecord, len(items))
	for i, item := range items {
		sorted[i] = item.record
	}
	return sorted, nil
}
