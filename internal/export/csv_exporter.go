package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// CSVExporter writes one row per record: date, source, then one column per metric
type CSVExporter struct{}

// Name returns the exporter name
func (ce *CSVExporter) Name() string {
	return "csv"
}

// Format returns FormatCSV
func (ce *CSVExporter) Format() ExportFormat {
	return FormatCSV
}

// Export writes records in the column layout the CSV reader accepts
func (ce *CSVExporter) Export(ctx context.Context, writer io.Writer, records []models.MetricRecord, options ExportOptions) error {
	csvWriter := csv.NewWriter(writer)
	if options.Delimiter != "" {
		csvWriter.Comma = rune(options.Delimiter[0])
	}

	metrics := ce.columns(records, options)

	if options.IncludeHeaders {
		headers := make([]string, 0, len(metrics)+2)
		headers = append(headers, "date", "source")
		for _, m := range metrics {
			headers = append(headers, string(m))
		}
		if err := csvWriter.Write(headers); err != nil {
			return errors.WrapError(err, errors.ErrorTypeInternal, errors.CodeWriteFailed, "failed to write CSV headers")
		}
	}

	for i := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := csvWriter.Write(ce.row(&records[i], metrics)); err != nil {
			return errors.WrapError(err, errors.ErrorTypeInternal, errors.CodeWriteFailed, "failed to write CSV row")
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeInternal, errors.CodeWriteFailed, "failed to flush CSV")
	}
	return nil
}

// ValidateOptions validates CSV export options
func (ce *CSVExporter) ValidateOptions(options ExportOptions) error {
	if options.Delimiter != "" && (len(options.Delimiter) != 1 || options.Delimiter == "\"" || options.Delimiter == "\n") {
		return errors.NewValidationError(errors.CodeInvalidInput, "CSV delimiter must be a single character")
	}
	return nil
}

// columns returns the metrics to emit in canonical order
func (ce *CSVExporter) columns(records []models.MetricRecord, options ExportOptions) []models.Metric {
	all := models.AllMetrics()
	if options.AllMetrics {
		return all
	}

	present := make(map[models.Metric]bool)
	for i := range records {
		for m := range records[i].Values() {
			present[m] = true
		}
	}

	metrics := make([]models.Metric, 0, len(present))
	for _, m := range all {
		if present[m] {
			metrics = append(metrics, m)
		}
	}
	return metrics
}

func (ce *CSVExporter) row(record *models.MetricRecord, metrics []models.Metric) []string {
	row := make([]string, 0, len(metrics)+2)
	row = append(row, record.Date, record.Source)
	for _, m := range metrics {
		if v, ok := record.Value(m); ok {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		} else {
			row = append(row, "")
		}
	}
	return row
}
