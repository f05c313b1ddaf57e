package export

import (
	"context"
	"encoding/json"
	"io"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// JSONExporter writes {"records": [...]}, the body the ingest endpoint accepts
type JSONExporter struct{}

// Name returns the exporter name
func (je *JSONExporter) Name() string {
	return "json"
}

// Format returns FormatJSON
func (je *JSONExporter) Format() ExportFormat {
	return FormatJSON
}

// Export writes records as one JSON document
func (je *JSONExporter) Export(ctx context.Context, writer io.Writer, records []models.MetricRecord, options ExportOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if records == nil {
		records = []models.MetricRecord{}
	}

	encoder := json.NewEncoder(writer)
	if options.Pretty {
		encoder.SetIndent("", "  ")
	}

	doc := struct {
		Records []models.MetricRecord `json:"records"`
	}{Records: records}

	if err := encoder.Encode(doc); err != nil {
		return errors.WrapError(err, errors.ErrorTypeInternal, errors.CodeWriteFailed, "failed to encode JSON")
	}
	return nil
}

// ValidateOptions accepts every option; CSV-only fields are ignored
func (je *JSONExporter) ValidateOptions(options ExportOptions) error {
	return nil
}
