package export

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// ExportFormat names an output encoding
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions tune a single export
type ExportOptions struct {
	// IncludeHeaders writes the CSV header row
	IncludeHeaders bool `json:"include_headers"`
	// AllMetrics emits every metric column even when no record has a reading
	AllMetrics bool `json:"all_metrics"`
	// Pretty indents JSON output
	Pretty bool `json:"pretty"`
	// Delimiter overrides the CSV field separator
	Delimiter string `json:"delimiter,omitempty"`
}

// DefaultExportOptions returns options that round-trip through the CSV reader
func DefaultExportOptions() ExportOptions {
	return ExportOptions{IncludeHeaders: true}
}

// Exporter writes metric records in one format
type Exporter interface {
	Name() string
	Format() ExportFormat
	Export(ctx context.Context, w io.Writer, records []models.MetricRecord, options ExportOptions) error
	ValidateOptions(options ExportOptions) error
}

var (
	registryMu sync.RWMutex
	registry   = map[ExportFormat]Exporter{
		FormatCSV:  &CSVExporter{},
		FormatJSON: &JSONExporter{},
	}
)

// Register adds or replaces the exporter for its format
func Register(exporter Exporter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[exporter.Format()] = exporter
}

// Get returns the exporter for format
func Get(format ExportFormat) (Exporter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	exporter, ok := registry[format]
	if !ok {
		return nil, errors.NewValidationError(errors.CodeInvalidInput, "unsupported export format").
			WithContext("format", format).
			WithContext("supported", SupportedFormats())
	}
	return exporter, nil
}

// SupportedFormats lists registered formats, sorted
func SupportedFormats() []ExportFormat {
	registryMu.RLock()
	defer registryMu.RUnlock()

	formats := make([]ExportFormat, 0, len(registry))
	for format := range registry {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Export validates options and writes records with the exporter for format
func Export(ctx context.Context, w io.Writer, format ExportFormat, records []models.MetricRecord, options ExportOptions) error {
	exporter, err := Get(format)
	if err != nil {
		return err
	}
	if err := exporter.ValidateOptions(options); err != nil {
		return err
	}
	return exporter.Export(ctx, w, records, options)
}
