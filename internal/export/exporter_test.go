package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/internal/storage/implementations/file"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

func sampleRecords() []models.MetricRecord {
	return []models.MetricRecord{
		{Date: "2024-01-01", Source: "xiaomi", Weight: models.Float(70.5), BodyFat: models.Float(21)},
		{Date: "2024-01-02", Source: "manual", Steps: models.Float(8000)},
	}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), &buf, FormatCSV, sampleRecords(), DefaultExportOptions()))

	assert.Equal(t, "date,source,weight,body_fat,steps\n"+
		"2024-01-01,xiaomi,70.5,21,\n"+
		"2024-01-02,manual,,,8000\n", buf.String())
}

func TestCSVExportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), &buf, FormatCSV, sampleRecords(), DefaultExportOptions()))

	records, err := file.ReadRecordsCSV(&buf)
	require.NoError(t, err)
	require.Len(t, records, 2)

	weight, ok := records[0].Value(models.MetricWeight)
	assert.True(t, ok)
	assert.Equal(t, 70.5, weight)
	assert.Equal(t, "manual", records[1].Source)
	_, ok = records[1].Value(models.MetricWeight)
	assert.False(t, ok)
}

func TestCSVExportOptions(t *testing.T) {
	var buf bytes.Buffer
	options := ExportOptions{AllMetrics: true, Delimiter: ";"}
	require.NoError(t, Export(context.Background(), &buf, FormatCSV, sampleRecords()[:1], options))

	// no header, 2 + 14 fields
	assert.Equal(t, 15, bytes.Count(bytes.TrimSpace(buf.Bytes()), []byte(";")))

	err := Export(context.Background(), &buf, FormatCSV, nil, ExportOptions{Delimiter: "||"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), &buf, FormatJSON, nil, ExportOptions{}))
	assert.JSONEq(t, `{"records":[]}`, buf.String())

	buf.Reset()
	require.NoError(t, Export(context.Background(), &buf, FormatJSON, sampleRecords(), ExportOptions{Pretty: true}))

	var doc struct {
		Records []models.MetricRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Len(t, doc.Records, 2)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := Get("parquet")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, []ExportFormat{FormatCSV, FormatJSON}, SupportedFormats())
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.ErrorIs(t, Export(ctx, &buf, FormatCSV, sampleRecords(), ExportOptions{}), context.Canceled)
}
