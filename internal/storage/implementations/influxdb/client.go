package influxdb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

const (
	recordMeasurement  = "health_data"
	profileMeasurement = "user_profile"
)

// InfluxDBConfig contains configuration for InfluxDB storage
type InfluxDBConfig struct {
	URL          string        `json:"url" yaml:"url" mapstructure:"url"`
	Token        string        `json:"token" yaml:"token" mapstructure:"token"`
	Organization string        `json:"organization" yaml:"organization" mapstructure:"organization"`
	Bucket       string        `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	BatchSize    int           `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	UseGZip      bool          `json:"use_gzip" yaml:"use_gzip" mapstructure:"use_gzip"`
}

// InfluxDBStorage stores each record as one point of the health_data
// measurement, tagged by user and source, with one field per metric.
// Profiles live in the user_profile measurement; the newest point wins.
type InfluxDBStorage struct {
	config    *InfluxDBConfig
	client    influxdb2.Client
	writeAPI  api.WriteAPIBlocking
	queryAPI  api.QueryAPI
	logger    *logrus.Logger
	mu        sync.RWMutex
	connected bool
}

// NewInfluxDBStorage creates a new InfluxDB storage instance
func NewInfluxDBStorage(config *InfluxDBConfig, logger *logrus.Logger) (*InfluxDBStorage, error) {
	if config == nil {
		return nil, errors.NewStorageError(errors.CodeInvalidConfig, "InfluxDB config cannot be nil")
	}

	if config.Bucket == "" {
		return nil, errors.NewStorageError(errors.CodeInvalidConfig, "InfluxDB bucket is required")
	}

	if logger == nil {
		logger = logrus.New()
	}

	// Set defaults
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 1000
	}

	return &InfluxDBStorage{
		config: config,
		logger: logger,
	}, nil
}

// Connect establishes connection to InfluxDB
func (s *InfluxDBStorage) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}

	options := influxdb2.DefaultOptions()
	options.SetBatchSize(uint(s.config.BatchSize))
	options.SetUseGZip(s.config.UseGZip)
	options.SetPrecision(time.Second)
	options.SetHTTPRequestTimeout(uint(s.config.Timeout / time.Second))

	client := influxdb2.NewClientWithOptions(s.config.URL, s.config.Token, options)

	ok, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to connect to InfluxDB")
	}

	if !ok {
		client.Close()
		return errors.NewStorageError(errors.CodeConnectionFailed, "InfluxDB ping failed")
	}

	s.client = client
	s.writeAPI = client.WriteAPIBlocking(s.config.Organization, s.config.Bucket)
	s.queryAPI = client.QueryAPI(s.config.Organization)
	s.connected = true

	s.logger.WithFields(logrus.Fields{
		"url":          s.config.URL,
		"organization": s.config.Organization,
		"bucket":       s.config.Bucket,
	}).Info("Connected to InfluxDB")

	return nil
}

// Close closes the connection to InfluxDB
func (s *InfluxDBStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	if s.client != nil {
		s.client.Close()
	}

	s.connected = false
	s.logger.Info("Disconnected from InfluxDB")

	return nil
}

// Ping checks the server is reachable
func (s *InfluxDBStorage) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return errors.NewStorageError(errors.CodeNotConnected, "Not connected to InfluxDB")
	}

	ok, err := s.client.Ping(ctx)
	if err != nil || !ok {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "InfluxDB ping failed")
	}

	return nil
}

// AddRecords writes one point per record
func (s *InfluxDBStorage) AddRecords(ctx context.Context, userID string, records []models.MetricRecord) error {
	points := make([]*write.Point, 0, len(records))
	for _, record := range records {
		point, err := recordPoint(userID, record)
		if err != nil {
			return err
		}
		points = append(points, point)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return errors.NewStorageError(errors.CodeNotConnected, "Not connected to InfluxDB")
	}

	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to write to InfluxDB")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"points":  len(points),
	}).Debug("Wrote records to InfluxDB")

	return nil
}

// PutProfile writes a profile point; the latest one is served by GetProfile
func (s *InfluxDBStorage) PutProfile(ctx context.Context, profile *models.UserProfile) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return errors.NewStorageError(errors.CodeNotConnected, "Not connected to InfluxDB")
	}

	if err := s.writeAPI.WritePoint(ctx, profilePoint(profile, time.Now())); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to write profile to InfluxDB")
	}

	return nil
}

// GetProfile returns the most recently written profile for userID
func (s *InfluxDBStorage) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "Not connected to InfluxDB")
	}

	result, err := s.queryAPI.Query(ctx, buildProfileQuery(s.config.Bucket, userID))
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to execute InfluxDB query")
	}
	defer result.Close()

	var profile *models.UserProfile
	for result.Next() {
		profile = profileFromValues(userID, result.Record().Values())
	}

	if result.Err() != nil {
		return nil, errors.WrapError(result.Err(), errors.ErrorTypeStorage, errors.CodeReadFailed, "Error reading query results")
	}

	if profile == nil {
		return nil, errors.NewNotFoundError(errors.CodeUserNotFound, "user not found").WithContext("user_id", userID)
	}

	return profile, nil
}

// ListRecords returns the user's records inside tr, newest first
func (s *InfluxDBStorage) ListRecords(ctx context.Context, userID string, tr *models.TimeRange, limit int) ([]models.MetricRecord, error) {
	if !tr.Valid() {
		return nil, errors.NewValidationError(errors.CodeInvalidTimeRange, errors.ErrInvalidTimeRange.Error())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "Not connected to InfluxDB")
	}

	fluxQuery := buildRecordsQuery(s.config.Bucket, userID, tr, limit)

	s.logger.WithFields(logrus.Fields{
		"query": fluxQuery,
	}).Debug("Executing InfluxDB query")

	result, err := s.queryAPI.Query(ctx, fluxQuery)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to execute InfluxDB query")
	}
	defer result.Close()

	var records []models.MetricRecord
	for result.Next() {
		records = append(records, recordFromValues(result.Record().Values()))
	}

	if result.Err() != nil {
		return nil, errors.WrapError(result.Err(), errors.ErrorTypeStorage, errors.CodeReadFailed, "Error reading query results")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"records": len(records),
	}).Debug("Read records from InfluxDB")

	return records, nil
}

func recordPoint(userID string, record models.MetricRecord) (*write.Point, error) {
	ts, err := record.Timestamp()
	if err != nil {
		return nil, errors.NewDataError(errors.CodeInvalidDate, "record has an unparseable date").WithDetails(err.Error())
	}

	fields := make(map[string]interface{})
	for metric, value := range record.Values() {
		fields[string(metric)] = value
	}
	if len(fields) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput, "record carries no metrics").WithContext("date", record.Date)
	}

	tags := map[string]string{"user_id": userID}
	if record.Source != "" {
		tags["source"] = record.Source
	}

	return influxdb2.NewPoint(recordMeasurement, tags, fields, ts), nil
}

func profilePoint(profile *models.UserProfile, at time.Time) *write.Point {
	point := influxdb2.NewPointWithMeasurement(profileMeasurement).
		AddTag("user_id", profile.UserID).
		AddField("username", profile.Username).
		AddField("gender", profile.Gender).
		AddField("birth_date", profile.BirthDate).
		SetTime(at)

	if profile.Height != nil {
		point.AddField("height", *profile.Height)
	}

	return point
}

// buildRecordsQuery pivots metric fields into one row per timestamp
func buildRecordsQuery(bucket, userID string, tr *models.TimeRange, limit int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `from(bucket: %s)`, fluxString(bucket))

	start := "0"
	if tr != nil && !tr.Start.IsZero() {
		start = tr.Start.UTC().Format(time.RFC3339Nano)
	}
	if tr != nil && !tr.End.IsZero() {
		// range stop is exclusive
		fmt.Fprintf(&sb, `
	|> range(start: %s, stop: %s)`, start, tr.End.Add(time.Nanosecond).UTC().Format(time.RFC3339Nano))
	} else {
		fmt.Fprintf(&sb, `
	|> range(start: %s)`, start)
	}

	fmt.Fprintf(&sb, `
	|> filter(fn: (r) => r._measurement == %s and r.user_id == %s)
	|> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
	|> group()
	|> sort(columns: ["_time"], desc: true)`,
		fluxString(recordMeasurement), fluxString(userID))

	if limit > 0 {
		fmt.Fprintf(&sb, `
	|> limit(n: %d)`, limit)
	}

	return sb.String()
}

func buildProfileQuery(bucket, userID string) string {
	return fmt.Sprintf(`from(bucket: %s)
	|> range(start: 0)
	|> filter(fn: (r) => r._measurement == %s and r.user_id == %s)
	|> last()
	|> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")`,
		fluxString(bucket), fluxString(profileMeasurement), fluxString(userID))
}

func recordFromValues(values map[string]interface{}) models.MetricRecord {
	var record models.MetricRecord

	if ts, ok := values["_time"].(time.Time); ok {
		record.Date = models.FormatDate(ts)
	}
	record.UserID, _ = values["user_id"].(string)
	record.Source, _ = values["source"].(string)

	for _, m := range models.AllMetrics() {
		if v, ok := toFloat(values[string(m)]); ok {
			record = record.WithValue(m, v)
		}
	}

	return record
}

func profileFromValues(userID string, values map[string]interface{}) *models.UserProfile {
	profile := &models.UserProfile{UserID: userID}
	profile.Username, _ = values["username"].(string)
	profile.Gender, _ = values["gender"].(string)
	profile.BirthDate, _ = values["birth_date"].(string)
	if h, ok := toFloat(values["height"]); ok {
		profile.Height = models.Float(h)
	}
	return profile
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func fluxString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
