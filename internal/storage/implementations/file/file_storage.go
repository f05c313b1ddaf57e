package file

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// FileStorageConfig contains configuration for file-based storage
type FileStorageConfig struct {
	BasePath   string `json:"base_path" yaml:"base_path" mapstructure:"base_path"`
	CreateDirs bool   `json:"create_dirs" yaml:"create_dirs" mapstructure:"create_dirs"`
	Indent     bool   `json:"indent" yaml:"indent" mapstructure:"indent"`
}

// Dataset is the on-disk document for one user
type Dataset struct {
	Profile *models.UserProfile   `json:"profile"`
	Records []models.MetricRecord `json:"records"`
}

// FileStorage keeps one JSON dataset per user under BasePath
type FileStorage struct {
	config    *FileStorageConfig
	logger    *logrus.Logger
	mu        sync.RWMutex
	connected bool
}

// NewFileStorage creates a new file storage instance
func NewFileStorage(config *FileStorageConfig, logger *logrus.Logger) (*FileStorage, error) {
	if config == nil {
		return nil, errors.NewValidationError(errors.CodeInvalidConfig, "FileStorageConfig cannot be nil")
	}

	if config.BasePath == "" {
		return nil, errors.NewValidationError(errors.CodeInvalidConfig, "BasePath is required")
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &FileStorage{
		config: config,
		logger: logger,
	}, nil
}

// Connect verifies the base directory
func (fs *FileStorage) Connect(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.connected {
		return nil
	}

	if fs.config.CreateDirs {
		if err := os.MkdirAll(fs.config.BasePath, 0755); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed,
				fmt.Sprintf("Failed to create directory: %s", fs.config.BasePath))
		}
	}

	info, err := os.Stat(fs.config.BasePath)
	if err != nil || !info.IsDir() {
		return errors.NewStorageError(errors.CodeConnectionFailed, fmt.Sprintf("Base path is not a directory: %s", fs.config.BasePath))
	}

	fs.connected = true
	fs.logger.WithField("base_path", fs.config.BasePath).Info("File storage connected")

	return nil
}

// Close releases the store
func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.connected = false
	return nil
}

// Ping checks that the base directory is still reachable
func (fs *FileStorage) Ping(ctx context.Context) error {
	if _, err := os.Stat(fs.config.BasePath); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Base path unavailable")
	}
	return nil
}

// GetProfile returns the profile stored in the user's dataset
func (fs *FileStorage) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	dataset, err := fs.load(userID)
	if err != nil {
		return nil, err
	}

	if dataset.Profile == nil {
		return &models.UserProfile{UserID: userID}, nil
	}
	if dataset.Profile.UserID == "" {
		dataset.Profile.UserID = userID
	}
	return dataset.Profile, nil
}

// ListRecords returns the user's records inside tr, newest first
func (fs *FileStorage) ListRecords(ctx context.Context, userID string, tr *models.TimeRange, limit int) ([]models.MetricRecord, error) {
	if !tr.Valid() {
		return nil, errors.NewValidationError(errors.CodeInvalidTimeRange, errors.ErrInvalidTimeRange.Error())
	}

	dataset, err := fs.load(userID)
	if err != nil {
		return nil, err
	}

	return FilterRecords(dataset.Records, tr, limit)
}

// AddRecords appends records to the user's dataset
func (fs *FileStorage) AddRecords(ctx context.Context, userID string, records []models.MetricRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dataset, err := fs.read(userID)
	if err != nil && !errors.IsType(err, errors.ErrorTypeNotFound) {
		return err
	}
	if dataset == nil {
		dataset = &Dataset{Profile: &models.UserProfile{UserID: userID}}
	}

	for _, record := range records {
		if _, err := record.Timestamp(); err != nil {
			return errors.NewDataError(errors.CodeInvalidDate, "record has an unparseable date").WithDetails(err.Error())
		}
		record.UserID = userID
		dataset.Records = append(dataset.Records, record)
	}

	return fs.write(userID, dataset)
}

// SaveDataset replaces the user's dataset
func (fs *FileStorage) SaveDataset(userID string, dataset *Dataset) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.write(userID, dataset)
}

func (fs *FileStorage) load(userID string) (*Dataset, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.read(userID)
}

func (fs *FileStorage) read(userID string) (*Dataset, error) {
	path, err := fs.datasetPath(userID)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewNotFoundError(errors.CodeUserNotFound, "user not found").WithContext("user_id", userID)
	}

	return ReadDataset(path)
}

func (fs *FileStorage) write(userID string, dataset *Dataset) error {
	path, err := fs.datasetPath(userID)
	if err != nil {
		return err
	}

	var data []byte
	if fs.config.Indent {
		data, err = json.MarshalIndent(dataset, "", "  ")
	} else {
		data, err = json.Marshal(dataset)
	}
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to encode dataset")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("Failed to write file: %s", tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("Failed to replace file: %s", path))
	}

	fs.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"records": len(dataset.Records),
	}).Debug("Dataset written")

	return nil
}

func (fs *FileStorage) datasetPath(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", errors.NewValidationError(errors.CodeInvalidInput, fmt.Sprintf("invalid user id %q", userID))
	}
	return filepath.Join(fs.config.BasePath, userID+".json"), nil
}

// ReadDataset loads a dataset document from path
func ReadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
			fmt.Sprintf("Failed to open file: %s", path))
	}

	var dataset Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInvalidInput,
			fmt.Sprintf("Failed to parse dataset: %s", path))
	}

	return &dataset, nil
}

// ReadRecordsCSV parses records from CSV. The header must contain a
// date/timestamp column; any other column named after a metric is read as
// that metric and unknown columns are ignored.
func ReadRecordsCSV(r io.Reader) ([]models.MetricRecord, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInvalidInput, "Failed to read CSV")
	}

	if len(rows) < 2 {
		return nil, errors.NewDataError(errors.CodeInvalidInput, "CSV file must have at least header and one data row")
	}

	dateCol, sourceCol := -1, -1
	metricCols := make(map[int]models.Metric)
	for i, col := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(col))
		switch {
		case name == "date" || name == "timestamp" || name == "time":
			dateCol = i
		case name == "source":
			sourceCol = i
		case models.IsValidMetric(models.Metric(name)):
			metricCols[i] = models.Metric(name)
		}
	}

	if dateCol == -1 {
		return nil, errors.NewDataError(errors.CodeInvalidInput, "CSV must have a date column")
	}

	records := make([]models.MetricRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) <= dateCol {
			continue
		}

		record := models.MetricRecord{Date: strings.TrimSpace(row[dateCol])}
		if _, err := record.Timestamp(); err != nil {
			return nil, errors.NewDataError(errors.CodeInvalidDate,
				fmt.Sprintf("row %d has an unparseable date", i+2)).WithDetails(err.Error())
		}
		if sourceCol != -1 && len(row) > sourceCol {
			record.Source = strings.TrimSpace(row[sourceCol])
		}

		for col, metric := range metricCols {
			if len(row) <= col || strings.TrimSpace(row[col]) == "" {
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return nil, errors.NewDataError(errors.CodeInvalidInput,
					fmt.Sprintf("row %d column %s is not numeric", i+2, metric))
			}
			record = record.WithValue(metric, value)
		}

		records = append(records, record)
	}

	return records, nil
}

// FilterRecords keeps records inside tr, newest first, truncated to limit
func FilterRecords(records []models.MetricRecord, tr *models.TimeRange, limit int) ([]models.MetricRecord, error) {
	type stamped struct {
		record models.MetricRecord
		at     int64
	}

	matched := make([]stamped, 0, len(records))
	for _, record := range records {
		ts, err := record.Timestamp()
		if err != nil {
			return nil, errors.NewDataError(errors.CodeInvalidDate, "stored record has an unparseable date").WithDetails(err.Error())
		}
		if tr.Contains(ts) {
			matched = append(matched, stamped{record: record, at: ts.UnixNano()})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].at > matched[j].at
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]models.MetricRecord, len(matched))
	for i, m := range matched {
		out[i] = m.record
	}
	return out, nil
}
