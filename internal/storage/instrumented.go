package storage

import (
	"context"
	"time"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

// OperationRecorder receives one observation per storage call
type OperationRecorder interface {
	RecordStorageOperation(backend, operation, status string, duration time.Duration)
}

// InstrumentedStore reports every read and write of the wrapped store
type InstrumentedStore struct {
	interfaces.HealthDataStore
	backend  string
	recorder OperationRecorder
}

// Instrument wraps store so each call is reported to recorder under backend.
// A nil recorder returns store unchanged.
func Instrument(store interfaces.HealthDataStore, backend string, recorder OperationRecorder) interfaces.HealthDataStore {
	if recorder == nil {
		return store
	}
	return &InstrumentedStore{HealthDataStore: store, backend: backend, recorder: recorder}
}

// ListRecords implements interfaces.RecordStore
func (s *InstrumentedStore) ListRecords(ctx context.Context, userID string, tr *models.TimeRange, limit int) ([]models.MetricRecord, error) {
	start := time.Now()
	records, err := s.HealthDataStore.ListRecords(ctx, userID, tr, limit)
	s.observe("list_records", start, err)
	return records, err
}

// GetProfile implements interfaces.ProfileProvider
func (s *InstrumentedStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	start := time.Now()
	profile, err := s.HealthDataStore.GetProfile(ctx, userID)
	s.observe("get_profile", start, err)
	return profile, err
}

// AddRecords forwards to the wrapped store when it accepts writes
func (s *InstrumentedStore) AddRecords(ctx context.Context, userID string, records []models.MetricRecord) error {
	writer, ok := s.HealthDataStore.(interfaces.RecordWriter)
	if !ok {
		return errors.NewValidationError(errors.CodeInvalidInput, "record store is read-only").WithContext("backend", s.backend)
	}

	start := time.Now()
	err := writer.AddRecords(ctx, userID, records)
	s.observe("add_records", start, err)
	return err
}

// Unwrap returns the wrapped store
func (s *InstrumentedStore) Unwrap() interfaces.HealthDataStore {
	return s.HealthDataStore
}

func (s *InstrumentedStore) observe(operation string, start time.Time, err error) {
	status := "success"
	switch {
	case err == nil:
	case errors.IsType(err, errors.ErrorTypeNotFound):
		status = "not_found"
	default:
		status = "error"
	}
	s.recorder.RecordStorageOperation(s.backend, operation, status, time.Since(start))
}
