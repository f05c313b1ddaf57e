package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// MemoryStore keeps records and profiles in process memory
type MemoryStore struct {
	logger   *logrus.Logger
	mu       sync.RWMutex
	records  map[string][]models.MetricRecord
	profiles map[string]*models.UserProfile
	nextID   int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *logrus.Logger) *MemoryStore {
	if logger == nil {
		logger = logrus.New()
	}

	return &MemoryStore{
		logger:   logger,
		records:  make(map[string][]models.MetricRecord),
		profiles: make(map[string]*models.UserProfile),
	}
}

// Connect is a no-op
func (m *MemoryStore) Connect(ctx context.Context) error { return nil }

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }

// Ping always succeeds
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// PutProfile stores or replaces a profile
func (m *MemoryStore) PutProfile(profile *models.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *profile
	m.profiles[profile.UserID] = &copied
}

// GetProfile returns the profile for userID
func (m *MemoryStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[userID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.CodeUserNotFound, "user not found").WithContext("user_id", userID)
	}

	copied := *profile
	return &copied, nil
}

// AddRecords appends records for userID, assigning IDs to new records
func (m *MemoryStore) AddRecords(ctx context.Context, userID string, records []models.MetricRecord) error {
	for i := range records {
		if _, err := records[i].Timestamp(); err != nil {
			return errors.NewDataError(errors.CodeInvalidDate, "record has an unparseable date").WithDetails(err.Error())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range records {
		if record.ID == 0 {
			m.nextID++
			record.ID = m.nextID
		}
		record.UserID = userID
		m.records[userID] = append(m.records[userID], record)
	}

	return nil
}

// ListRecords returns the user's records inside tr, newest first
func (m *MemoryStore) ListRecords(ctx context.Context, userID string, tr *models.TimeRange, limit int) ([]models.MetricRecord, error) {
	if !tr.Valid() {
		return nil, errors.NewValidationError(errors.CodeInvalidTimeRange, errors.ErrInvalidTimeRange.Error())
	}

	m.mu.RLock()
	stored := m.records[userID]
	matched := make([]models.MetricRecord, 0, len(stored))
	for _, record := range stored {
		ts, _ := record.Timestamp()
		if tr.Contains(ts) {
			matched = append(matched, record)
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(matched)

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	m.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"records": len(matched),
	}).Debug("Listed records")

	return matched, nil
}

// sortNewestFirst orders records by descending timestamp. Dates are
// validated on insert.
func sortNewestFirst(records []models.MetricRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, _ := records[i].Timestamp()
		tj, _ := records[j].Timestamp()
		return ti.After(tj)
	})
}
