package interfaces

import (
	"context"

	"github.com/inferloop/healthtrack/pkg/models"
)

// Storage defines the lifecycle shared by every backend
type Storage interface {
	// Connect establishes connection to the storage backend
	Connect(ctx context.Context) error

	// Close closes the connection and cleans up resources
	Close() error

	// Ping tests the connection
	Ping(ctx context.Context) error
}

// RecordStore supplies a user's metric records
type RecordStore interface {
	// ListRecords returns records for userID inside tr, newest first.
	// A nil range is unbounded and limit <= 0 means no limit.
	ListRecords(ctx context.Context, userID string, tr *models.TimeRange, limit int) ([]models.MetricRecord, error)
}

// RecordWriter accepts new records
type RecordWriter interface {
	// AddRecords appends records for userID
	AddRecords(ctx context.Context, userID string, records []models.MetricRecord) error
}

// ProfileProvider supplies user profiles
type ProfileProvider interface {
	// GetProfile returns the profile for userID
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// HealthDataStore is a backend that holds both records and profiles
type HealthDataStore interface {
	Storage
	RecordStore
	ProfileProvider
}

// ArtifactStore persists serialized model artifacts by key
type ArtifactStore interface {
	// Save writes data under key, replacing any previous value
	Save(ctx context.Context, key string, data []byte) error

	// Load reads the data stored under key
	Load(ctx context.Context, key string) ([]byte, error)
}

// ArtifactLister is implemented by artifact stores that can enumerate keys
type ArtifactLister interface {
	List(ctx context.Context) ([]string, error)
}
