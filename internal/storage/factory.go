package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/internal/ml"
	"github.com/inferloop/healthtrack/internal/storage/implementations/file"
	"github.com/inferloop/healthtrack/internal/storage/implementations/influxdb"
	"github.com/inferloop/healthtrack/internal/storage/implementations/redis"
	"github.com/inferloop/healthtrack/internal/storage/implementations/s3"
	"github.com/inferloop/healthtrack/internal/storage/implementations/timescaledb"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
)

// Config selects and configures the record store backend
type Config struct {
	Type        string                        `json:"type" yaml:"type" mapstructure:"type"`
	File        file.FileStorageConfig        `json:"file" yaml:"file" mapstructure:"file"`
	TimescaleDB timescaledb.TimescaleDBConfig `json:"timescaledb" yaml:"timescaledb" mapstructure:"timescaledb"`
	InfluxDB    influxdb.InfluxDBConfig       `json:"influxdb" yaml:"influxdb" mapstructure:"influxdb"`
}

// ArtifactConfig selects and configures the model artifact sink
type ArtifactConfig struct {
	Type  string            `json:"type" yaml:"type" mapstructure:"type"`
	Local LocalConfig       `json:"local" yaml:"local" mapstructure:"local"`
	Redis redis.RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`
	S3    s3.S3Config       `json:"s3" yaml:"s3" mapstructure:"s3"`
}

// LocalConfig configures on-disk artifacts
type LocalConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// RecordStoreCreateFunc builds a record store from config
type RecordStoreCreateFunc func(config *Config, logger *logrus.Logger) (interfaces.HealthDataStore, error)

// ArtifactStoreCreateFunc builds an artifact store from config
type ArtifactStoreCreateFunc func(config *ArtifactConfig, logger *logrus.Logger) (interfaces.ArtifactStore, error)

// Factory creates record and artifact stores by type name
type Factory struct {
	records   map[string]RecordStoreCreateFunc
	artifacts map[string]ArtifactStoreCreateFunc
	mu        sync.RWMutex
	logger    *logrus.Logger
}

// NewFactory creates a new storage factory
func NewFactory(logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}

	factory := &Factory{
		records:   make(map[string]RecordStoreCreateFunc),
		artifacts: make(map[string]ArtifactStoreCreateFunc),
		logger:    logger,
	}

	factory.registerDefaults()

	return factory
}

// CreateRecordStore creates the record store named by config.Type
func (f *Factory) CreateRecordStore(config *Config) (interfaces.HealthDataStore, error) {
	if config == nil {
		return nil, errors.NewConfigurationError(errors.CodeInvalidConfig, "storage config cannot be nil")
	}

	f.mu.RLock()
	createFunc, exists := f.records[config.Type]
	f.mu.RUnlock()

	if !exists {
		return nil, errors.NewConfigurationError(errors.CodeInvalidConfig,
			fmt.Sprintf("Storage type '%s' is not supported", config.Type))
	}

	store, err := createFunc(config, f.logger)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeStorageError,
			fmt.Sprintf("Failed to create %s storage", config.Type))
	}

	f.logger.WithFields(logrus.Fields{
		"storage_type": config.Type,
	}).Info("Created record store")

	return store, nil
}

// CreateArtifactStore creates the artifact store named by config.Type.
// The "none" type, or an empty one, yields a nil store.
func (f *Factory) CreateArtifactStore(config *ArtifactConfig) (interfaces.ArtifactStore, error) {
	if config == nil || config.Type == "" || config.Type == constants.ArtifactStoreNone {
		return nil, nil
	}

	f.mu.RLock()
	createFunc, exists := f.artifacts[config.Type]
	f.mu.RUnlock()

	if !exists {
		return nil, errors.NewConfigurationError(errors.CodeInvalidConfig,
			fmt.Sprintf("Artifact store type '%s' is not supported", config.Type))
	}

	store, err := createFunc(config, f.logger)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeStorageError,
			fmt.Sprintf("Failed to create %s artifact store", config.Type))
	}

	f.logger.WithFields(logrus.Fields{
		"artifact_store": config.Type,
	}).Info("Created artifact store")

	return store, nil
}

// RegisterRecordStore registers a new record store type
func (f *Factory) RegisterRecordStore(storageType string, createFunc RecordStoreCreateFunc) error {
	if storageType == "" {
		return errors.NewValidationError(errors.CodeInvalidInput, "Storage type cannot be empty")
	}

	if createFunc == nil {
		return errors.NewValidationError(errors.CodeInvalidInput, "Storage create function cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.records[storageType] = createFunc
	return nil
}

// RegisterArtifactStore registers a new artifact store type
func (f *Factory) RegisterArtifactStore(storeType string, createFunc ArtifactStoreCreateFunc) error {
	if storeType == "" {
		return errors.NewValidationError(errors.CodeInvalidInput, "Artifact store type cannot be empty")
	}

	if createFunc == nil {
		return errors.NewValidationError(errors.CodeInvalidInput, "Artifact store create function cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.artifacts[storeType] = createFunc
	return nil
}

// GetSupportedTypes returns the registered record store types, sorted
func (f *Factory) GetSupportedTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.records))
	for storageType := range f.records {
		types = append(types, storageType)
	}

	sort.Strings(types)
	return types
}

// IsSupported checks if a record store type is supported
func (f *Factory) IsSupported(storageType string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, exists := f.records[storageType]
	return exists
}

// registerDefaults registers the default storage implementations
func (f *Factory) registerDefaults() {
	f.RegisterRecordStore(constants.StorageTypeMemory, func(config *Config, logger *logrus.Logger) (interfaces.HealthDataStore, error) {
		return NewMemoryStore(logger), nil
	})

	f.RegisterRecordStore(constants.StorageTypeFile, func(config *Config, logger *logrus.Logger) (interfaces.HealthDataStore, error) {
		fileConfig := config.File
		return file.NewFileStorage(&fileConfig, logger)
	})

	f.RegisterRecordStore(constants.StorageTypeTimescaleDB, func(config *Config, logger *logrus.Logger) (interfaces.HealthDataStore, error) {
		tsConfig := config.TimescaleDB
		return timescaledb.NewTimescaleDBStorage(&tsConfig, logger)
	})

	f.RegisterRecordStore(constants.StorageTypeInfluxDB, func(config *Config, logger *logrus.Logger) (interfaces.HealthDataStore, error) {
		influxConfig := config.InfluxDB
		return influxdb.NewInfluxDBStorage(&influxConfig, logger)
	})

	f.RegisterArtifactStore(constants.ArtifactStoreLocal, func(config *ArtifactConfig, logger *logrus.Logger) (interfaces.ArtifactStore, error) {
		path := config.Local.Path
		if path == "" {
			path = constants.DefaultModelDir
		}
		return ml.NewLocalModelStorage(path, logger)
	})

	f.RegisterArtifactStore(constants.ArtifactStoreRedis, func(config *ArtifactConfig, logger *logrus.Logger) (interfaces.ArtifactStore, error) {
		redisConfig := config.Redis
		return redis.NewRedisStorage(&redisConfig, logger)
	})

	f.RegisterArtifactStore(constants.ArtifactStoreS3, func(config *ArtifactConfig, logger *logrus.Logger) (interfaces.ArtifactStore, error) {
		s3Config := config.S3
		return s3.NewS3Storage(&s3Config, logger)
	})
}
