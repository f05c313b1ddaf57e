package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/internal/ml"
	"github.com/inferloop/healthtrack/internal/storage/implementations/file"
	"github.com/inferloop/healthtrack/internal/storage/implementations/influxdb"
	"github.com/inferloop/healthtrack/internal/storage/implementations/redis"
	"github.com/inferloop/healthtrack/internal/storage/implementations/s3"
	"github.com/inferloop/healthtrack/internal/storage/implementations/timescaledb"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
)

func TestFactorySupportedTypes(t *testing.T) {
	factory := NewFactory(nil)

	assert.Equal(t, []string{"file", "influxdb", "memory", "timescaledb"}, factory.GetSupportedTypes())
	assert.True(t, factory.IsSupported("memory"))
	assert.False(t, factory.IsSupported("clickhouse"))
}

func TestFactoryCreateRecordStore(t *testing.T) {
	factory := NewFactory(logrus.New())

	tests := []struct {
		name   string
		config *Config
		check  func(t *testing.T, store interfaces.HealthDataStore)
	}{
		{
			name:   "memory",
			config: &Config{Type: "memory"},
			check: func(t *testing.T, store interfaces.HealthDataStore) {
				assert.IsType(t, &MemoryStore{}, store)
			},
		},
		{
			name:   "file",
			config: &Config{Type: "file", File: file.FileStorageConfig{BasePath: t.TempDir()}},
			check: func(t *testing.T, store interfaces.HealthDataStore) {
				assert.IsType(t, &file.FileStorage{}, store)
			},
		},
		{
			name:   "timescaledb",
			config: &Config{Type: "timescaledb", TimescaleDB: timescaledb.TimescaleDBConfig{Host: "localhost", Port: 5432}},
			check: func(t *testing.T, store interfaces.HealthDataStore) {
				assert.IsType(t, &timescaledb.TimescaleDBStorage{}, store)
			},
		},
		{
			name:   "influxdb",
			config: &Config{Type: "influxdb", InfluxDB: influxdb.InfluxDBConfig{URL: "http://localhost:8086", Bucket: "health"}},
			check: func(t *testing.T, store interfaces.HealthDataStore) {
				assert.IsType(t, &influxdb.InfluxDBStorage{}, store)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := factory.CreateRecordStore(tt.config)
			require.NoError(t, err)
			tt.check(t, store)
		})
	}
}

func TestFactoryCreateRecordStoreErrors(t *testing.T) {
	factory := NewFactory(nil)

	_, err := factory.CreateRecordStore(nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	_, err = factory.CreateRecordStore(&Config{Type: "cassandra"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	// file store without a base path
	_, err = factory.CreateRecordStore(&Config{Type: "file"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))
}

func TestFactoryCreateArtifactStore(t *testing.T) {
	factory := NewFactory(nil)

	store, err := factory.CreateArtifactStore(&ArtifactConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = factory.CreateArtifactStore(nil)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = factory.CreateArtifactStore(&ArtifactConfig{Type: "local", Local: LocalConfig{Path: filepath.Join(t.TempDir(), "models")}})
	require.NoError(t, err)
	assert.IsType(t, &ml.LocalModelStorage{}, store)

	require.NoError(t, store.Save(context.Background(), "weight_prediction/weight", []byte("{}")))

	store, err = factory.CreateArtifactStore(&ArtifactConfig{Type: "redis", Redis: redis.RedisConfig{Addr: "localhost:6379"}})
	require.NoError(t, err)
	assert.IsType(t, &redis.RedisStorage{}, store)

	store, err = factory.CreateArtifactStore(&ArtifactConfig{Type: "s3", S3: s3.S3Config{Bucket: "models"}})
	require.NoError(t, err)
	assert.IsType(t, &s3.S3Storage{}, store)

	_, err = factory.CreateArtifactStore(&ArtifactConfig{Type: "gcs"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}

func TestFactoryRegisterValidation(t *testing.T) {
	factory := NewFactory(nil)

	assert.Error(t, factory.RegisterRecordStore("", func(*Config, *logrus.Logger) (interfaces.HealthDataStore, error) { return nil, nil }))
	assert.Error(t, factory.RegisterRecordStore("x", nil))
	assert.Error(t, factory.RegisterArtifactStore("", nil))

	require.NoError(t, factory.RegisterRecordStore("custom", func(*Config, *logrus.Logger) (interfaces.HealthDataStore, error) {
		return NewMemoryStore(nil), nil
	}))
	assert.True(t, factory.IsSupported("custom"))
}
