package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultPort, config.Server.Port)
	assert.Equal(t, constants.DefaultShutdownTimeout, config.Server.ShutdownTimeout)
	assert.Equal(t, constants.StorageTypeMemory, config.Storage.Type)
	assert.Equal(t, constants.ArtifactStoreLocal, config.Artifacts.Type)
	assert.Equal(t, constants.DefaultModelDir, config.Artifacts.Local.Path)
	assert.Equal(t, []string{"*"}, config.HTTP.AllowedOrigins)
	assert.Equal(t, 5, config.Analytics.AROrder)
	assert.Equal(t, 0.05, config.Analytics.Contamination)
	assert.Equal(t, "7 days", config.Storage.TimescaleDB.ChunkTimeInterval)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  read_timeout: 5s
log:
  level: debug
  format: text
storage:
  type: timescaledb
  timescaledb:
    host: db.internal
artifacts:
  type: s3
  s3:
    bucket: models
analytics:
  contamination: 0.1
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 5*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "timescaledb", config.Storage.Type)
	assert.Equal(t, "db.internal", config.Storage.TimescaleDB.Host)
	assert.Equal(t, 5432, config.Storage.TimescaleDB.Port)
	assert.Equal(t, "models", config.Artifacts.S3.Bucket)
	assert.Equal(t, 0.1, config.Analytics.Contamination)
	assert.Equal(t, 5, config.Analytics.AROrder)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HEALTHTRACK_SERVER_PORT", "7070")
	t.Setenv("HEALTHTRACK_STORAGE_TYPE", "influxdb")
	t.Setenv("HEALTHTRACK_ARTIFACTS_REDIS_ADDR", "cache:6379")

	config, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "influxdb", config.Storage.Type)
	assert.Equal(t, "cache:6379", config.Artifacts.Redis.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"log level", "log:\n  level: loud\n"},
		{"log format", "log:\n  format: xml\n"},
		{"metrics port clash", "server:\n  port: 9090\nmetrics:\n  port: 9090\n"},
		{"contamination", "analytics:\n  contamination: 0.7\n"},
		{"ma terms", "analytics:\n  ma_order: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}
