package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/pkg/errors"
)

func TestNewRedisStorage(t *testing.T) {
	config := &RedisConfig{
		Addr:     "localhost:6379",
		Password: "",
		DB:       0,
	}

	logger := logrus.New()
	storage, err := NewRedisStorage(config, logger)

	require.NoError(t, err)
	require.NotNil(t, storage)
	assert.Equal(t, config, storage.config)
	assert.Equal(t, logger, storage.logger)
}

func TestNewRedisStorageInvalidConfig(t *testing.T) {
	_, err := NewRedisStorage(nil, logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")

	_, err = NewRedisStorage(&RedisConfig{}, logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address or cluster addresses are required")

	_, err = NewRedisStorage(&RedisConfig{ClusterAddrs: []string{"a:7000"}, UseClustering: true}, nil)
	assert.NoError(t, err)
}

func TestRedisStorageGenerateKeys(t *testing.T) {
	storage, err := NewRedisStorage(&RedisConfig{Addr: "localhost:6379", KeyPrefix: "healthtrack"}, logrus.New())
	require.NoError(t, err)

	assert.Equal(t, "healthtrack:artifact:weight_prediction/weight", storage.generateArtifactKey("weight_prediction/weight"))
	assert.Equal(t, "healthtrack:stream:artifacts", storage.generateStreamKey())
}

func TestRedisStorageGenerateKeysNoPrefix(t *testing.T) {
	storage, err := NewRedisStorage(&RedisConfig{Addr: "localhost:6379"}, logrus.New())
	require.NoError(t, err)

	assert.Equal(t, "artifact:anomaly_detection/weight", storage.generateArtifactKey("anomaly_detection/weight"))
	assert.Equal(t, "stream:artifacts", storage.generateStreamKey())
}

func TestRedisStorageRequiresConnection(t *testing.T) {
	storage, err := NewRedisStorage(&RedisConfig{Addr: "localhost:6379"}, logrus.New())
	require.NoError(t, err)

	ctx := context.Background()

	err = storage.Save(ctx, "k", []byte("v"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	_, err = storage.Load(ctx, "k")
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	_, err = storage.History(ctx, 10)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	assert.Error(t, storage.Ping(ctx))
	assert.NoError(t, storage.Close())
}

func TestParseHistoryEntry(t *testing.T) {
	entry := parseHistoryEntry(redis.XMessage{
		ID: "1700000000000-0",
		Values: map[string]interface{}{
			"key":      "weight_prediction/weight",
			"size":     "512",
			"saved_at": "2024-06-01T12:00:00Z",
		},
	})

	assert.Equal(t, "1700000000000-0", entry.ID)
	assert.Equal(t, "weight_prediction/weight", entry.Key)
	assert.Equal(t, 512, entry.Size)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), entry.SavedAt)
}

func TestRedisStorageIntegration(t *testing.T) {
	t.Skip("Integration test - requires running Redis instance")

	config := &RedisConfig{
		Addr: "localhost:6379",
		DB:   15, // Use test database
		TTL:  1 * time.Hour,
	}

	storage, err := NewRedisStorage(config, logrus.New())
	require.NoError(t, err)

	ctx := context.Background()

	err = storage.Connect(ctx)
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.Ping(ctx))

	payload := []byte(`{"name":"weight_prediction","metric":"weight"}`)
	require.NoError(t, storage.Save(ctx, "weight_prediction/weight", payload))

	loaded, err := storage.Load(ctx, "weight_prediction/weight")
	require.NoError(t, err)
	assert.Equal(t, payload, loaded)

	_, err = storage.Load(ctx, "missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestRedisStorageStreamsIntegration(t *testing.T) {
	t.Skip("Integration test - requires running Redis instance")

	config := &RedisConfig{
		Addr:         "localhost:6379",
		DB:           15,
		KeyPrefix:    "test",
		UseStreams:   true,
		StreamMaxLen: 100,
	}

	storage, err := NewRedisStorage(config, logrus.New())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, storage.Connect(ctx))
	defer storage.Close()

	require.NoError(t, storage.Save(ctx, "anomaly_detection/weight", []byte("{}")))
	require.NoError(t, storage.Save(ctx, "weight_prediction/weight", []byte("{}")))

	history, err := storage.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "weight_prediction/weight", history[0].Key)
}
