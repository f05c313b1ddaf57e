package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/errors"
)

// RedisConfig holds configuration for the Redis artifact store
type RedisConfig struct {
	Addr          string        `json:"addr" mapstructure:"addr"`
	Password      string        `json:"password" mapstructure:"password"`
	DB            int           `json:"db" mapstructure:"db"`
	DialTimeout   time.Duration `json:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
	PoolSize      int           `json:"pool_size" mapstructure:"pool_size"`
	MinIdleConns  int           `json:"min_idle_conns" mapstructure:"min_idle_conns"`
	MaxRetries    int           `json:"max_retries" mapstructure:"max_retries"`
	IdleTimeout   time.Duration `json:"idle_timeout" mapstructure:"idle_timeout"`
	TTL           time.Duration `json:"ttl" mapstructure:"ttl"`
	KeyPrefix     string        `json:"key_prefix" mapstructure:"key_prefix"`
	UseStreams    bool          `json:"use_streams" mapstructure:"use_streams"`
	StreamMaxLen  int64         `json:"stream_max_len" mapstructure:"stream_max_len"`
	UseClustering bool          `json:"use_clustering" mapstructure:"use_clustering"`
	ClusterAddrs  []string      `json:"cluster_addrs" mapstructure:"cluster_addrs"`
}

// HistoryEntry is one save event from the artifact history stream
type HistoryEntry struct {
	ID      string    `json:"id"`
	Key     string    `json:"key"`
	Size    int       `json:"size"`
	SavedAt time.Time `json:"saved_at"`
}

// RedisStorage keeps model artifacts as plain string values. When streams
// are enabled every save is also appended to a capped history stream.
type RedisStorage struct {
	config *RedisConfig
	client redis.UniversalClient
	logger *logrus.Logger
	mu     sync.RWMutex
	closed bool
}

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(config *RedisConfig, logger *logrus.Logger) (*RedisStorage, error) {
	if config == nil {
		return nil, errors.NewStorageError(errors.CodeInvalidConfig, "Redis config cannot be nil")
	}

	if config.Addr == "" && len(config.ClusterAddrs) == 0 {
		return nil, errors.NewStorageError(errors.CodeInvalidConfig, "Redis address or cluster addresses are required")
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &RedisStorage{
		config: config,
		logger: logger,
	}, nil
}

// Connect establishes connection to Redis
func (r *RedisStorage) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return nil // Already connected
	}

	var client redis.UniversalClient

	if r.config.UseClustering && len(r.config.ClusterAddrs) > 0 {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        r.config.ClusterAddrs,
			Password:     r.config.Password,
			DialTimeout:  r.config.DialTimeout,
			ReadTimeout:  r.config.ReadTimeout,
			WriteTimeout: r.config.WriteTimeout,
			PoolSize:     r.config.PoolSize,
			MinIdleConns: r.config.MinIdleConns,
			MaxRetries:   r.config.MaxRetries,
			IdleTimeout:  r.config.IdleTimeout,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:         r.config.Addr,
			Password:     r.config.Password,
			DB:           r.config.DB,
			DialTimeout:  r.config.DialTimeout,
			ReadTimeout:  r.config.ReadTimeout,
			WriteTimeout: r.config.WriteTimeout,
			PoolSize:     r.config.PoolSize,
			MinIdleConns: r.config.MinIdleConns,
			MaxRetries:   r.config.MaxRetries,
			IdleTimeout:  r.config.IdleTimeout,
		})
	}

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to connect to Redis")
	}

	r.client = client
	r.closed = false

	r.logger.WithFields(logrus.Fields{
		"addr":       r.config.Addr,
		"db":         r.config.DB,
		"clustering": r.config.UseClustering,
	}).Info("Connected to Redis")

	return nil
}

// Close closes the Redis connection
func (r *RedisStorage) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	if r.client != nil {
		err := r.client.Close()
		r.client = nil
		r.closed = true

		if err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeStorageError, "Failed to close Redis connection")
		}
	}

	r.logger.Info("Redis connection closed")
	return nil
}

// Ping tests the Redis connection
func (r *RedisStorage) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed || r.client == nil {
		return errors.NewStorageError(errors.CodeNotConnected, "Redis not connected")
	}

	if _, err := r.client.Ping(ctx).Result(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Redis ping failed")
	}

	return nil
}

// Save stores data under key with the configured TTL
func (r *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed || r.client == nil {
		return errors.NewStorageError(errors.CodeNotConnected, "Redis not connected")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.generateArtifactKey(key), data, r.config.TTL)

	if r.config.UseStreams {
		args := &redis.XAddArgs{
			Stream: r.generateStreamKey(),
			Values: map[string]interface{}{
				"key":      key,
				"size":     len(data),
				"saved_at": time.Now().UTC().Format(time.RFC3339Nano),
			},
		}
		if r.config.StreamMaxLen > 0 {
			args.MaxLen = r.config.StreamMaxLen
			args.Approx = true
		}
		pipe.XAdd(ctx, args)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to save artifact to Redis").
			WithContext("key", key)
	}

	r.logger.WithFields(logrus.Fields{
		"key":  key,
		"size": len(data),
		"ttl":  r.config.TTL,
	}).Debug("Saved artifact to Redis")

	return nil
}

// Load returns the data stored under key
func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed || r.client == nil {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "Redis not connected")
	}

	data, err := r.client.Get(ctx, r.generateArtifactKey(key)).Bytes()
	if err == redis.Nil {
		return nil, errors.NewNotFoundError(errors.CodeNoData, "artifact not found").WithContext("key", key)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to load artifact from Redis").
			WithContext("key", key)
	}

	return data, nil
}

// History returns up to count recent save events, newest first
func (r *RedisStorage) History(ctx context.Context, count int64) ([]HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed || r.client == nil {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "Redis not connected")
	}

	if !r.config.UseStreams {
		return nil, errors.NewValidationError(errors.CodeInvalidConfig, "artifact history requires use_streams")
	}

	messages, err := r.client.XRevRangeN(ctx, r.generateStreamKey(), "+", "-", count).Result()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to read artifact history")
	}

	entries := make([]HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, parseHistoryEntry(msg))
	}

	return entries, nil
}

func parseHistoryEntry(msg redis.XMessage) HistoryEntry {
	entry := HistoryEntry{ID: msg.ID}
	entry.Key, _ = msg.Values["key"].(string)

	if size, ok := msg.Values["size"].(string); ok {
		fmt.Sscanf(size, "%d", &entry.Size)
	}
	if savedAt, ok := msg.Values["saved_at"].(string); ok {
		entry.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	}

	return entry
}

func (r *RedisStorage) generateArtifactKey(key string) string {
	if r.config.KeyPrefix != "" {
		return fmt.Sprintf("%s:artifact:%s", r.config.KeyPrefix, key)
	}
	return fmt.Sprintf("artifact:%s", key)
}

func (r *RedisStorage) generateStreamKey() string {
	if r.config.KeyPrefix != "" {
		return fmt.Sprintf("%s:stream:artifacts", r.config.KeyPrefix)
	}
	return "stream:artifacts"
}
