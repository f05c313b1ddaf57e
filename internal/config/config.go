package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/inferloop/healthtrack/internal/analytics"
	"github.com/inferloop/healthtrack/internal/api"
	"github.com/inferloop/healthtrack/internal/observability/metrics"
	"github.com/inferloop/healthtrack/internal/server"
	"github.com/inferloop/healthtrack/internal/storage"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
)

// Config is the complete service configuration
type Config struct {
	Environment string                   `mapstructure:"environment" json:"environment" yaml:"environment"`
	Server      server.Config            `mapstructure:"server" json:"server" yaml:"server"`
	HTTP        api.MiddlewareConfig     `mapstructure:"http" json:"http" yaml:"http"`
	Log         LogConfig                `mapstructure:"log" json:"log" yaml:"log"`
	Metrics     metrics.PrometheusConfig `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
	Storage     storage.Config           `mapstructure:"storage" json:"storage" yaml:"storage"`
	Artifacts   storage.ArtifactConfig   `mapstructure:"artifacts" json:"artifacts" yaml:"artifacts"`
	Analytics   analytics.Config         `mapstructure:"analytics" json:"analytics" yaml:"analytics"`
}

// LogConfig configures the logrus logger
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// Load reads configuration from, in increasing precedence: built-in
// defaults, the config file, a .env file and HEALTHTRACK_* environment
// variables. An empty path searches ./config.yaml and /etc/healthtrack.
func Load(path string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/healthtrack")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeInvalidConfig, "error reading config file")
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeInvalidConfig, "error unmarshaling config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Log.Level {
	case constants.LogLevelDebug, constants.LogLevelInfo, constants.LogLevelWarn, constants.LogLevelError:
	default:
		return errors.NewConfigurationError(errors.CodeInvalidConfig, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	switch c.Log.Format {
	case constants.LogFormatJSON, constants.LogFormatText:
	default:
		return errors.NewConfigurationError(errors.CodeInvalidConfig, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.NewConfigurationError(errors.CodeInvalidConfig, fmt.Sprintf("invalid server port %d", c.Server.Port))
	}

	if c.Metrics.Enabled && c.Metrics.Port != 0 && c.Metrics.Port == c.Server.Port {
		return errors.NewConfigurationError(errors.CodeInvalidConfig, "metrics port must differ from server port; use 0 to serve metrics on the API port")
	}

	if c.Storage.Type == "" {
		return errors.NewConfigurationError(errors.CodeInvalidConfig, "storage.type is required")
	}

	return c.Analytics.Validate()
}

func setDefaults(v *viper.Viper) {
	srv := server.DefaultConfig()
	v.SetDefault("environment", "development")
	v.SetDefault("server.host", srv.Host)
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.idle_timeout", srv.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)
	v.SetDefault("server.tls_cert_file", "")
	v.SetDefault("server.tls_key_file", "")

	mw := api.DefaultMiddlewareConfig()
	v.SetDefault("http.enable_logging", mw.EnableLogging)
	v.SetDefault("http.enable_cors", mw.EnableCORS)
	v.SetDefault("http.enable_security", mw.EnableSecurity)
	v.SetDefault("http.allowed_origins", mw.AllowedOrigins)

	v.SetDefault("log.level", constants.DefaultLogLevel)
	v.SetDefault("log.format", constants.DefaultLogFormat)

	pm := metrics.DefaultPrometheusConfig()
	v.SetDefault("metrics.enabled", pm.Enabled)
	v.SetDefault("metrics.port", pm.Port)
	v.SetDefault("metrics.path", pm.Path)
	v.SetDefault("metrics.namespace", pm.Namespace)
	v.SetDefault("metrics.subsystem", pm.Subsystem)

	v.SetDefault("storage.type", constants.StorageTypeMemory)
	v.SetDefault("storage.file.base_path", "./data")
	v.SetDefault("storage.file.create_dirs", true)
	v.SetDefault("storage.file.indent", true)

	v.SetDefault("storage.timescaledb.host", "localhost")
	v.SetDefault("storage.timescaledb.port", 5432)
	v.SetDefault("storage.timescaledb.database", "healthtrack")
	v.SetDefault("storage.timescaledb.username", "postgres")
	v.SetDefault("storage.timescaledb.password", "")
	v.SetDefault("storage.timescaledb.ssl_mode", "disable")
	v.SetDefault("storage.timescaledb.connect_timeout", constants.DefaultConnectionTimeout)
	v.SetDefault("storage.timescaledb.query_timeout", constants.DefaultStorageTimeout)
	v.SetDefault("storage.timescaledb.max_connections", constants.DefaultMaxConnections)
	v.SetDefault("storage.timescaledb.max_idle_conns", 5)
	v.SetDefault("storage.timescaledb.conn_max_lifetime", "1h")
	v.SetDefault("storage.timescaledb.chunk_time_interval", "7 days")
	v.SetDefault("storage.timescaledb.compression_policy", false)
	v.SetDefault("storage.timescaledb.retention_policy", "")

	v.SetDefault("storage.influxdb.url", "http://localhost:8086")
	v.SetDefault("storage.influxdb.token", "")
	v.SetDefault("storage.influxdb.organization", "healthtrack")
	v.SetDefault("storage.influxdb.bucket", "health")
	v.SetDefault("storage.influxdb.timeout", constants.DefaultStorageTimeout)
	v.SetDefault("storage.influxdb.batch_size", 1000)
	v.SetDefault("storage.influxdb.use_gzip", false)

	v.SetDefault("artifacts.type", constants.ArtifactStoreLocal)
	v.SetDefault("artifacts.local.path", constants.DefaultModelDir)

	v.SetDefault("artifacts.redis.addr", "localhost:6379")
	v.SetDefault("artifacts.redis.password", "")
	v.SetDefault("artifacts.redis.db", 0)
	v.SetDefault("artifacts.redis.dial_timeout", "5s")
	v.SetDefault("artifacts.redis.read_timeout", "3s")
	v.SetDefault("artifacts.redis.write_timeout", "3s")
	v.SetDefault("artifacts.redis.pool_size", 10)
	v.SetDefault("artifacts.redis.ttl", "0s")
	v.SetDefault("artifacts.redis.key_prefix", "healthtrack")
	v.SetDefault("artifacts.redis.use_streams", true)
	v.SetDefault("artifacts.redis.stream_max_len", 1000)
	v.SetDefault("artifacts.redis.use_clustering", false)
	v.SetDefault("artifacts.redis.cluster_addrs", []string{})

	v.SetDefault("artifacts.s3.region", "us-east-1")
	v.SetDefault("artifacts.s3.bucket", "")
	v.SetDefault("artifacts.s3.access_key_id", "")
	v.SetDefault("artifacts.s3.secret_access_key", "")
	v.SetDefault("artifacts.s3.endpoint", "")
	v.SetDefault("artifacts.s3.force_path_style", false)
	v.SetDefault("artifacts.s3.prefix", "healthtrack")
	v.SetDefault("artifacts.s3.timeout", constants.DefaultStorageTimeout)
	v.SetDefault("artifacts.s3.use_compression", true)
	v.SetDefault("artifacts.s3.storage_class", "STANDARD")

	ac := analytics.DefaultConfig()
	v.SetDefault("analytics.min_data_points", ac.MinDataPoints)
	v.SetDefault("analytics.ar_order", ac.AROrder)
	v.SetDefault("analytics.diff_order", ac.DiffOrder)
	v.SetDefault("analytics.ma_order", ac.MAOrder)
	v.SetDefault("analytics.contamination", ac.Contamination)
	v.SetDefault("analytics.trees", ac.Trees)
	v.SetDefault("analytics.subsample_size", ac.SubsampleSize)
	v.SetDefault("analytics.seed", ac.Seed)
	v.SetDefault("analytics.trend_window", ac.TrendWindow)
}
