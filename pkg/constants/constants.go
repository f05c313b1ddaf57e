package constants

import "time"

// Application constants
const (
	// Application metadata
	AppName        = "healthtrack-server"
	AppDescription = "Personal health metrics insights service"
	AppVersion     = "0.1.0"

	// API constants
	APIVersion = "v1"
	APIPrefix  = "/api/v1"

	// Default configuration values
	DefaultPort            = 8080
	DefaultMetricsPort     = 9090
	DefaultHost            = "0.0.0.0"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultCORSOrigins     = "*"
	DefaultEnvPrefix       = "HEALTHTRACK"

	// Storage defaults
	DefaultStorageTimeout    = 30 * time.Second
	DefaultMaxConnections    = 25
	DefaultConnectionTimeout = 10 * time.Second
	DefaultModelDir          = "ml/models"
)

// Analytics defaults
const (
	// MinAnalysisPoints is the smallest series the forecast and anomaly models accept
	MinAnalysisPoints = 10

	DefaultAROrder        = 5
	DefaultDiffOrder      = 1
	DefaultMAOrder        = 0
	DefaultContamination  = 0.05
	DefaultForestTrees    = 100
	DefaultForestSamples  = 256
	DefaultForestSeed     = 42
	DefaultTrendWindow    = 3
	MinHorizonDays        = 1
	MaxHorizonDays        = 365
	DefaultHorizonDays    = 30
	DashboardHorizonDays  = 7
	DefaultDashboardDays  = 30
	DefaultSummaryDays    = 90
	RecommendationRecords = 30
)

// Recommendation thresholds
const (
	BMIUnderweight         = 18.5
	BMIOverweight          = 25.0
	BMILowNormal           = 20.0
	BodyFatHighPercent     = 25.0
	MuscleMassLowKg        = 30.0
	CentimetresPerMetre    = 100.0
	DailyWaterTargetLitres = 2.0
)

// Model artifact names, one per engine type
const (
	ArtifactWeightPrediction = "weight_prediction"
	ArtifactAnomalyDetection = "anomaly_detection"
)

// Record sources
const (
	SourceXiaomi = "xiaomi"
	SourceManual = "manual"
)

// HTTP headers
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderCacheControl  = "Cache-Control"
)

// Content types
const (
	ContentTypeJSON = "application/json"
)

// Log levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Record store backends
const (
	StorageTypeMemory      = "memory"
	StorageTypeFile        = "file"
	StorageTypeTimescaleDB = "timescaledb"
	StorageTypeInfluxDB    = "influxdb"
)

// Artifact store backends
const (
	ArtifactStoreNone  = "none"
	ArtifactStoreLocal = "local"
	ArtifactStoreRedis = "redis"
	ArtifactStoreS3    = "s3"
)
