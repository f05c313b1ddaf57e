package timescaledb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// TimescaleDBConfig holds configuration for TimescaleDB
type TimescaleDBConfig struct {
	Host              string        `json:"host" mapstructure:"host"`
	Port              int           `json:"port" mapstructure:"port"`
	Database          string        `json:"database" mapstructure:"database"`
	Username          string        `json:"username" mapstructure:"username"`
	Password          string        `json:"password" mapstructure:"password"`
	SSLMode           string        `json:"ssl_mode" mapstructure:"ssl_mode"`
	ConnectTimeout    time.Duration `json:"connect_timeout" mapstructure:"connect_timeout"`
	QueryTimeout      time.Duration `json:"query_timeout" mapstructure:"query_timeout"`
	MaxConnections    int           `json:"max_connections" mapstructure:"max_connections"`
	MaxIdleConns      int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ChunkTimeInterval string        `json:"chunk_time_interval" mapstructure:"chunk_time_interval"`
	CompressionPolicy bool          `json:"compression_policy" mapstructure:"compression_policy"`
	RetentionPolicy   string        `json:"retention_policy" mapstructure:"retention_policy"`
}

const (
	recordsTable  = "health_data"
	profilesTable = "users"
)

// metricColumns maps each metric to its health_data column, in vocabulary order
var metricColumns = func() []string {
	cols := make([]string, 0, len(models.AllMetrics()))
	for _, m := range models.AllMetrics() {
		cols = append(cols, string(m))
	}
	return cols
}()

// TimescaleDBStorage serves records and profiles from a Postgres/TimescaleDB database
type TimescaleDBStorage struct {
	config *TimescaleDBConfig
	db     *sql.DB
	logger *logrus.Logger
	mu     sync.RWMutex
	closed bool
}

// NewTimescaleDBStorage creates a new TimescaleDB storage instance
func NewTimescaleDBStorage(config *TimescaleDBConfig, logger *logrus.Logger) (*TimescaleDBStorage, error) {
	if config == nil {
		return nil, errors.NewStorageError(errors.CodeInvalidConfig, "TimescaleDB config cannot be nil")
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &TimescaleDBStorage{
		config: config,
		logger: logger,
	}, nil
}

// ConnectionString renders the lib/pq keyword/value DSN
func (c *TimescaleDBConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.Username,
		c.Password,
		c.Database,
		sslMode,
	)
}

// Connect establishes connection to TimescaleDB
func (ts *TimescaleDBStorage) Connect(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.db != nil {
		return nil // Already connected
	}

	db, err := sql.Open("postgres", ts.config.ConnectionString())
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to open database connection")
	}

	// Configure connection pool
	db.SetMaxOpenConns(ts.config.MaxConnections)
	db.SetMaxIdleConns(ts.config.MaxIdleConns)
	db.SetConnMaxLifetime(ts.config.ConnMaxLifetime)

	ctx, cancel := ts.withTimeout(ctx, ts.config.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to ping database")
	}

	ts.db = db
	ts.closed = false

	if err := ts.initializeSchema(ctx); err != nil {
		db.Close()
		ts.db = nil
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeStorageError, "Failed to initialize schema")
	}

	ts.logger.WithFields(logrus.Fields{
		"host":     ts.config.Host,
		"port":     ts.config.Port,
		"database": ts.config.Database,
	}).Info("Connected to TimescaleDB")

	return nil
}

// Close closes the database connection
func (ts *TimescaleDBStorage) Close() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.closed {
		return nil
	}

	if ts.db != nil {
		err := ts.db.Close()
		ts.db = nil
		ts.closed = true

		if err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeStorageError, "Failed to close database connection")
		}
	}

	ts.logger.Info("TimescaleDB connection closed")
	return nil
}

// Ping tests the database connection
func (ts *TimescaleDBStorage) Ping(ctx context.Context) error {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.closed || ts.db == nil {
		return errors.NewStorageError(errors.CodeNotConnected, "Database not connected")
	}

	ctx, cancel := ts.withTimeout(ctx, ts.config.QueryTimeout)
	defer cancel()

	if err := ts.db.PingContext(ctx); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Database ping failed")
	}

	return nil
}

// GetProfile returns the users row for userID
func (ts *TimescaleDBStorage) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.closed || ts.db == nil {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "Database not connected")
	}

	ctx, cancel := ts.withTimeout(ctx, ts.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT user_id, username, gender, birth_date, height FROM %s WHERE user_id = $1",
		pq.QuoteIdentifier(profilesTable))

	var (
		profile   models.UserProfile
		username  sql.NullString
		gender    sql.NullString
		birthDate sql.NullString
		height    sql.NullFloat64
	)

	err := ts.db.QueryRowContext(ctx, query, userID).Scan(&profile.UserID, &username, &gender, &birthDate, &height)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(errors.CodeUserNotFound, "user not found").WithContext("user_id", userID)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to read user profile")
	}

	profile.Username = username.String
	profile.Gender = gender.String
	profile.BirthDate = birthDate.String
	if height.Valid {
		profile.Height = models.Float(height.Float64)
	}

	return &profile, nil
}

// ListRecords returns the user's records inside tr, newest first
func (ts *TimescaleDBStorage) ListRecords(ctx context.Context, userID string, tr *models.TimeRange, limit int) ([]models.MetricRecord, error) {
	if !tr.Valid() {
		return nil, errors.NewValidationError(errors.CodeInvalidTimeRange, errors.ErrInvalidTimeRange.Error())
	}

	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.closed || ts.db == nil {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "Database not connected")
	}

	ctx, cancel := ts.withTimeout(ctx, ts.config.QueryTimeout)
	defer cancel()

	startOp := time.Now()
	query, args := buildListQuery(userID, tr, limit)

	rows, err := ts.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to query records")
	}
	defer rows.Close()

	var records []models.MetricRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to scan record")
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to iterate records")
	}

	ts.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"records":  len(records),
		"duration": time.Since(startOp),
	}).Debug("Listed records")

	return records, nil
}

// AddRecords inserts records for userID in a single transaction
func (ts *TimescaleDBStorage) AddRecords(ctx context.Context, userID string, records []models.MetricRecord) error {
	stamps := make([]time.Time, len(records))
	for i := range records {
		t, err := records[i].Timestamp()
		if err != nil {
			return errors.NewDataError(errors.CodeInvalidDate, "record has an unparseable date").WithDetails(err.Error())
		}
		stamps[i] = t
	}

	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.closed || ts.db == nil {
		return errors.NewStorageError(errors.CodeNotConnected, "Database not connected")
	}

	ctx, cancel := ts.withTimeout(ctx, ts.config.QueryTimeout)
	defer cancel()

	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery())
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to prepare insert")
	}
	defer stmt.Close()

	for i, record := range records {
		if _, err := stmt.ExecContext(ctx, insertArgs(userID, stamps[i], record)...); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to insert record")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to commit transaction")
	}

	ts.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"records": len(records),
	}).Debug("Inserted records")

	return nil
}

// buildListQuery renders the select for ListRecords with positional arguments
func buildListQuery(userID string, tr *models.TimeRange, limit int) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{userID}

	fmt.Fprintf(&sb, "SELECT id, user_id, date, source, %s FROM %s WHERE user_id = $1",
		strings.Join(metricColumns, ", "), pq.QuoteIdentifier(recordsTable))

	if tr != nil && !tr.Start.IsZero() {
		args = append(args, tr.Start)
		fmt.Fprintf(&sb, " AND date >= $%d", len(args))
	}
	if tr != nil && !tr.End.IsZero() {
		args = append(args, tr.End)
		fmt.Fprintf(&sb, " AND date <= $%d", len(args))
	}

	sb.WriteString(" ORDER BY date DESC")

	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	return sb.String(), args
}

func insertQuery() string {
	columns := append([]string{"user_id", "date", "source"}, metricColumns...)
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(recordsTable),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))
}

func insertArgs(userID string, date time.Time, record models.MetricRecord) []interface{} {
	args := []interface{}{userID, date, nullString(record.Source)}
	for _, m := range models.AllMetrics() {
		if v, ok := record.Value(m); ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	return args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.MetricRecord, error) {
	var (
		record models.MetricRecord
		date   time.Time
		source sql.NullString
	)

	values := make([]sql.NullFloat64, len(metricColumns))
	dest := []interface{}{&record.ID, &record.UserID, &date, &source}
	for i := range values {
		dest = append(dest, &values[i])
	}

	if err := row.Scan(dest...); err != nil {
		return models.MetricRecord{}, err
	}

	record.Date = models.FormatDate(date)
	record.Source = source.String
	for i, m := range models.AllMetrics() {
		if values[i].Valid {
			record = record.WithValue(m, values[i].Float64)
		}
	}

	return record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (ts *TimescaleDBStorage) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (ts *TimescaleDBStorage) initializeSchema(ctx context.Context) error {
	if _, err := ts.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE"); err != nil {
		// Plain Postgres works too, without hypertables
		ts.logger.WithError(err).Warn("TimescaleDB extension unavailable")
	}

	usersSchema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		user_id VARCHAR(255) PRIMARY KEY,
		username VARCHAR(255),
		gender VARCHAR(32),
		birth_date VARCHAR(32),
		height DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, pq.QuoteIdentifier(profilesTable))

	if _, err := ts.db.ExecContext(ctx, usersSchema); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	metricDefs := make([]string, len(metricColumns))
	for i, col := range metricColumns {
		metricDefs[i] = fmt.Sprintf("\t\t%s DOUBLE PRECISION", col)
	}

	recordsSchema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL,
		user_id VARCHAR(255) NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		source VARCHAR(32),
%s
	)`, pq.QuoteIdentifier(recordsTable), strings.Join(metricDefs, ",\n"))

	if _, err := ts.db.ExecContext(ctx, recordsSchema); err != nil {
		return fmt.Errorf("failed to create health_data table: %w", err)
	}

	interval := ts.config.ChunkTimeInterval
	if interval == "" {
		interval = "7 days"
	}

	hypertableQuery := fmt.Sprintf(`
	SELECT create_hypertable('%s', 'date',
		chunk_time_interval => INTERVAL %s,
		if_not_exists => TRUE
	)`, recordsTable, pq.QuoteLiteral(interval))

	if _, err := ts.db.ExecContext(ctx, hypertableQuery); err != nil {
		ts.logger.WithError(err).Warn("Failed to create hypertable, table might already exist")
	}

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_health_data_user_date ON %s (user_id, date DESC)", pq.QuoteIdentifier(recordsTable)),
	}

	for _, index := range indexes {
		if _, err := ts.db.ExecContext(ctx, index); err != nil {
			ts.logger.WithError(err).Warn("Failed to create index")
		}
	}

	if ts.config.CompressionPolicy {
		compressionQuery := fmt.Sprintf(`SELECT add_compression_policy('%s', INTERVAL '30 days', if_not_exists => TRUE)`, recordsTable)
		if _, err := ts.db.ExecContext(ctx, compressionQuery); err != nil {
			ts.logger.WithError(err).Warn("Failed to setup compression policy")
		}
	}

	if ts.config.RetentionPolicy != "" {
		retentionQuery := fmt.Sprintf(`SELECT add_retention_policy('%s', INTERVAL %s, if_not_exists => TRUE)`,
			recordsTable, pq.QuoteLiteral(ts.config.RetentionPolicy))
		if _, err := ts.db.ExecContext(ctx, retentionQuery); err != nil {
			ts.logger.WithError(err).Warn("Failed to setup retention policy")
		}
	}

	return nil
}
