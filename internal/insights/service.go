package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/internal/analytics"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

// Recorder receives per-operation analytics measurements
type Recorder interface {
	RecordAnalysis(operation, status string, duration time.Duration)
	RecordAnomalies(metric string, count int)
	RecordDegradedSection(section string)
}

// Service composes the analytics engines into the insight use cases.
// Engines are built per call so no fitted state is shared between requests.
type Service struct {
	records   interfaces.RecordStore
	profiles  interfaces.ProfileProvider
	artifacts interfaces.ArtifactStore
	config    *analytics.Config
	recorder  Recorder
	logger    *logrus.Logger
	now       func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithArtifactStore sets where fitted models are saved
func WithArtifactStore(store interfaces.ArtifactStore) Option {
	return func(s *Service) { s.artifacts = store }
}

// WithRecorder sets the metrics sink
func WithRecorder(recorder Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new insights service
func NewService(records interfaces.RecordStore, profiles interfaces.ProfileProvider, config *analytics.Config, logger *logrus.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	if config == nil {
		config = analytics.DefaultConfig()
	}

	s := &Service{
		records:  records,
		profiles: profiles,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) forecastEngine() *analytics.ForecastEngine {
	return analytics.NewForecastEngine(s.config, s.artifacts, s.logger).WithClock(s.now)
}

func (s *Service) anomalyDetector() *analytics.AnomalyDetector {
	return analytics.NewAnomalyDetector(s.config, s.artifacts, s.logger)
}

func (s *Service) recommendationEngine() *analytics.RecommendationEngine {
	return analytics.NewRecommendationEngine(s.config, s.logger)
}

// PredictWeight forecasts the user's weight for the next days
func (s *Service) PredictWeight(ctx context.Context, userID string, days int) (result *models.ForecastResult, err error) {
	defer s.observe("predict_weight", time.Now(), &err)

	if err := validateDays(days); err != nil {
		return nil, err
	}

	records, err := s.listRecords(ctx, userID, nil, 0)
	if err != nil {
		return nil, err
	}

	series, err := analytics.PrepareSeries(records, models.MetricWeight)
	if err != nil {
		return nil, err
	}

	return s.forecastEngine().Forecast(ctx, series, days)
}

// DetectAnomalies flags outlying readings of metric
func (s *Service) DetectAnomalies(ctx context.Context, userID string, metric models.Metric) (result *models.AnomalyResult, err error) {
	defer s.observe("detect_anomalies", time.Now(), &err)

	if !models.IsAnalyzable(metric) {
		return nil, errors.NewValidationError(errors.CodeInvalidMetric,
			fmt.Sprintf("invalid metric %q", metric)).WithContext("valid_metrics", models.AnalyzableMetrics())
	}

	records, err := s.listRecords(ctx, userID, nil, 0)
	if err != nil {
		return nil, err
	}

	series, err := analytics.PrepareSeries(records, metric)
	if err != nil {
		return nil, err
	}

	result, err = s.anomalyDetector().Detect(ctx, series)
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordAnomalies(string(metric), result.AnomalyCount)
	}
	return result, nil
}

// Recommendations evaluates the advice rules on the latest records
func (s *Service) Recommendations(ctx context.Context, userID string) (result *models.RecommendationResult, err error) {
	defer s.observe("recommendations", time.Now(), &err)

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.listRecords(ctx, userID, nil, constants.RecommendationRecords)
	if err != nil {
		return nil, err
	}

	return s.recommendationEngine().Recommend(profile, records)
}

// Summary computes per-metric statistics for the last days
func (s *Service) Summary(ctx context.Context, userID string, days int) (result *models.MetricSummary, err error) {
	defer s.observe("summary", time.Now(), &err)

	if err := validateDays(days); err != nil {
		return nil, err
	}

	records, err := s.listRecords(ctx, userID, models.LastDays(s.now(), days), 0)
	if err != nil {
		return nil, err
	}

	return analytics.SummarizeMetrics(records)
}

func (s *Service) listRecords(ctx context.Context, userID string, window *models.TimeRange, limit int) ([]models.MetricRecord, error) {
	records, err := s.records.ListRecords(ctx, userID, window, limit)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewNotFoundError(errors.CodeNoData, "no health data found")
	}
	return records, nil
}

func (s *Service) observe(operation string, start time.Time, errp *error) {
	status := "success"
	if errp != nil && *errp != nil {
		status = errorStatus(*errp)
		s.logger.WithError(*errp).WithField("operation", operation).Warn("Insight computation failed")
	}

	if s.recorder != nil {
		s.recorder.RecordAnalysis(operation, status, time.Since(start))
	}
}

func errorStatus(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Type)
	}
	return string(errors.ErrorTypeInternal)
}

func validateDays(days int) error {
	if days < constants.MinHorizonDays || days > constants.MaxHorizonDays {
		return errors.NewValidationError(errors.CodeOutOfRange,
			fmt.Sprintf("days must be between %d and %d", constants.MinHorizonDays, constants.MaxHorizonDays)).
			WithContext("days", days)
	}
	return nil
}
