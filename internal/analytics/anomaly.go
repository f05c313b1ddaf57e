package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	mathutil "github.com/inferloop/healthtrack/internal/utils/math"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

// AnomalyDetector flags outlying readings with an isolation forest
type AnomalyDetector struct {
	config    *Config
	artifacts interfaces.ArtifactStore
	logger    *logrus.Logger
	now       func() time.Time
}

// NewAnomalyDetector creates a new anomaly detector. artifacts may be nil.
func NewAnomalyDetector(config *Config, artifacts interfaces.ArtifactStore, logger *logrus.Logger) *AnomalyDetector {
	if logger == nil {
		logger = logrus.New()
	}

	return &AnomalyDetector{
		config:    config.orDefault(),
		artifacts: artifacts,
		logger:    logger,
		now:       time.Now,
	}
}

// Detect scores every point and flags those above the contamination quantile.
// Deviation is |value - mean| / std using the population standard deviation,
// and is reported as 0 when the series has no spread.
func (d *AnomalyDetector) Detect(ctx context.Context, series *models.PreparedSeries) (*models.AnomalyResult, error) {
	if series.Len() < d.config.MinDataPoints {
		return nil, errors.NewInsufficientDataError(
			fmt.Sprintf("at least %d data points are required for anomaly detection, got %d", d.config.MinDataPoints, series.Len()))
	}

	values := series.Values()
	if !mathutil.AllFinite(values) {
		return nil, errors.NewModelFitError("isolation_forest", fmt.Errorf("series contains non-finite values"))
	}

	forest := NewIsolationForest(d.config.Trees, d.config.SubsampleSize, d.config.Seed)
	forest.Fit(values)
	scores := forest.ScoreAll(values)
	threshold := mathutil.Quantile(scores, 1-d.config.Contamination)

	mean, std := mathutil.PopulationStdDev(values)

	result := &models.AnomalyResult{
		Metric:       series.Metric,
		Anomalies:    []models.AnomalyPoint{},
		TotalRecords: len(values),
		MetricMean:   mean,
		MetricStd:    std,
	}

	for i, point := range series.Points {
		if scores[i] <= threshold {
			continue
		}

		deviation := 0.0
		if std > 0 {
			deviation = math.Abs(point.Value-mean) / std
		}

		result.Anomalies = append(result.Anomalies, models.AnomalyPoint{
			Date:      point.Timestamp.Format(time.RFC3339),
			Value:     point.Value,
			Deviation: deviation,
		})
	}
	result.AnomalyCount = len(result.Anomalies)

	d.logger.WithFields(logrus.Fields{
		"metric":    series.Metric,
		"points":    len(values),
		"anomalies": result.AnomalyCount,
		"threshold": threshold,
	}).Info("Anomaly detection completed")

	saveArtifact(ctx, d.artifacts, d.logger, &models.ModelArtifact{
		Name:       constants.ArtifactAnomalyDetection,
		Metric:     series.Metric,
		FittedAt:   d.now(),
		DataPoints: len(values),
		Parameters: map[string]interface{}{
			"trees":          d.config.Trees,
			"subsample_size": d.config.SubsampleSize,
			"contamination":  d.config.Contamination,
			"seed":           d.config.Seed,
			"threshold":      threshold,
			"mean":           mean,
			"std":            std,
		},
	})

	return result, nil
}
