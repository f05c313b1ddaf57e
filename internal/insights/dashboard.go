package insights

import (
	"context"
	"time"

	"github.com/inferloop/healthtrack/internal/analytics"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/models"
)

// Dashboard sections that may degrade independently
const (
	SectionPrediction      = "prediction"
	SectionRecommendations = "recommendations"
	sectionAnomalyPrefix   = "anomalies."
)

// Dashboard aggregates the window [now-days, now] into one payload. A failing
// anomaly, prediction or recommendation computation leaves its section empty
// and is reported in Errors; it never fails the aggregate.
func (s *Service) Dashboard(ctx context.Context, userID string, days int) (dashboard *models.Dashboard, err error) {
	defer s.observe("dashboard", time.Now(), &err)

	if err := validateDays(days); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	records, err := s.listRecords(ctx, userID, models.LastDays(now, days), 0)
	if err != nil {
		return nil, err
	}

	records, err = analytics.SortRecords(records)
	if err != nil {
		return nil, err
	}

	latest := records[len(records)-1]
	dashboard = &models.Dashboard{
		UserProfile:     profile,
		LatestMetrics:   &latest,
		DataPoints:      len(records),
		HealthData:      records,
		Anomalies:       make(map[models.Metric][]models.AnomalyPoint),
		Prediction:      []models.ForecastPoint{},
		Recommendations: []models.Recommendation{},
		Errors:          make(map[string]string),
		GeneratedAt:     now,
	}

	weights, err := analytics.PrepareSeries(records, models.MetricWeight)
	if err != nil {
		return nil, err
	}
	dashboard.WeightChange = WeightChange(weights)

	detector := s.anomalyDetector()
	for _, metric := range models.DashboardAnomalyMetrics() {
		dashboard.Anomalies[metric] = []models.AnomalyPoint{}

		series, err := analytics.PrepareSeries(records, metric)
		if err == nil {
			var result *models.AnomalyResult
			if result, err = detector.Detect(ctx, series); err == nil {
				dashboard.Anomalies[metric] = result.Anomalies
				continue
			}
		}
		s.degrade(dashboard, sectionAnomalyPrefix+string(metric), err)
	}

	if forecast, err := s.forecastEngine().Forecast(ctx, weights, constants.DashboardHorizonDays); err != nil {
		s.degrade(dashboard, SectionPrediction, err)
	} else {
		dashboard.Prediction = forecast.Predictions
	}

	if recs, err := s.recommendationEngine().Recommend(profile, records); err != nil {
		s.degrade(dashboard, SectionRecommendations, err)
	} else {
		dashboard.Recommendations = recs.Recommendations
	}

	return dashboard, nil
}

// WeightChange is the newest minus the oldest weight in the series, or nil
// with fewer than two weigh-ins
func WeightChange(weights *models.PreparedSeries) *float64 {
	if weights.Len() < 2 {
		return nil
	}
	first, _ := weights.First()
	last, _ := weights.Last()
	change := last.Value - first.Value
	return &change
}

func (s *Service) degrade(dashboard *models.Dashboard, section string, err error) {
	dashboard.Errors[section] = err.Error()
	s.logger.WithError(err).WithField("section", section).Debug("Dashboard section degraded")
	if s.recorder != nil {
		s.recorder.RecordDegradedSection(section)
	}
}
