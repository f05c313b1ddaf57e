package models

import "time"

// ForecastPoint is one predicted daily value
type ForecastPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"predicted_weight"`
}

// ModelOrder is an ARIMA (p, d, q) order
type ModelOrder struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// ForecastResult is the output of a forecast
type ForecastResult struct {
	Metric              Metric          `json:"metric"`
	Predictions         []ForecastPoint `json:"predictions"`
	CurrentWeight       float64         `json:"current_weight"`
	PredictionEndWeight float64         `json:"prediction_end_weight"`
	WeightChange        float64         `json:"weight_change"`
	Order               ModelOrder      `json:"order"`
	Coefficients        []float64       `json:"coefficients,omitempty"`
}

// AnomalyPoint is a flagged observation
type AnomalyPoint struct {
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	Deviation float64 `json:"deviation"`
}

// AnomalyResult is the output of anomaly detection on one metric
type AnomalyResult struct {
	Metric       Metric         `json:"metric"`
	Anomalies    []AnomalyPoint `json:"anomalies"`
	AnomalyCount int            `json:"anomaly_count"`
	TotalRecords int            `json:"total_records"`
	MetricMean   float64        `json:"metric_mean"`
	MetricStd    float64        `json:"metric_std"`
}

// Recommendation categories
const (
	CategoryNutrition = "nutrition"
	CategoryExercise  = "exercise"
	CategoryLifestyle = "lifestyle"
	CategoryHydration = "hydration"
)

// Weight trends
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Recommendation is one piece of advice
type Recommendation struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RecommendationResult is the ordered advice list with its inputs
type RecommendationResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	BMI             *float64         `json:"bmi"`
	WeightTrend     *string          `json:"weight_trend"`
}

// MetricStats summarizes one metric over a window
type MetricStats struct {
	Current       float64  `json:"current"`
	Min           float64  `json:"min"`
	Max           float64  `json:"max"`
	Avg           float64  `json:"avg"`
	Change        float64  `json:"change"`
	ChangePercent *float64 `json:"change_percent"`
	Count         int      `json:"count"`
}

// OverallStats describes the record set itself
type OverallStats struct {
	TotalRecords    int    `json:"total_records"`
	FirstRecordDate string `json:"first_record_date,omitempty"`
	LastRecordDate  string `json:"last_record_date,omitempty"`
}

// MetricSummary holds per-metric window statistics
type MetricSummary struct {
	Metrics map[Metric]MetricStats `json:"metrics"`
	Overall OverallStats           `json:"overall"`
}

// Dashboard aggregates every insight for a window
type Dashboard struct {
	UserProfile     *UserProfile              `json:"user_profile"`
	LatestMetrics   *MetricRecord             `json:"latest_metrics"`
	WeightChange    *float64                  `json:"weight_change"`
	DataPoints      int                       `json:"data_points"`
	HealthData      []MetricRecord            `json:"health_data"`
	Anomalies       map[Metric][]AnomalyPoint `json:"anomalies"`
	Prediction      []ForecastPoint           `json:"prediction"`
	Recommendations []Recommendation          `json:"recommendations"`
	Errors          map[string]string         `json:"errors,omitempty"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// ModelArtifact is the persisted description of a fitted model
type ModelArtifact struct {
	Name       string                 `json:"name"`
	Metric     Metric                 `json:"metric"`
	FittedAt   time.Time              `json:"fitted_at"`
	DataPoints int                    `json:"data_points"`
	Parameters map[string]interface{} `json:"parameters"`
}
