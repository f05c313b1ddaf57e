package models

// Metric names a numeric health measurement
type Metric string

const (
	// Smart-scale metrics
	MetricWeight          Metric = "weight"
	MetricBMI             Metric = "bmi"
	MetricBodyFat         Metric = "body_fat"
	MetricMuscleMass      Metric = "muscle_mass"
	MetricWater           Metric = "water"
	MetricVisceralFat     Metric = "visceral_fat"
	MetricBoneMass        Metric = "bone_mass"
	MetricBasalMetabolism Metric = "basal_metabolism"
	MetricProtein         Metric = "protein"

	// Manual-entry metrics
	MetricCaloriesConsumed Metric = "calories_consumed"
	MetricCaloriesBurned   Metric = "calories_burned"
	MetricSteps            Metric = "steps"
	MetricSleepHours       Metric = "sleep_hours"
	MetricWaterIntake      Metric = "water_intake"
)

var allMetrics = []Metric{
	MetricWeight,
	MetricBMI,
	MetricBodyFat,
	MetricMuscleMass,
	MetricWater,
	MetricVisceralFat,
	MetricBoneMass,
	MetricBasalMetabolism,
	MetricProtein,
	MetricCaloriesConsumed,
	MetricCaloriesBurned,
	MetricSteps,
	MetricSleepHours,
	MetricWaterIntake,
}

// AllMetrics returns the full metric vocabulary in canonical order
func AllMetrics() []Metric {
	out := make([]Metric, len(allMetrics))
	copy(out, allMetrics)
	return out
}

// AnalyzableMetrics returns the scale metrics that anomaly detection accepts
func AnalyzableMetrics() []Metric {
	out := make([]Metric, 9)
	copy(out, allMetrics[:9])
	return out
}

// DashboardAnomalyMetrics are the metrics checked for outliers on the dashboard
func DashboardAnomalyMetrics() []Metric {
	return []Metric{MetricWeight, MetricBodyFat, MetricMuscleMass}
}

// IsValidMetric reports whether m belongs to the vocabulary
func IsValidMetric(m Metric) bool {
	for _, known := range allMetrics {
		if known == m {
			return true
		}
	}
	return false
}

// IsAnalyzable reports whether m is a scale metric
func IsAnalyzable(m Metric) bool {
	for _, known := range allMetrics[:9] {
		if known == m {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (m Metric) String() string {
	return string(m)
}
