package analytics

import (
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// Recommendation catalogue
var (
	RecIncreaseCalories = models.Recommendation{
		Category:    models.CategoryNutrition,
		Title:       "Increase Caloric Intake",
		Description: "Your BMI is below the healthy range. Consider increasing your daily caloric intake with nutrient-dense foods.",
	}
	RecIncreaseActivity = models.Recommendation{
		Category:    models.CategoryExercise,
		Title:       "Increase Physical Activity",
		Description: "Your BMI indicates you may benefit from increased physical activity. Aim for at least 150 minutes of moderate exercise per week.",
	}
	RecMonitorCalories = models.Recommendation{
		Category:    models.CategoryNutrition,
		Title:       "Monitor Caloric Intake",
		Description: "Consider tracking your daily caloric intake to maintain a slight deficit for healthy weight loss.",
	}
	RecStrengthTraining = models.Recommendation{
		Category:    models.CategoryExercise,
		Title:       "Strength Training",
		Description: "Your body fat percentage may benefit from regular strength training. Aim for 2-3 sessions per week.",
	}
	RecProteinIntake = models.Recommendation{
		Category:    models.CategoryNutrition,
		Title:       "Protein Intake",
		Description: "Consider increasing your protein intake to support muscle development. Aim for 1.6-2.2g per kg of body weight.",
	}
	RecWeightManagement = models.Recommendation{
		Category:    models.CategoryLifestyle,
		Title:       "Weight Management",
		Description: "Your weight has been increasing. Consider reviewing your diet and activity levels.",
	}
	RecWeightMaintenance = models.Recommendation{
		Category:    models.CategoryNutrition,
		Title:       "Healthy Weight Maintenance",
		Description: "Your weight has been decreasing. Ensure you're maintaining adequate nutrition for your activity level.",
	}
	RecStayHydrated = models.Recommendation{
		Category:    models.CategoryHydration,
		Title:       "Stay Hydrated",
		Description: "Remember to drink at least 2 liters of water daily for optimal health.",
	}
)

// RecommendationEngine evaluates the fixed advice rules
type RecommendationEngine struct {
	config *Config
	logger *logrus.Logger
}

// NewRecommendationEngine creates a new recommendation engine
func NewRecommendationEngine(config *Config, logger *logrus.Logger) *RecommendationEngine {
	if logger == nil {
		logger = logrus.New()
	}

	return &RecommendationEngine{
		config: config.orDefault(),
		logger: logger,
	}
}

// Recommend evaluates the rules against profile and records. Rules are
// appended in a fixed order and the hydration reminder always comes last.
// BMI, body fat and muscle mass are read from the chronologically newest
// record; a reading missing there skips its rule.
func (e *RecommendationEngine) Recommend(profile *models.UserProfile, records []models.MetricRecord) (*models.RecommendationResult, error) {
	weights, err := PrepareSeries(records, models.MetricWeight)
	if err != nil {
		return nil, err
	}
	if weights.Len() == 0 {
		return nil, errors.NewInsufficientDataError("insufficient health data for recommendations")
	}

	sorted, err := SortRecords(records)
	if err != nil {
		return nil, err
	}
	latest := sorted[len(sorted)-1]

	result := &models.RecommendationResult{
		Recommendations: []models.Recommendation{},
		BMI:             BMI(profile, recordValue(latest, models.MetricWeight)),
		WeightTrend:     WeightTrend(weights, e.config.TrendWindow),
	}

	if bmi := result.BMI; bmi != nil {
		switch {
		case *bmi < constants.BMIUnderweight:
			result.Recommendations = append(result.Recommendations, RecIncreaseCalories)
		case *bmi >= constants.BMIOverweight:
			result.Recommendations = append(result.Recommendations, RecIncreaseActivity, RecMonitorCalories)
		}
	}

	if fat := recordValue(latest, models.MetricBodyFat); fat != nil && *fat > constants.BodyFatHighPercent {
		result.Recommendations = append(result.Recommendations, RecStrengthTraining)
	}

	if muscle := recordValue(latest, models.MetricMuscleMass); muscle != nil && *muscle < constants.MuscleMassLowKg {
		result.Recommendations = append(result.Recommendations, RecProteinIntake)
	}

	if trend := result.WeightTrend; trend != nil {
		switch {
		case *trend == models.TrendIncreasing:
			result.Recommendations = append(result.Recommendations, RecWeightManagement)
		case *trend == models.TrendDecreasing && result.BMI != nil && *result.BMI < constants.BMILowNormal:
			result.Recommendations = append(result.Recommendations, RecWeightMaintenance)
		}
	}

	result.Recommendations = append(result.Recommendations, RecStayHydrated)

	e.logger.WithFields(logrus.Fields{
		"records":         len(records),
		"recommendations": len(result.Recommendations),
	}).Debug("Recommendations generated")

	return result, nil
}

func recordValue(record models.MetricRecord, metric models.Metric) *float64 {
	v, ok := record.Value(metric)
	if !ok {
		return nil
	}
	return &v
}

// BMI computes weight / height_m^2, or nil when either input is missing
func BMI(profile *models.UserProfile, weight *float64) *float64 {
	heightM, ok := profile.HeightMetres()
	if !ok || weight == nil {
		return nil
	}
	bmi := *weight / (heightM * heightM)
	return &bmi
}

// WeightTrend compares the oldest and newest of the last window points.
// It returns nil when the series is shorter than window.
func WeightTrend(series *models.PreparedSeries, window int) *string {
	if series.Len() < window {
		return nil
	}

	recent := series.Points[series.Len()-window:]
	oldest, newest := recent[0].Value, recent[len(recent)-1].Value

	trend := models.TrendStable
	switch {
	case newest > oldest:
		trend = models.TrendIncreasing
	case newest < oldest:
		trend = models.TrendDecreasing
	}
	return &trend
}
