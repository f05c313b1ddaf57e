package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayouts lists the timestamp layouts accepted on MetricRecord.Date, tried in order
var DateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// MetricRecord is one dated set of readings. Any subset of the vocabulary
// may be present; absent readings are nil.
type MetricRecord struct {
	ID     int64  `json:"id,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Date   string `json:"date"`
	Source string `json:"source,omitempty"`

	Weight          *float64 `json:"weight,omitempty"`
	BMI             *float64 `json:"bmi,omitempty"`
	BodyFat         *float64 `json:"body_fat,omitempty"`
	MuscleMass      *float64 `json:"muscle_mass,omitempty"`
	Water           *float64 `json:"water,omitempty"`
	VisceralFat     *float64 `json:"visceral_fat,omitempty"`
	BoneMass        *float64 `json:"bone_mass,omitempty"`
	BasalMetabolism *float64 `json:"basal_metabolism,omitempty"`
	Protein         *float64 `json:"protein,omitempty"`

	CaloriesConsumed *float64 `json:"calories_consumed,omitempty"`
	CaloriesBurned   *float64 `json:"calories_burned,omitempty"`
	Steps            *float64 `json:"steps,omitempty"`
	SleepHours       *float64 `json:"sleep_hours,omitempty"`
	WaterIntake      *float64 `json:"water_intake,omitempty"`
}

// ParseDate parses a record date in any of DateLayouts
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

// FormatDate renders t the way stores hand dates to the analytics layer
func FormatDate(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// Timestamp parses the record date
func (r *MetricRecord) Timestamp() (time.Time, error) {
	return ParseDate(r.Date)
}

// Value returns the reading for metric m and whether it is present
func (r *MetricRecord) Value(m Metric) (float64, bool) {
	p := r.field(m)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// WithValue returns a copy of the record with metric m set to v
func (r MetricRecord) WithValue(m Metric, v float64) MetricRecord {
	if p := r.field(m); p != nil {
		val := v
		*p = &val
	}
	return r
}

// Values returns every present reading keyed by metric
func (r *MetricRecord) Values() map[Metric]float64 {
	values := make(map[Metric]float64)
	for _, m := range allMetrics {
		if v, ok := r.Value(m); ok {
			values[m] = v
		}
	}
	return values
}

// HasAnyMetric reports whether at least one reading is present
func (r *MetricRecord) HasAnyMetric() bool {
	for _, m := range allMetrics {
		if _, ok := r.Value(m); ok {
			return true
		}
	}
	return false
}

func (r *MetricRecord) field(m Metric) **float64 {
	switch m {
	case MetricWeight:
		return &r.Weight
	case MetricBMI:
		return &r.BMI
	case MetricBodyFat:
		return &r.BodyFat
	case MetricMuscleMass:
		return &r.MuscleMass
	case MetricWater:
		return &r.Water
	case MetricVisceralFat:
		return &r.VisceralFat
	case MetricBoneMass:
		return &r.BoneMass
	case MetricBasalMetabolism:
		return &r.BasalMetabolism
	case MetricProtein:
		return &r.Protein
	case MetricCaloriesConsumed:
		return &r.CaloriesConsumed
	case MetricCaloriesBurned:
		return &r.CaloriesBurned
	case MetricSteps:
		return &r.Steps
	case MetricSleepHours:
		return &r.SleepHours
	case MetricWaterIntake:
		return &r.WaterIntake
	default:
		return nil
	}
}

// Float returns a pointer to v, for building records in literals
func Float(v float64) *float64 {
	return &v
}
