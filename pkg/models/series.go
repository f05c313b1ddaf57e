package models

import "time"

// SeriesPoint is one observation of a single metric
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PreparedSeries is a chronologically ordered single-metric series
type PreparedSeries struct {
	Metric Metric        `json:"metric"`
	Points []SeriesPoint `json:"points"`
}

// Len returns the number of points
func (s *PreparedSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Values returns the point values in order
func (s *PreparedSeries) Values() []float64 {
	if s == nil {
		return nil
	}
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// Last returns the most recent point
func (s *PreparedSeries) Last() (SeriesPoint, bool) {
	if s.Len() == 0 {
		return SeriesPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// First returns the oldest point
func (s *PreparedSeries) First() (SeriesPoint, bool) {
	if s.Len() == 0 {
		return SeriesPoint{}, false
	}
	return s.Points[0], true
}

// TimeRange bounds a record query. Zero times are open ends.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range, inclusive at both ends
func (r *TimeRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Valid reports whether the range is well ordered
func (r *TimeRange) Valid() bool {
	if r == nil || r.Start.IsZero() || r.End.IsZero() {
		return true
	}
	return !r.End.Before(r.Start)
}

// LastDays returns the window [now-days, now]
func LastDays(now time.Time, days int) *TimeRange {
	return &TimeRange{
		Start: now.AddDate(0, 0, -days),
		End:   now,
	}
}
