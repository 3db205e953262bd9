package tasks

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"wellness-nudges-backend/internal/models"
)

const DateLayout = "2006-01-02"

var (
	ErrNotFound       = errors.New("task not found")
	ErrInvalidMetrics = errors.New("invalid metrics provided. Required: water_ml, steps, sleep_hours, screen_time_min, mood_1to5")
	ErrMissingTaskID  = errors.New("taskId is required")
	ErrInvalidTime    = errors.New("invalid time")
)

// MetricsInput is the wire form of models.UserMetrics. Pointers tell a
// missing field apart from a zero.
type MetricsInput struct {
	WaterML       *float64 `json:"water_ml"`
	Steps         *float64 `json:"steps"`
	SleepHours    *float64 `json:"sleep_hours"`
	ScreenTimeMin *float64 `json:"screen_time_min"`
	Mood1to5      *float64 `json:"mood_1to5"`
}

func MetricsFrom(m models.UserMetrics) *MetricsInput {
	mood := float64(m.Mood1to5)
	return &MetricsInput{
		WaterML:       &m.WaterML,
		Steps:         &m.Steps,
		SleepHours:    &m.SleepHours,
		ScreenTimeMin: &m.ScreenTimeMin,
		Mood1to5:      &mood,
	}
}

// Validate checks presence and ranges and returns the engine form.
func (in *MetricsInput) Validate() (models.UserMetrics, error) {
	if in == nil {
		return models.UserMetrics{}, ErrInvalidMetrics
	}
	fields := []struct {
		name string
		v    *float64
	}{
		{"water_ml", in.WaterML},
		{"steps", in.Steps},
		{"sleep_hours", in.SleepHours},
		{"screen_time_min", in.ScreenTimeMin},
		{"mood_1to5", in.Mood1to5},
	}
	for _, f := range fields {
		if f.v == nil {
			return models.UserMetrics{}, fmt.Errorf("%w (missing %s)", ErrInvalidMetrics, f.name)
		}
		if *f.v < 0 || math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return models.UserMetrics{}, fmt.Errorf("%w (%s must be a non-negative number)", ErrInvalidMetrics, f.name)
		}
	}
	mood := *in.Mood1to5
	if mood < 1 || mood > 5 || mood != math.Trunc(mood) {
		return models.UserMetrics{}, fmt.Errorf("%w (mood_1to5 must be an integer from 1 to 5)", ErrInvalidMetrics)
	}

	return models.UserMetrics{
		WaterML:       *in.WaterML,
		Steps:         *in.Steps,
		SleepHours:    *in.SleepHours,
		ScreenTimeMin: *in.ScreenTimeMin,
		Mood1to5:      int(mood),
	}, nil
}

type RecommendationRequest struct {
	Metrics     *MetricsInput `json:"metrics"`
	CurrentTime string        `json:"currentTime,omitempty"`
	LocalDate   string        `json:"localDate,omitempty"`
}

type ActionRequest struct {
	TaskID    string `json:"taskId"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Recommendation is the flattened wire form of a models.TaskScore.
type Recommendation struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Category     models.Category `json:"category"`
	ImpactWeight float64         `json:"impact_weight"`
	EffortMin    float64         `json:"effort_min"`
	TimeGate     models.TimeGate `json:"time_gate,omitempty"`

	Score                 float64 `json:"score"`
	Rationale             string  `json:"rationale"`
	UrgencyContribution   float64 `json:"urgencyContribution"`
	ImpactContribution    float64 `json:"impactContribution"`
	EffortContribution    float64 `json:"effortContribution"`
	TimeOfDayContribution float64 `json:"timeOfDayContribution"`
	IgnoresPenalty        float64 `json:"ignoresPenalty"`
}

func NewRecommendation(ts models.TaskScore) Recommendation {
	return Recommendation{
		ID:                    ts.Task.ID,
		Title:                 ts.Task.Title,
		Category:              ts.Task.Category,
		ImpactWeight:          ts.Task.ImpactWeight,
		EffortMin:             ts.Task.EffortMin,
		TimeGate:              ts.Task.TimeGate,
		Score:                 ts.Score,
		Rationale:             ts.Rationale,
		UrgencyContribution:   ts.UrgencyContribution,
		ImpactContribution:    ts.ImpactContribution,
		EffortContribution:    ts.EffortContribution,
		TimeOfDayContribution: ts.TimeOfDayContribution,
		IgnoresPenalty:        ts.IgnoresPenalty,
	}
}

type RecommendationResponse struct {
	Tasks     []Recommendation `json:"tasks"`
	Timestamp string           `json:"timestamp"`
	LocalDate string           `json:"localDate"`
}

type ActionResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Task    *models.Task `json:"task,omitempty"`
	Ignores *int         `json:"ignores,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	DateLayout,
}

// ParseTimestamp accepts ISO-8601 datetimes with or without a zone offset.
// The wall clock is kept as written.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 datetime", ErrInvalidTime, s)
}

func validateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidTime, s)
	}
	return nil
}

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidMetrics) ||
		errors.Is(err, ErrMissingTaskID) ||
		errors.Is(err, ErrInvalidTime)
}
