// Package scoring turns a task and a metrics snapshot into a deterministic
// priority score with labeled components.
package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"wellness-nudges-backend/internal/models"
)

const (
	WaterGoalML      = 2000
	StepsGoal        = 8000
	SleepGoalHours   = 7
	ScreenLimitMin   = 120
	LowMoodThreshold = 2

	// moodFloor keeps mood check-ins from ever dropping to zero urgency.
	moodFloor = 0.3

	// outsideWindowFactor is applied when a gated task is scored outside its window.
	outsideWindowFactor = 0.2
)

// Weights are the coefficients of the linear score.
type Weights struct {
	Urgency   float64 `yaml:"urgency" json:"urgency"`
	Impact    float64 `yaml:"impact" json:"impact"`
	Effort    float64 `yaml:"effort" json:"effort"`
	TimeOfDay float64 `yaml:"tod" json:"tod"`
	Penalty   float64 `yaml:"penalty" json:"penalty"`
}

func DefaultWeights() Weights {
	return Weights{
		Urgency:   0.5,
		Impact:    0.3,
		Effort:    0.15,
		TimeOfDay: 0.15,
		Penalty:   0.2,
	}
}

type window struct {
	start int // minute of day, inclusive
	end   int // minute of day, inclusive
}

var timeWindows = map[models.TimeGate]window{
	models.GateMorning: {start: 5 * 60, end: 11*60 + 59},
	models.GateDay:     {start: 12 * 60, end: 17*60 + 59},
	models.GateEvening: {start: 18 * 60, end: 23*60 + 59},
}

// Scorer is stateless apart from its weights and safe to share.
type Scorer struct {
	weights Weights
}

func New(w Weights) *Scorer {
	return &Scorer{weights: w}
}

func NewDefault() *Scorer {
	return New(DefaultWeights())
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Urgency returns how far the metric behind the task's category is from its
// goal, in [0,1].
func Urgency(task models.Task, m models.UserMetrics) float64 {
	switch task.Category {
	case models.CategoryHydration:
		return math.Max(0, (WaterGoalML-m.WaterML)/WaterGoalML)
	case models.CategoryMovement:
		return math.Max(0, (StepsGoal-m.Steps)/StepsGoal)
	case models.CategorySleep:
		if m.SleepHours < SleepGoalHours {
			return 1
		}
		return 0
	case models.CategoryScreen:
		if m.ScreenTimeMin > ScreenLimitMin {
			return 1
		}
		return 0
	case models.CategoryMood:
		if m.Mood1to5 <= LowMoodThreshold {
			return 1
		}
		return moodFloor
	default:
		return 0
	}
}

// InverseEffort favors short tasks with diminishing returns. Effort below one
// minute is treated as one minute.
func InverseEffort(effortMin float64) float64 {
	mins := math.Max(effortMin, 1)
	return 1 / math.Log2(mins+2)
}

// TimeOfDayFactor returns 1 when the task is ungated, the gate is unknown, or
// now falls inside the gate's window; otherwise it returns 0.2. The wall clock
// of now is used as is, without zone conversion.
func TimeOfDayFactor(gate models.TimeGate, now time.Time) float64 {
	w, ok := timeWindows[gate]
	if !ok {
		return 1
	}
	minute := now.Hour()*60 + now.Minute()
	if minute >= w.start && minute <= w.end {
		return 1
	}
	return outsideWindowFactor
}

// Score combines the weighted contributions of a task. Reported values are
// rounded to four decimals.
func (s *Scorer) Score(task models.Task, m models.UserMetrics, now time.Time) models.TaskScore {
	urgency := Urgency(task, m)
	impact := task.ImpactWeight
	effort := InverseEffort(task.EffortMin)
	tod := TimeOfDayFactor(task.TimeGate, now)
	ignores := float64(task.Ignores)

	w := s.weights
	score := w.Urgency*urgency +
		w.Impact*impact +
		w.Effort*effort +
		w.TimeOfDay*tod -
		w.Penalty*ignores

	return models.TaskScore{
		Task:                  task,
		Score:                 Round4(score),
		Rationale:             rationale(task, m, urgency, impact, effort, tod, ignores),
		UrgencyContribution:   Round4(urgency),
		ImpactContribution:    Round4(impact),
		EffortContribution:    Round4(effort),
		TimeOfDayContribution: Round4(tod),
		IgnoresPenalty:        Round4(ignores),
	}
}

// Round4 rounds half away from zero at the fourth decimal.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func rationale(task models.Task, m models.UserMetrics, urgency, impact, effort, tod, ignores float64) string {
	gate := "(no gate)"
	if task.TimeGate != models.GateNone {
		gate = fmt.Sprintf("(%s window)", task.TimeGate)
	}
	parts := []string{
		fmt.Sprintf("urgency: %.4f (%s)", urgency, urgencyReason(task, m)),
		fmt.Sprintf("impact: %.4f", impact),
		fmt.Sprintf("effort: %.4f (%s mins)", effort, num(task.EffortMin)),
		fmt.Sprintf("time: %.4f %s", tod, gate),
		fmt.Sprintf("penalty: -%.4f (%d ignores)", ignores, task.Ignores),
	}
	return strings.Join(parts, ", ")
}

func urgencyReason(task models.Task, m models.UserMetrics) string {
	switch task.Category {
	case models.CategoryHydration:
		return fmt.Sprintf("%sml/%dml water", num(m.WaterML), WaterGoalML)
	case models.CategoryMovement:
		return fmt.Sprintf("%s/%d steps", num(m.Steps), StepsGoal)
	case models.CategorySleep:
		return fmt.Sprintf("%sh sleep", num(m.SleepHours))
	case models.CategoryScreen:
		return fmt.Sprintf("%s mins screen time", num(m.ScreenTimeMin))
	case models.CategoryMood:
		return fmt.Sprintf("mood: %d/5", m.Mood1to5)
	default:
		return "unknown"
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
