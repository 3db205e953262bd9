package models

// Category selects the urgency formula applied to a task.
type Category string

const (
	CategoryHydration Category = "hydration"
	CategoryMovement  Category = "movement"
	CategoryScreen    Category = "screen"
	CategorySleep     Category = "sleep"
	CategoryMood      Category = "mood"
)

// TimeGate is an optional time-of-day window attached to a task.
type TimeGate string

const (
	GateNone    TimeGate = ""
	GateMorning TimeGate = "morning"
	GateDay     TimeGate = "day"
	GateEvening TimeGate = "evening"
)

// Task is a catalog entry. It holds no reference types, so assigning a Task
// copies all of its state.
type Task struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Category     Category `json:"category"`
	ImpactWeight float64  `json:"impact_weight"`
	EffortMin    float64  `json:"effort_min"`
	TimeGate     TimeGate `json:"time_gate,omitempty"`
	MicroAlt     string   `json:"micro_alt,omitempty"`

	Ignores          int    `json:"ignores"`
	CompletedToday   bool   `json:"completedToday"`
	LastIgnoreDate   string `json:"lastIgnoreDate,omitempty"`
	LastCompleteDate string `json:"lastCompleteDate,omitempty"`
}

// UserMetrics is a snapshot of the user's day so far.
type UserMetrics struct {
	WaterML       float64 `json:"water_ml"`
	Steps         float64 `json:"steps"`
	SleepHours    float64 `json:"sleep_hours"`
	ScreenTimeMin float64 `json:"screen_time_min"`
	Mood1to5      int     `json:"mood_1to5"`
}

// TaskScore is a scored snapshot of a task for a single recommendation call.
type TaskScore struct {
	Task      Task
	Score     float64
	Rationale string

	UrgencyContribution   float64
	ImpactContribution    float64
	EffortContribution    float64
	TimeOfDayContribution float64
	IgnoresPenalty        float64
}
