package tasks

import "wellness-nudges-backend/internal/models"

// SeedTasks returns the fixed starter catalog.
func SeedTasks() []models.Task {
	return []models.Task{
		{
			ID:           "water-500",
			Title:        "Drink 500 ml water",
			Category:     models.CategoryHydration,
			ImpactWeight: 4,
			EffortMin:    5,
			MicroAlt:     "water-250",
		},
		{
			ID:           "water-250",
			Title:        "Drink 250 ml water",
			Category:     models.CategoryHydration,
			ImpactWeight: 3,
			EffortMin:    3,
		},
		{
			ID:           "steps-1k",
			Title:        "Walk 1,000 steps",
			Category:     models.CategoryMovement,
			ImpactWeight: 4,
			EffortMin:    10,
			MicroAlt:     "steps-300",
		},
		{
			ID:           "steps-300",
			Title:        "Walk 300 steps (indoors ok)",
			Category:     models.CategoryMovement,
			ImpactWeight: 3,
			EffortMin:    5,
		},
		{
			ID:           "screen-break-10",
			Title:        "Take a 10-min screen break",
			Category:     models.CategoryScreen,
			ImpactWeight: 5,
			EffortMin:    10,
		},
		{
			ID:           "sleep-winddown-15",
			Title:        "15-min wind-down routine",
			Category:     models.CategorySleep,
			ImpactWeight: 5,
			EffortMin:    15,
			TimeGate:     models.GateEvening,
		},
		{
			ID:           "mood-check-quick",
			Title:        "Quick mood check-in",
			Category:     models.CategoryMood,
			ImpactWeight: 2,
			EffortMin:    3,
		},
	}
}

func (r *Recommender) LoadSeedData() {
	for _, t := range SeedTasks() {
		r.AddTask(t)
	}
}
