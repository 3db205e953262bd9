package tasks

import (
	"cmp"
	"slices"
	"time"

	"wellness-nudges-backend/internal/models"
	"wellness-nudges-backend/internal/scoring"
)

const (
	DefaultLimit = 4

	// SubstitutionThreshold is the same-day dismissal count at which a task
	// is replaced by its micro alternative.
	SubstitutionThreshold = 3
)

// Recommender owns the task catalog and ranks it against a metrics snapshot.
// It is not safe for concurrent use; Service serializes access to it.
type Recommender struct {
	scorer *scoring.Scorer
	limit  int

	order []string // catalog iteration order, by first insertion
	tasks map[string]models.Task

	// dismissed holds ids dismissed since the last Recommendations call.
	dismissed map[string]struct{}
}

func NewRecommender(scorer *scoring.Scorer, limit int) *Recommender {
	if scorer == nil {
		scorer = scoring.NewDefault()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recommender{
		scorer:    scorer,
		limit:     limit,
		tasks:     make(map[string]models.Task),
		dismissed: make(map[string]struct{}),
	}
}

// AddTask inserts or replaces the entry for t.ID. A replaced entry keeps its
// position in the catalog order.
func (r *Recommender) AddTask(t models.Task) {
	if _, ok := r.tasks[t.ID]; !ok {
		r.order = append(r.order, t.ID)
	}
	r.tasks[t.ID] = t
}

func (r *Recommender) GetTask(id string) (models.Task, bool) {
	t, ok := r.tasks[id]
	return t, ok
}

// AllTasks returns a snapshot of the catalog in catalog order.
func (r *Recommender) AllTasks() []models.Task {
	out := make([]models.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id])
	}
	return out
}

func (r *Recommender) Len() int {
	return len(r.order)
}

func (r *Recommender) CompleteTask(id, date string) bool {
	t, ok := r.tasks[id]
	if !ok {
		return false
	}
	t.CompletedToday = true
	t.LastCompleteDate = date
	r.tasks[id] = t
	return true
}

func (r *Recommender) DismissTask(id, date string) bool {
	t, ok := r.tasks[id]
	if !ok {
		return false
	}
	if t.LastIgnoreDate != date {
		t.Ignores = 0
	}
	t.Ignores++
	t.LastIgnoreDate = date
	r.tasks[id] = t
	r.dismissed[id] = struct{}{}
	return true
}

// ResetDailyState clears completion and dismissal counters on every task.
// The last-touched dates are kept.
func (r *Recommender) ResetDailyState() {
	for id, t := range r.tasks {
		t.CompletedToday = false
		t.Ignores = 0
		r.tasks[id] = t
	}
	clear(r.dismissed)
}

// CheckAndPerformDailyReset resets daily state when some task is still marked
// completed from a date other than currentDate. Dismissals alone never
// trigger it.
func (r *Recommender) CheckAndPerformDailyReset(currentDate string) bool {
	for _, id := range r.order {
		t := r.tasks[id]
		if t.CompletedToday && t.LastCompleteDate != "" && t.LastCompleteDate != currentDate {
			r.ResetDailyState()
			return true
		}
	}
	return false
}

// Recommendations ranks the catalog and returns at most limit entries.
func (r *Recommender) Recommendations(m models.UserMetrics, now time.Time, localDate string) []models.TaskScore {
	clear(r.dismissed)
	r.CheckAndPerformDailyReset(localDate)

	candidates := substitute(r.pending(), r.GetTask)

	scored := make([]models.TaskScore, 0, len(candidates))
	for _, t := range candidates {
		if r.isDismissed(t.ID) {
			continue
		}
		scored = append(scored, r.scorer.Score(t, m, now))
	}
	sortScores(scored)

	top := slices.Clone(scored[:min(r.limit, len(scored))])
	// Gated tasks are scored, not filtered, so a short top already holds the
	// whole pool and this backfill adds nothing today.
	if len(top) < r.limit {
		pool := make([]models.Task, 0, len(candidates))
		for _, t := range candidates {
			if !r.isDismissed(t.ID) {
				pool = append(pool, t)
			}
		}
		top = append(top, relax(r.scorer, pool, top, m, now, r.limit-len(top))...)
	}
	return top
}

func (r *Recommender) ClearAllTasks() {
	r.order = nil
	clear(r.tasks)
	clear(r.dismissed)
}

func (r *Recommender) pending() []models.Task {
	out := make([]models.Task, 0, len(r.order))
	for _, id := range r.order {
		if t := r.tasks[id]; !t.CompletedToday {
			out = append(out, t)
		}
	}
	return out
}

func (r *Recommender) isDismissed(id string) bool {
	_, ok := r.dismissed[id]
	return ok
}

// substitute replaces each candidate dismissed at least SubstitutionThreshold
// times by its micro alternative, when that alternative exists and is not
// completed. Replaced parents are dropped, substituted tasks are never
// substituted again, and no id is emitted twice.
func substitute(candidates []models.Task, lookup func(string) (models.Task, bool)) []models.Task {
	out := make([]models.Task, 0, len(candidates))
	emitted := make(map[string]bool, len(candidates))
	dropped := make(map[string]bool)
	substitutedIn := make(map[string]bool)

	emit := func(t models.Task) {
		if emitted[t.ID] {
			return
		}
		emitted[t.ID] = true
		out = append(out, t)
	}

	for _, t := range candidates {
		if t.MicroAlt != "" && t.Ignores >= SubstitutionThreshold && !substitutedIn[t.ID] {
			micro, ok := lookup(t.MicroAlt)
			if ok && micro.ID != t.ID && !micro.CompletedToday && !dropped[micro.ID] {
				dropped[t.ID] = true
				substitutedIn[micro.ID] = true
				emit(micro)
				continue
			}
		}
		emit(t)
	}
	return out
}

// relax scores the pool tasks missing from selected with their time gate
// ignored and returns the best n of them. The reported task keeps its gate.
func relax(s *scoring.Scorer, pool []models.Task, selected []models.TaskScore, m models.UserMetrics, now time.Time, n int) []models.TaskScore {
	if n <= 0 {
		return nil
	}
	taken := make(map[string]bool, len(selected))
	for _, ts := range selected {
		taken[ts.Task.ID] = true
	}

	relaxed := make([]models.TaskScore, 0, len(pool))
	for _, t := range pool {
		if taken[t.ID] {
			continue
		}
		taken[t.ID] = true

		ungated := t
		ungated.TimeGate = models.GateNone
		ts := s.Score(ungated, m, now)
		ts.Task.TimeGate = t.TimeGate
		ts.TimeOfDayContribution = 1
		relaxed = append(relaxed, ts)
	}
	sortScores(relaxed)
	return relaxed[:min(n, len(relaxed))]
}

// sortScores orders by score desc, impact desc, effort asc, then id asc.
func sortScores(scores []models.TaskScore) {
	slices.SortStableFunc(scores, compareScores)
}

func compareScores(a, b models.TaskScore) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Task.ImpactWeight, a.Task.ImpactWeight); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Task.EffortMin, b.Task.EffortMin); c != 0 {
		return c
	}
	return cmp.Compare(a.Task.ID, b.Task.ID)
}
