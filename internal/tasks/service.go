package tasks

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"wellness-nudges-backend/internal/analytics"
	"wellness-nudges-backend/internal/logging"
	"wellness-nudges-backend/internal/models"
)

// Service is the boundary every transport goes through. It resolves request
// defaults, serializes access to the Recommender, and records events.
type Service struct {
	mu     sync.Mutex
	rec    *Recommender
	clock  Clock
	events analytics.Recorder
	logger *log.Logger
}

func NewService(rec *Recommender, clock Clock, events analytics.Recorder, logger *log.Logger) *Service {
	if rec == nil {
		rec = NewRecommender(nil, DefaultLimit)
	}
	if clock == nil {
		clock = RealClock{}
	}
	if events == nil {
		events = analytics.Nop{}
	}
	return &Service{rec: rec, clock: clock, events: events, logger: logger}
}

func (s *Service) Recommend(ctx context.Context, req RecommendationRequest) (RecommendationResponse, error) {
	metrics, err := req.Metrics.Validate()
	if err != nil {
		return RecommendationResponse{}, err
	}

	now := s.clock.Now()
	timestamp := now.Format(time.RFC3339)
	if strings.TrimSpace(req.CurrentTime) != "" {
		now, err = ParseTimestamp(req.CurrentTime)
		if err != nil {
			return RecommendationResponse{}, fmt.Errorf("currentTime: %w", err)
		}
		timestamp = strings.TrimSpace(req.CurrentTime)
	}

	localDate := strings.TrimSpace(req.LocalDate)
	if localDate == "" {
		localDate = now.Format(DateLayout)
	} else if err := validateDate(localDate); err != nil {
		return RecommendationResponse{}, fmt.Errorf("localDate: %w", err)
	}

	s.mu.Lock()
	didReset := s.rec.CheckAndPerformDailyReset(localDate)
	scored := s.rec.Recommendations(metrics, now, localDate)
	s.mu.Unlock()

	if didReset {
		logging.Info(s.logger, "daily_reset", map[string]any{"local_date": localDate})
		s.record(ctx, analytics.Event{
			Name:  analytics.EventDailyStateReset,
			Props: map[string]any{"local_date": localDate, "trigger": "date_change"},
		})
	}

	resp := RecommendationResponse{
		Tasks:     make([]Recommendation, 0, len(scored)),
		Timestamp: timestamp,
		LocalDate: localDate,
	}
	ids := make([]string, 0, len(scored))
	scores := make([]float64, 0, len(scored))
	for _, ts := range scored {
		resp.Tasks = append(resp.Tasks, NewRecommendation(ts))
		ids = append(ids, ts.Task.ID)
		scores = append(scores, ts.Score)
	}

	fields := map[string]any{"task_count": len(ids), "task_ids": ids, "scores": scores}
	if len(scored) > 0 {
		fields["top_tier"] = analytics.TierFromScore(scored[0].Score)
	}
	logging.Info(s.logger, "recommendations_generated", fields)
	s.record(ctx, analytics.Event{Name: analytics.EventRecommendationsShown, Props: fields})

	return resp, nil
}

// Complete marks a task done for the action date.
func (s *Service) Complete(ctx context.Context, req ActionRequest) (models.Task, error) {
	id, date, err := s.resolveAction(req)
	if err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	ok := s.rec.CompleteTask(id, date)
	task, _ := s.rec.GetTask(id)
	s.mu.Unlock()

	if !ok {
		logging.Warn(s.logger, "complete_unknown_task", map[string]any{"task_id": id})
		return models.Task{}, fmt.Errorf("complete %q: %w", id, ErrNotFound)
	}

	logging.Info(s.logger, "task_completed", map[string]any{"task_id": id, "date": date})
	s.record(ctx, analytics.Event{
		Name:   analytics.EventTaskCompleted,
		TaskID: id,
		Props:  map[string]any{"date": date, "category": task.Category},
	})
	return task, nil
}

// Dismiss records a same-day dismissal of a task.
func (s *Service) Dismiss(ctx context.Context, req ActionRequest) (models.Task, error) {
	id, date, err := s.resolveAction(req)
	if err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	ok := s.rec.DismissTask(id, date)
	task, _ := s.rec.GetTask(id)
	s.mu.Unlock()

	if !ok {
		logging.Warn(s.logger, "dismiss_unknown_task", map[string]any{"task_id": id})
		return models.Task{}, fmt.Errorf("dismiss %q: %w", id, ErrNotFound)
	}

	logging.Info(s.logger, "task_dismissed", map[string]any{"task_id": id, "ignores": task.Ignores, "date": date})
	if task.MicroAlt != "" && task.Ignores >= SubstitutionThreshold {
		logging.Warn(s.logger, "substitution_threshold_reached", map[string]any{
			"task_id":         id,
			"ignores":         task.Ignores,
			"substitute_with": task.MicroAlt,
		})
	}
	s.record(ctx, analytics.Event{
		Name:   analytics.EventTaskDismissed,
		TaskID: id,
		Props:  map[string]any{"date": date, "ignores": task.Ignores},
	})
	return task, nil
}

// Seed replaces the catalog with the starter tasks.
func (s *Service) Seed(ctx context.Context) []models.Task {
	s.mu.Lock()
	s.rec.ClearAllTasks()
	s.rec.LoadSeedData()
	all := s.rec.AllTasks()
	s.mu.Unlock()

	ids := make([]string, 0, len(all))
	for _, t := range all {
		ids = append(ids, t.ID)
	}
	logging.Info(s.logger, "seed_data_loaded", map[string]any{"task_count": len(all), "task_ids": ids})
	s.record(ctx, analytics.Event{Name: analytics.EventCatalogSeeded, Props: map[string]any{"task_count": len(all)}})
	return all
}

// Reset clears per-day counters on every task.
func (s *Service) Reset(ctx context.Context) {
	s.mu.Lock()
	s.rec.ResetDailyState()
	s.mu.Unlock()

	logging.Info(s.logger, "daily_state_reset", nil)
	s.record(ctx, analytics.Event{Name: analytics.EventDailyStateReset, Props: map[string]any{"trigger": "manual"}})
}

// List returns the unscored catalog ordered by id.
func (s *Service) List(context.Context) []models.Task {
	s.mu.Lock()
	all := s.rec.AllTasks()
	s.mu.Unlock()

	slices.SortFunc(all, func(a, b models.Task) int { return strings.Compare(a.ID, b.ID) })
	return all
}

func (s *Service) resolveAction(req ActionRequest) (id, date string, err error) {
	id = strings.TrimSpace(req.TaskID)
	if id == "" {
		return "", "", ErrMissingTaskID
	}
	at := s.clock.Now()
	if strings.TrimSpace(req.Timestamp) != "" {
		at, err = ParseTimestamp(req.Timestamp)
		if err != nil {
			return "", "", fmt.Errorf("timestamp: %w", err)
		}
	}
	return id, at.Format(DateLayout), nil
}

func (s *Service) record(ctx context.Context, ev analytics.Event) {
	if err := s.events.Record(ctx, ev); err != nil {
		logging.Error(s.logger, "analytics_record_failed", err, map[string]any{"event": ev.Name})
	}
}
