package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-nudges-backend/internal/models"
	"wellness-nudges-backend/internal/tasks"
)

func newTestApp(t *testing.T) (*App, *tasks.Service) {
	t.Helper()
	clock := tasks.NewFakeClock(time.Date(2023, 12, 20, 15, 0, 0, 0, time.UTC))
	svc := tasks.NewService(nil, clock, nil, nil)
	svc.Seed(context.Background())

	metrics := tasks.MetricsFrom(models.UserMetrics{
		WaterML:       900,
		Steps:         4000,
		SleepHours:    6,
		ScreenTimeMin: 150,
		Mood1to5:      2,
	})
	app := NewApp(svc, metrics)

	// run the initial load synchronously
	app.Update(app.Init()())
	return app, svc
}

func press(a *App, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := a.Update(msg)
	return cmd
}

// drain runs cmd and feeds its messages back until nothing is left.
func drain(a *App, cmd tea.Cmd) {
	for cmd != nil {
		_, cmd = a.Update(cmd())
	}
}

func TestApp_InitialLoad(t *testing.T) {
	app, _ := newTestApp(t)

	require.Len(t, app.recs, 4)
	assert.Equal(t, "screen-break-10", app.recs[0].ID)
	assert.Equal(t, "2023-12-20", app.date)

	view := app.View()
	assert.Contains(t, view, "Today's nudges")
	assert.Contains(t, view, "Take a 10-min screen break")
	assert.Contains(t, view, "2.1918")
	assert.Contains(t, view, "evening")
}

func TestApp_CursorStaysInBounds(t *testing.T) {
	app, _ := newTestApp(t)

	press(app, "up")
	assert.Equal(t, 0, app.cursor)

	for range 10 {
		press(app, "down")
	}
	assert.Equal(t, 3, app.cursor)

	press(app, "k")
	assert.Equal(t, 2, app.cursor)
}

func TestApp_CompleteSelected(t *testing.T) {
	app, svc := newTestApp(t)

	drain(app, press(app, "c"))

	assert.Equal(t, "Completed Take a 10-min screen break", app.status)
	assert.Equal(t, "sleep-winddown-15", app.recs[0].ID)

	for _, task := range svc.List(context.Background()) {
		if task.ID == "screen-break-10" {
			assert.True(t, task.CompletedToday)
		}
	}
}

func TestApp_DismissSelected(t *testing.T) {
	app, _ := newTestApp(t)

	// water-500 is third in the reference ranking
	press(app, "down")
	press(app, "down")
	require.Equal(t, "water-500", app.recs[app.cursor].ID)

	drain(app, press(app, "d"))
	assert.Contains(t, app.status, "Dismissed Drink 500 ml water (1 today)")

	// one dismissal drops water-500 below steps-1k
	var ids []string
	for _, r := range app.recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"screen-break-10", "sleep-winddown-15", "steps-1k", "water-500"}, ids)
}

func TestApp_ResetAndQuit(t *testing.T) {
	app, svc := newTestApp(t)

	drain(app, press(app, "c"))
	drain(app, press(app, "R"))
	assert.Equal(t, "Daily state reset", app.status)
	for _, task := range svc.List(context.Background()) {
		assert.False(t, task.CompletedToday, task.ID)
	}

	cmd := press(app, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_ErrorIsShown(t *testing.T) {
	clock := tasks.NewFakeClock(time.Date(2023, 12, 20, 15, 0, 0, 0, time.UTC))
	svc := tasks.NewService(nil, clock, nil, nil)
	app := NewApp(svc, &tasks.MetricsInput{})

	app.Update(app.Init()())
	assert.Error(t, app.err)
	assert.Contains(t, app.View(), "invalid metrics provided")
	assert.Contains(t, app.View(), "Nothing left to suggest today.")
}

func TestRenderTable(t *testing.T) {
	app, _ := newTestApp(t)
	resp := tasks.RecommendationResponse{Tasks: app.recs, LocalDate: app.date}

	out := RenderTable(resp, false)
	assert.Contains(t, out, "Recommendations for 2023-12-20")
	assert.Contains(t, out, "screen-break-10")
	assert.Contains(t, out, "2.1918")
	assert.NotContains(t, out, "urgency:")

	out = RenderTable(resp, true)
	assert.Contains(t, out, "urgency: 1.0000")

	out = RenderTable(tasks.RecommendationResponse{LocalDate: "2023-12-20"}, false)
	assert.Contains(t, out, "(no tasks)")
}
