package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"wellness-nudges-backend/internal/analytics"
	"wellness-nudges-backend/internal/tasks"
)

// App is the interactive recommendation view. Metrics are fixed for the
// session; time comes from the service clock.
type App struct {
	svc     *tasks.Service
	metrics *tasks.MetricsInput

	styles *Styles
	keys   KeyMap

	recs   []tasks.Recommendation
	date   string
	cursor int
	status string
	err    error

	width  int
	height int
}

func NewApp(svc *tasks.Service, metrics *tasks.MetricsInput) *App {
	return &App{
		svc:     svc,
		metrics: metrics,
		styles:  NewStyles(),
		keys:    DefaultKeyMap(),
	}
}

type recommendationsMsg struct {
	resp tasks.RecommendationResponse
}

type actionDoneMsg struct {
	status string
}

type errMsg struct {
	err error
}

func (a *App) Init() tea.Cmd {
	return a.load
}

func (a *App) load() tea.Msg {
	resp, err := a.svc.Recommend(ctx(), tasks.RecommendationRequest{Metrics: a.metrics})
	if err != nil {
		return errMsg{err}
	}
	return recommendationsMsg{resp}
}

func (a *App) complete(id string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.svc.Complete(ctx(), tasks.ActionRequest{TaskID: id})
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{fmt.Sprintf("Completed %s", task.Title)}
	}
}

func (a *App) dismiss(id string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.svc.Dismiss(ctx(), tasks.ActionRequest{TaskID: id})
		if err != nil {
			return errMsg{err}
		}
		status := fmt.Sprintf("Dismissed %s (%d today)", task.Title, task.Ignores)
		if task.MicroAlt != "" && task.Ignores >= tasks.SubstitutionThreshold {
			status += ", offering a smaller step"
		}
		return actionDoneMsg{status}
	}
}

func (a *App) reset() tea.Msg {
	a.svc.Reset(ctx())
	return actionDoneMsg{"Daily state reset"}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case recommendationsMsg:
		a.recs = msg.resp.Tasks
		a.date = msg.resp.LocalDate
		a.err = nil
		a.cursor = clamp(a.cursor, 0, len(a.recs)-1)

	case actionDoneMsg:
		a.status = msg.status
		return a, a.load

	case errMsg:
		a.err = msg.err

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Up):
		a.cursor = clamp(a.cursor-1, 0, len(a.recs)-1)
	case key.Matches(msg, a.keys.Down):
		a.cursor = clamp(a.cursor+1, 0, len(a.recs)-1)
	case key.Matches(msg, a.keys.Refresh):
		a.status = ""
		return a.load
	case key.Matches(msg, a.keys.Reset):
		return a.reset
	case key.Matches(msg, a.keys.Complete):
		if sel, ok := a.selected(); ok {
			return a.complete(sel.ID)
		}
	case key.Matches(msg, a.keys.Dismiss):
		if sel, ok := a.selected(); ok {
			return a.dismiss(sel.ID)
		}
	}
	return nil
}

func (a *App) selected() (tasks.Recommendation, bool) {
	if a.cursor < 0 || a.cursor >= len(a.recs) {
		return tasks.Recommendation{}, false
	}
	return a.recs[a.cursor], true
}

func (a *App) View() string {
	var b strings.Builder

	title := a.styles.Title.Render("Today's nudges")
	if a.date != "" {
		title += " " + a.styles.TitleMuted.Render(a.date)
	}
	b.WriteString(title + "\n\n")

	if len(a.recs) == 0 {
		b.WriteString(a.styles.TitleMuted.Render("  Nothing left to suggest today.") + "\n")
	}
	for i, r := range a.recs {
		line := fmt.Sprintf("%-28s %s", r.Title, a.styles.Score.
			Foreground(tierColor(Current, r.Score)).
			Render(fmt.Sprintf("%.4f", r.Score)))
		if r.TimeGate != "" {
			line += " " + a.styles.Gate.Render(string(r.TimeGate))
		}
		if i == a.cursor {
			b.WriteString(a.styles.Selected.Render("> "+line) + "\n")
		} else {
			b.WriteString(a.styles.Item.Render("  "+line) + "\n")
		}
	}

	if sel, ok := a.selected(); ok {
		b.WriteString("\n" + a.styles.Rationale.Width(ContentWidth(a.width)-4).Render(sel.Rationale) + "\n")
	}

	if a.err != nil {
		b.WriteString(a.styles.Error.Render(a.err.Error()) + "\n")
	} else if a.status != "" {
		b.WriteString(a.styles.Status.Render(a.status) + "\n")
	}

	b.WriteString(a.helpView())
	return b.String()
}

func (a *App) helpView() string {
	parts := make([]string, 0, len(a.keys.ShortHelp()))
	for _, k := range a.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, a.styles.HelpKey.Render(h.Key)+" "+a.styles.HelpDesc.Render(h.Desc))
	}
	return a.styles.Help.Render(strings.Join(parts, "  "))
}

func ctx() context.Context {
	return analytics.WithEnvelope(context.Background(), analytics.Envelope{Source: analytics.SourceTUI, Platform: "unknown"})
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if maxVal < minVal {
		return minVal
	}
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
