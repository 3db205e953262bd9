package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color scheme for the terminal views
type Theme struct {
	Name string

	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary lipgloss.Color
	Accent  lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Border    lipgloss.Color
	Selection lipgloss.Color
}

var TokyoNight = Theme{
	Name: "Tokyo Night",

	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary: lipgloss.Color("#7aa2f7"),
	Accent:  lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),

	Border:    lipgloss.Color("#3b4261"),
	Selection: lipgloss.Color("#33467c"),
}

// Current holds the active theme
var Current = TokyoNight

// MaxWidth is the widest the views render, regardless of terminal size
const MaxWidth = 80

func ContentWidth(terminalWidth int) int {
	if terminalWidth <= 0 || terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// Styles holds the pre-computed styles for the views
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	Item     lipgloss.Style
	Selected lipgloss.Style

	Score     lipgloss.Style
	Gate      lipgloss.Style
	Rationale lipgloss.Style

	Header lipgloss.Style
	Cell   lipgloss.Style

	Status lipgloss.Style
	Error  lipgloss.Style

	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
}

// tierColor colors a score the way analytics buckets it.
func tierColor(t Theme, score float64) lipgloss.Color {
	switch {
	case score >= 2.0:
		return t.Success
	case score >= 1.5:
		return t.Accent
	default:
		return t.Warning
	}
}

func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Item: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		Selected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		Score: lipgloss.NewStyle().
			Bold(true),

		Gate: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Italic(true),

		Rationale: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		Cell: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		Status: lipgloss.NewStyle().
			Foreground(t.Success).
			Padding(0, 2),

		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 2),

		Help: lipgloss.NewStyle().
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Accent),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),
	}
}
