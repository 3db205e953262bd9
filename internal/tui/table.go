package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wellness-nudges-backend/internal/tasks"
)

var tableColumns = []string{"#", "TASK", "SCORE", "URG", "IMP", "EFF", "TOD", "PEN"}

// RenderTable formats a one-shot recommendation list for the CLI. With
// verbose set each row is followed by its rationale.
func RenderTable(resp tasks.RecommendationResponse, verbose bool) string {
	s := NewStyles()

	rows := make([][]string, 0, len(resp.Tasks))
	for i, r := range resp.Tasks {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			r.ID,
			fmt.Sprintf("%.4f", r.Score),
			fmt.Sprintf("%.4f", r.UrgencyContribution),
			fmt.Sprintf("%g", r.ImpactContribution),
			fmt.Sprintf("%.4f", r.EffortContribution),
			fmt.Sprintf("%g", r.TimeOfDayContribution),
			fmt.Sprintf("%g", r.IgnoresPenalty),
		})
	}

	widths := make([]int, len(tableColumns))
	for i, c := range tableColumns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("Recommendations for "+resp.LocalDate) + "\n")

	header := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		header[i] = s.Header.Width(widths[i] + 2).Render(c)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...) + "\n")

	if len(rows) == 0 {
		b.WriteString(s.TitleMuted.Render("(no tasks)") + "\n")
	}
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = s.Cell.Width(widths[j] + 2).Render(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")
		if verbose {
			b.WriteString(s.TitleMuted.Render("    "+resp.Tasks[i].Rationale) + "\n")
		}
	}
	return b.String()
}
