package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a progress bar followed by its percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	filled := int(pct * float64(width))
	filled = max(0, min(filled, width))

	var barColor lipgloss.Color
	switch {
	case pct >= 0.8:
		barColor = t.Done
	case pct >= 0.4:
		barColor = t.InProgress
	default:
		barColor = t.Pending
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// GradientBar renders a bubbles progress bar without a percentage, used
// for the headline completion figures.
func GradientBar(pct float64, width int) string {
	t := theme.Active
	pct = max(0, min(pct, 1))

	bar := progress.New(
		progress.WithGradient(string(t.Contractual), string(t.Done)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)
	return bar.ViewAs(pct)
}
