package components

import (
	"strings"

	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one labeled value of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
	Text  string // rendered to the right of the bar
	Color lipgloss.Color
}

// HBarChart renders one bar per line, scaled to the largest value.
// Labels are truncated to labelW cells.
func HBarChart(bars []Bar, labelW, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	textW := 0
	peak := 0.0
	for _, b := range bars {
		textW = max(textW, lipgloss.Width(b.Text))
		peak = max(peak, b.Value)
	}
	barW := width - labelW - textW - 2
	if barW < 4 {
		barW = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		n := 0
		if peak > 0 && b.Value > 0 {
			n = int(b.Value / peak * float64(barW))
			if n < 1 {
				n = 1
			}
		}
		n = min(n, barW)
		fill := lipgloss.NewStyle().Foreground(b.Color).Background(t.Surface)

		var sb strings.Builder
		sb.WriteString(labelStyle.Render(padRight(truncate(b.Label, labelW), labelW)))
		sb.WriteString(space.Render(" "))
		sb.WriteString(fill.Render(strings.Repeat("█", n)))
		sb.WriteString(emptyStyle.Render(strings.Repeat("·", barW-n)))
		sb.WriteString(space.Render(" "))
		sb.WriteString(textStyle.Render(strings.Repeat(" ", textW-lipgloss.Width(b.Text)) + b.Text))
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// Segment is one part of a SplitBar.
type Segment struct {
	Value float64
	Color lipgloss.Color
}

// SplitBar renders a single bar divided proportionally between segments.
func SplitBar(segments []Segment, width int) string {
	t := theme.Active
	total := 0.0
	for _, s := range segments {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total == 0 || width <= 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(strings.Repeat("░", max(width, 0)))
	}

	var sb strings.Builder
	used := 0
	for i, s := range segments {
		n := int(s.Value / total * float64(width))
		if s.Value <= 0 {
			n = 0
		}
		if i == len(segments)-1 {
			n = width - used
		}
		used += n
		sb.WriteString(lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface).Render(strings.Repeat("█", n)))
	}
	return sb.String()
}

// Legend renders "● label" pairs on one line.
func Legend(items []Bar) string {
	t := theme.Active
	text := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	parts := make([]string, 0, len(items))
	for _, it := range items {
		dot := lipgloss.NewStyle().Foreground(it.Color).Background(t.Surface).Render("●")
		parts = append(parts, dot+text.Render(" "+it.Label))
	}
	return strings.Join(parts, text.Render("   "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func padRight(s string, w int) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
