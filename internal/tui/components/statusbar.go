package components

import (
	"strings"

	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// the active source on the right.
func RenderStatusBar(width int, source string, watching, reloading bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [?]help  [/]busca  [1-3]filtros  [0]limpar  [r]recarregar  [q]uit"
	right := source
	switch {
	case reloading:
		right += " · recarregando…"
	case watching:
		right += " · observando"
	}
	right += " "

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		// Drop hints before the source name.
		left = " [?]help"
		padding = max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
