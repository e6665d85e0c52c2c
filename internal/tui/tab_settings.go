package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/config"
	"github.com/theirongolddev/cdash/internal/tui/components"
	"github.com/theirongolddev/cdash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxTopSchools = 100

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int // index into theme.All
	saved   bool
	saveErr error
}

func newSettingsState(cfg config.Config) settingsState {
	s := settingsState{}
	for i, t := range theme.All {
		if t.Name == cfg.Appearance.Theme {
			s.cursor = i
		}
	}
	return s
}

// updateSettingsKey handles keys owned by the settings tab. ok is false
// when the key should fall through to the global bindings.
func (a App) updateSettingsKey(key string) (m tea.Model, cmd tea.Cmd, ok bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < len(theme.All)-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter":
		a.cfg.Appearance.Theme = theme.All[a.settings.cursor].Name
		theme.SetActive(a.cfg.Appearance.Theme)
		a.settingsSave()
	case "+", "=":
		if a.top < maxTopSchools {
			a.top++
			a.cfg.General.TopSchools = a.top
			a.recompute()
			a.settingsSave()
		}
	case "-":
		if a.top > 1 {
			a.top--
			a.cfg.General.TopSchools = a.top
			a.recompute()
			a.settingsSave()
		}
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a *App) settingsSave() {
	a.settings.saveErr = config.Save(a.cfg)
	a.settings.saved = a.settings.saveErr == nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	doneStyle := lipgloss.NewStyle().Foreground(t.Done).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)
	innerW := components.CardInnerWidth(cw)

	var form strings.Builder
	for i, th := range theme.All {
		name := th.Name
		if th.Name == t.Name {
			name += " (active)"
		}
		swatch := lipgloss.NewStyle().Foreground(th.Accent).Background(t.Surface).Render("■") +
			lipgloss.NewStyle().Foreground(th.Done).Background(t.Surface).Render("■") +
			lipgloss.NewStyle().Foreground(th.Pending).Background(t.Surface).Render("■")

		if i == a.settings.cursor {
			line := markerStyle.Render("▸ ") + selectedStyle.Render(fmt.Sprintf("%-28s", name))
			if pad := innerW - lipgloss.Width(line) - 4; pad > 0 {
				line += lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad))
			}
			form.WriteString(line + labelStyle.Render(" ") + swatch)
		} else {
			form.WriteString(labelStyle.Render("  ") + valueStyle.Render(fmt.Sprintf("%-28s", name)))
			form.WriteString(labelStyle.Render(strings.Repeat(" ", max(innerW-31, 0))) + swatch)
		}
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("Top escolas: ") + valueStyle.Render(fmt.Sprintf("%d", a.top)))
	form.WriteString("\n")

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
		form.WriteString("\n")
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(doneStyle.Render("Saved!"))
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] apply theme  [+/-] top schools"))

	var info strings.Builder
	row := func(label, value string) {
		info.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", label)) + valueStyle.Render(value) + "\n")
	}
	if r := a.result; r != nil {
		row("Source:", r.Label)
		row("Rows:", cli.FormatNumber(int64(len(r.Rows))))
		row("Tasks:", cli.FormatNumber(int64(r.Tasks)))
		row("Subtasks:", cli.FormatNumber(int64(r.Subtasks)))
		row("Skipped records:", cli.FormatNumber(int64(r.ParseErrors)))
	}
	row("Load time:", fmt.Sprintf("%.1fs", a.loadTime.Seconds()))
	row("Bucket:", config.BucketPath(a.cfg))
	row("Admin key:", config.MaskKey(a.cfg.Access.AdminKey))
	row("Read-only key:", config.MaskKey(a.cfg.Access.ReadOnlyKey))
	info.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", "Config file:")) + valueStyle.Render(config.Path()))

	return components.ContentCard("Theme", form.String(), cw) + "\n" +
		components.ContentCard("General", info.String(), cw)
}
