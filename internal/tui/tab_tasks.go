package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/tui/components"
	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// renderTasksTab shows the task table for the current criteria. The search
// query set with '/' narrows it by key, summary, category or school.
func (a App) renderTasksTab(cw, h int) string {
	t := theme.Active
	tasks := a.dash.Tasks

	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	compact := a.isCompactLayout()

	const keyW, statusW, moneyW = 12, 16, 15
	schoolW := 0
	if !compact {
		schoolW = 22
	}
	moneyCols := 3
	summaryW := max(inner-keyW-statusW-schoolW-moneyCols*(moneyW+1), 12)

	var b strings.Builder
	hdr := fmt.Sprintf("%-*s%-*s", keyW, "Chave", summaryW, "Resumo")
	if schoolW > 0 {
		hdr += fmt.Sprintf("%-*s", schoolW, "Escola")
	}
	hdr += fmt.Sprintf("%-*s %*s %*s %*s", statusW-1, "Status", moneyW, "Contratual", moneyW, "Medido", moneyW, "Saldo")
	b.WriteString(head.Render(hdr))
	b.WriteString("\n")

	if len(tasks) == 0 {
		b.WriteString(dim.Render("Nenhuma tarefa com os filtros atuais"))
		return components.ContentCard("Tarefas", b.String(), cw)
	}

	visible := max(h-6, 1)
	start := min(a.scroll, len(tasks)-1)
	end := min(start+visible, len(tasks))

	for _, tl := range tasks[start:end] {
		line := value.Render(fmt.Sprintf("%-*s%-*s",
			keyW, cli.Truncate(tl.Key, keyW-1),
			summaryW, cli.Truncate(tl.Summary, summaryW-1)))
		if schoolW > 0 {
			line += value.Render(fmt.Sprintf("%-*s", schoolW, cli.Truncate(cli.OrPlaceholder(tl.School), schoolW-1)))
		}
		dot := lipgloss.NewStyle().Foreground(t.StatusColor(tl.Status)).Background(t.Surface).Render("●")
		line += dot + space.Render(" ") + value.Render(fmt.Sprintf("%-*s", statusW-3, cli.Truncate(tl.Status, statusW-4)))

		balance := cli.Placeholder
		if tl.HasBalance {
			balance = cli.FormatBRL(tl.BalanceCents)
		}
		line += value.Render(fmt.Sprintf(" %*s %*s %*s",
			moneyW, cli.FormatBRL(tl.ContractualCents),
			moneyW, cli.FormatBRL(tl.MeasuredCents),
			moneyW, balance))
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(dim.Render(fmt.Sprintf("%d-%d de %d · / para buscar", start+1, end, len(tasks))))

	title := "Tarefas"
	if a.criteria.Query != "" {
		title += fmt.Sprintf(" (busca: %q)", a.criteria.Query)
	}
	return components.ContentCard(title, b.String(), cw)
}
