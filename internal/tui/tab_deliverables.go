package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/tui/components"
	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// renderDeliverablesTab lists task completion by subtasks, lowest first.
func (a App) renderDeliverablesTab(cw, h int) string {
	t := theme.Active
	d := a.dash

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	summaryW := max(inner-12-16-12-24, 12)
	barW := 10

	var b strings.Builder
	r := d.Rollup
	b.WriteString(muted.Render("Global ") +
		value.Render(cli.FormatRatio(r.Completed, r.Total, r.Percent)) +
		muted.Render("   estimado ") + value.Render(cli.FormatBRL(r.EstimatedCents)) +
		muted.Render(" ("+cli.FormatPct(r.EstimatedPercent)+")"))
	b.WriteString("\n\n")

	b.WriteString(head.Render(fmt.Sprintf("%-12s%-*s%16s  %-*s  %10s", "Chave", summaryW, "Resumo", "Contratual", barW+5, "Progresso", "Estimado")))
	b.WriteString("\n")

	if len(d.Deliverables) == 0 {
		b.WriteString(dim.Render("Nenhuma tarefa com os filtros atuais"))
		return components.ContentCard("Entregáveis", b.String(), cw)
	}

	visible := max(h-8, 1)
	start := min(a.scroll, len(d.Deliverables)-1)
	end := min(start+visible, len(d.Deliverables))

	for _, p := range d.Deliverables[start:end] {
		progress := cli.Placeholder
		if p.Total > 0 {
			progress = components.ProgressBar(p.Percent/100, barW)
		}
		line := value.Render(fmt.Sprintf("%-12s%-*s%16s  ",
			cli.Truncate(p.Key, 11),
			summaryW, cli.Truncate(p.Summary, summaryW-1),
			cli.FormatBRL(p.ContractualCents)))
		line += lipgloss.NewStyle().Width(barW+5).Background(t.Surface).Render(progress)
		est := cli.Placeholder
		if p.Total > 0 {
			est = cli.FormatBRLShort(p.EstimatedCents)
		}
		line += value.Render(fmt.Sprintf("  %10s", est))
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(dim.Render(fmt.Sprintf("%d-%d de %d · j/k para rolar", start+1, end, len(d.Deliverables))))

	return components.ContentCard("Entregáveis", b.String(), cw)
}
