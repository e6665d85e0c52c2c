package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/tui/components"
	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	d := a.dash
	k := d.Totals
	var b strings.Builder

	// Row 1: KPI cards
	cards := []components.Metric{
		{Label: "Valor contratual", Value: cli.FormatBRL(k.ContractualCents), Note: cli.FormatNumber(int64(k.Tasks)) + " tarefas"},
		{Label: "Valor medido", Value: cli.FormatBRL(k.MeasuredCents), Note: cli.FormatPct(k.PercentMeasured) + " do contratual"},
		{Label: "Tarefas concluídas", Value: cli.FormatRatio(k.DoneTasks, k.Tasks, share(k.DoneTasks, k.Tasks))},
		{Label: "Saldo a pagar", Value: cli.FormatBRL(k.BalanceDueCents), Note: "tarefas concluídas"},
	}
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(cards[:2], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(cards[2:], cw))
	} else {
		b.WriteString(components.MetricCardRow(cards, cw))
	}
	b.WriteString("\n")

	// Row 2: status distribution + finance split
	halves := components.LayoutRow(cw, 2)
	statusCard := components.ContentCard("Status das tarefas", a.statusChart(components.CardInnerWidth(halves[0])), halves[0])
	financeCard := components.ContentCard("Medido x a medir", a.financeChart(components.CardInnerWidth(halves[1])), halves[1])
	if a.isCompactLayout() {
		statusCard = components.ContentCard("Status das tarefas", a.statusChart(components.CardInnerWidth(cw)), cw)
		financeCard = components.ContentCard("Medido x a medir", a.financeChart(components.CardInnerWidth(cw)), cw)
		b.WriteString(statusCard)
		b.WriteString("\n")
		b.WriteString(financeCard)
	} else {
		b.WriteString(components.CardRow([]string{statusCard, financeCard}))
	}
	b.WriteString("\n")

	// Row 3: deliverable rollup
	r := d.Rollup
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	barW := min(components.CardInnerWidth(cw)-30, 60)

	var rb strings.Builder
	rb.WriteString(muted.Render(fmt.Sprintf("%-24s", "Entregáveis concluídos")))
	rb.WriteString(value.Render(cli.FormatRatio(r.Completed, r.Total, r.Percent)))
	rb.WriteString("\n")
	rb.WriteString(components.GradientBar(r.Percent/100, barW))
	rb.WriteString("\n")
	rb.WriteString(muted.Render(fmt.Sprintf("%-24s", "Equivalência estimada")))
	rb.WriteString(value.Render(cli.FormatBRL(r.EstimatedCents)))
	rb.WriteString(muted.Render(" (" + cli.FormatPct(r.EstimatedPercent) + " do contratual)"))
	b.WriteString(components.ContentCard("Entregáveis", rb.String(), cw))

	return b.String()
}

func (a App) statusChart(w int) string {
	t := theme.Active
	total := 0
	for _, s := range a.dash.Statuses {
		total += s.Count
	}
	if total == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("Sem tarefas")
	}

	bars := make([]components.Bar, 0, len(a.dash.Statuses))
	for _, s := range a.dash.Statuses {
		bars = append(bars, components.Bar{
			Label: s.Status,
			Value: float64(s.Count),
			Text:  cli.FormatRatio(s.Count, total, share(s.Count, total)),
			Color: t.StatusColor(s.Status),
		})
	}
	return components.HBarChart(bars, 14, w)
}

func (a App) financeChart(w int) string {
	t := theme.Active
	f := a.dash.Finance
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(components.SplitBar([]components.Segment{
		{Value: float64(f.MeasuredCents), Color: t.Measured},
		{Value: float64(f.OutstandingCents), Color: t.Contractual},
	}, w))
	b.WriteString("\n\n")
	b.WriteString(components.Legend([]components.Bar{
		{Label: "Medido " + cli.FormatBRL(f.MeasuredCents), Color: t.Measured},
	}))
	b.WriteString("\n")
	b.WriteString(components.Legend([]components.Bar{
		{Label: "A medir " + cli.FormatBRL(f.OutstandingCents), Color: t.Contractual},
	}))
	if total := f.MeasuredCents + f.OutstandingCents; total > 0 {
		b.WriteString("\n")
		b.WriteString(muted.Render(cli.FormatPct(float64(f.MeasuredCents) / float64(total) * 100) + " medido"))
	}
	return b.String()
}

// share is part as a 0-100 percentage of whole.
func share(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
