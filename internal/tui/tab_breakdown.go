package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/tui/components"
	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// renderBreakdownTab shows totals per category and the schools with the
// largest open balance.
func (a App) renderBreakdownTab(cw int) string {
	d := a.dash

	var catCard, schoolCard string
	if a.isCompactLayout() {
		catCard = components.ContentCard("Categorias", a.categoryTable(d.Categories, components.CardInnerWidth(cw)), cw)
		schoolCard = components.ContentCard(a.topSchoolsTitle(), a.schoolChart(d.TopSchools, components.CardInnerWidth(cw)), cw)
		return catCard + "\n" + schoolCard
	}

	widths := components.LayoutRow(cw, 2)
	catCard = components.ContentCard("Categorias", a.categoryTable(d.Categories, components.CardInnerWidth(widths[0])), widths[0])
	schoolCard = components.ContentCard(a.topSchoolsTitle(), a.schoolChart(d.TopSchools, components.CardInnerWidth(widths[1])), widths[1])
	return components.CardRow([]string{catCard, schoolCard})
}

func (a App) topSchoolsTitle() string {
	return fmt.Sprintf("Top %d escolas por saldo", a.top)
}

func (a App) categoryTable(groups []model.GroupTotals, w int) string {
	t := theme.Active
	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	if len(groups) == 0 {
		return dim.Render("Nenhuma tarefa com os filtros atuais")
	}

	const countW, moneyW = 7, 11
	nameW := max(w-countW-3*(moneyW+1), 10)

	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("%-*s%*s %*s %*s %*s", nameW, "Categoria", countW, "Tarefas", moneyW, "Contratual", moneyW, "Medido", moneyW, "Saldo")))
	b.WriteString("\n")
	b.WriteString(muted.Render(strings.Repeat("─", nameW+countW+3*(moneyW+1))))
	b.WriteString("\n")

	start := min(a.scroll, len(groups)-1)
	var total model.GroupTotals
	for _, g := range groups {
		total.Tasks += g.Tasks
		total.ContractualCents += g.ContractualCents
		total.MeasuredCents += g.MeasuredCents
	}
	for _, g := range groups[start:] {
		b.WriteString(value.Render(groupLine(g.Name, g, nameW, countW, moneyW)))
		b.WriteString("\n")
	}
	b.WriteString(muted.Render(strings.Repeat("─", nameW+countW+3*(moneyW+1))))
	b.WriteString("\n")
	b.WriteString(head.Render(groupLine("Total", total, nameW, countW, moneyW)))
	return b.String()
}

func groupLine(name string, g model.GroupTotals, nameW, countW, moneyW int) string {
	return fmt.Sprintf("%-*s%*s %*s %*s %*s",
		nameW, cli.Truncate(cli.OrPlaceholder(name), nameW-1),
		countW, cli.FormatNumber(int64(g.Tasks)),
		moneyW, cli.FormatBRLShort(g.ContractualCents),
		moneyW, cli.FormatBRLShort(g.MeasuredCents),
		moneyW, cli.FormatBRLShort(g.BalanceCents()))
}

func (a App) schoolChart(groups []model.GroupTotals, w int) string {
	t := theme.Active
	if len(groups) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("Nenhuma escola com saldo")
	}

	bars := make([]components.Bar, 0, len(groups))
	for _, g := range groups {
		bars = append(bars, components.Bar{
			Label: cli.OrPlaceholder(g.Name),
			Value: float64(g.BalanceCents()),
			Text:  cli.FormatBRLShort(g.BalanceCents()),
			Color: t.School,
		})
	}
	return components.HBarChart(bars, min(24, w/3), w)
}
