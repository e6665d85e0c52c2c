package cmd

import (
	"fmt"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/model"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline figures: contract, measured, balance, status and deliverables",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	res, dash, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	if res.Tasks == 0 {
		fmt.Println("\n  No tasks found in this export.")
		fmt.Println("  Check that it has a \"Tipo de item\" column with Tarefa rows.")
		return nil
	}

	printHeader("CONTRATO  "+res.Label, criteria())

	if dash.Totals.Tasks == 0 {
		fmt.Println("  No tasks match the selected filters.")
		return nil
	}

	t := dash.Totals
	rows := [][]string{
		{"Valor contratual", cli.FormatBRL(t.ContractualCents)},
		{"Valor medido", cli.FormatBRL(t.MeasuredCents)},
		{"% medido", cli.FormatPct(t.PercentMeasured)},
		{"Saldo a medir (concluídas)", cli.FormatBRL(t.BalanceDueCents)},
		{"---"},
		{"Tarefas", cli.FormatNumber(int64(t.Tasks))},
		{"Concluídas", fmt.Sprintf("%s (%s)",
			cli.FormatNumber(int64(t.DoneTasks)),
			cli.FormatPct(ratio(t.DoneTasks, t.Tasks)))},
		{"---"},
		{"Medido", cli.FormatBRL(dash.Finance.MeasuredCents)},
		{"A medir", cli.FormatBRL(dash.Finance.OutstandingCents)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Indicador", "Valor"},
		Rows:    rows,
	}))
	fmt.Println()

	fmt.Print(renderStatusTable(dash.Statuses, t.Tasks))
	fmt.Println()

	printRollup(dash.Rollup, t)
	return nil
}

// printRollup prints the global deliverable lines.
func printRollup(r model.DeliverableSummary, t model.KPITotals) {
	fmt.Printf("  Entregáveis concluídos: %d/%d (%s)\n", r.Completed, r.Total, cli.FormatPct(r.Percent))
	fmt.Printf("  Equivalência estimada (entregáveis → financeiro): %s de %s (%s)\n",
		cli.FormatBRL(r.EstimatedCents),
		cli.FormatBRL(t.ContractualCents),
		cli.FormatPct(r.EstimatedPercent),
	)
	fmt.Println(cli.RenderNote("Estimativa proporcional ao avanço dos entregáveis; não é valor medido."))
	fmt.Println()
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
