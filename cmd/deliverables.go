package cmd

import (
	"fmt"

	"github.com/theirongolddev/cdash/internal/cli"

	"github.com/spf13/cobra"
)

var deliverablesCmd = &cobra.Command{
	Use:     "deliverables",
	Aliases: []string{"entregaveis"},
	Short:   "Subtask completion per task, lowest first",
	RunE:    runDeliverables,
}

var deliverablesLimit int

func init() {
	deliverablesCmd.Flags().IntVarP(&deliverablesLimit, "limit", "l", 30, "Number of tasks to show (0 for all)")
	rootCmd.AddCommand(deliverablesCmd)
}

func runDeliverables(cmd *cobra.Command, _ []string) error {
	res, dash, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	progress := dash.Deliverables
	if len(progress) == 0 {
		fmt.Println("\n  No tasks match the selected filters.")
		return nil
	}
	total := len(progress)
	if deliverablesLimit > 0 && len(progress) > deliverablesLimit {
		progress = progress[:deliverablesLimit]
	}

	printHeader(fmt.Sprintf("ENTREGÁVEIS  %s (showing %d of %d)", res.Label, len(progress), total), criteria())

	rows := make([][]string, 0, len(progress))
	for _, p := range progress {
		estimated := cli.Placeholder
		if p.Total > 0 {
			estimated = cli.FormatBRL(p.EstimatedCents)
		}
		rows = append(rows, []string{
			p.Key,
			cli.Truncate(p.Summary, 32),
			cli.Truncate(cli.OrPlaceholder(p.School), 20),
			cli.OrPlaceholder(p.Status),
			cli.FormatRatio(p.Completed, p.Total, p.Percent),
			cli.FormatBRL(p.ContractualCents),
			estimated,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Chave", "Resumo", "Escola", "Status", "Entregáveis", "Contratual", "Estimado"},
		Rows:     rows,
		TextCols: 4,
	}))
	fmt.Println()
	printRollup(dash.Rollup, dash.Totals)
	return nil
}
