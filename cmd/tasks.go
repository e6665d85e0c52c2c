package cmd

import (
	"fmt"

	"github.com/theirongolddev/cdash/internal/cli"

	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Task table with contractual, measured and balance values",
	RunE:  runTasks,
}

var tasksLimit int

func init() {
	tasksCmd.Flags().IntVarP(&tasksLimit, "limit", "l", 50, "Number of tasks to show (0 for all)")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	res, dash, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	lines := dash.Tasks
	if len(lines) == 0 {
		fmt.Println("\n  No tasks match the selected filters.")
		return nil
	}
	total := len(lines)
	if tasksLimit > 0 && len(lines) > tasksLimit {
		lines = lines[:tasksLimit]
	}

	printHeader(fmt.Sprintf("TAREFAS  %s (showing %d of %d)", res.Label, len(lines), total), criteria())

	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		balance := cli.Placeholder
		if l.HasBalance {
			balance = cli.FormatBRL(l.BalanceCents)
		}
		rows = append(rows, []string{
			l.Key,
			cli.Truncate(l.Summary, 32),
			cli.Truncate(cli.OrPlaceholder(l.Category), 16),
			cli.Truncate(cli.OrPlaceholder(l.School), 20),
			cli.OrPlaceholder(l.Status),
			cli.FormatBRL(l.ContractualCents),
			cli.FormatBRL(l.MeasuredCents),
			balance,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Chave", "Resumo", "Categoria", "Escola", "Status", "Contratual", "Medido", "Saldo"},
		Rows:     rows,
		TextCols: 5,
	}))
	fmt.Println(cli.RenderNote("Saldo é exibido apenas para tarefas concluídas."))
	return nil
}
