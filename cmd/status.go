package cmd

import (
	"fmt"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/model"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Task counts per status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	res, dash, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	printHeader("STATUS  "+res.Label, criteria())
	if dash.Totals.Tasks == 0 {
		fmt.Println("  No tasks match the selected filters.")
		return nil
	}
	fmt.Print(renderStatusTable(dash.Statuses, dash.Totals.Tasks))
	return nil
}

func renderStatusTable(counts []model.StatusCount, tasks int) string {
	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c.Count)
	}

	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{
			cli.RenderStatus(c.Status),
			cli.FormatNumber(int64(c.Count)),
			cli.FormatPct(ratio(c.Count, tasks)),
			cli.RenderHorizontalBar(float64(c.Count), float64(maxCount), 24, cli.StatusColor(c.Status)),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:    "Status das tarefas",
		Headers:  []string{"Status", "Tarefas", "%", ""},
		Rows:     rows,
		TextCols: 1,
	})
}
