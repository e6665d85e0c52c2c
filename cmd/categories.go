package cmd

import (
	"fmt"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/model"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Contractual vs measured value per category",
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	res, dash, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	if len(dash.Categories) == 0 {
		fmt.Println("\n  No tasks match the selected filters.")
		return nil
	}

	printHeader("CATEGORIAS  "+res.Label, criteria())
	fmt.Print(renderGroupTable("Categoria", dash.Categories))
	return nil
}

// renderGroupTable renders per-group sums with a bar scaled to the largest
// contractual value.
func renderGroupTable(label string, groups []model.GroupTotals) string {
	var maxCents int64
	for _, g := range groups {
		maxCents = max(maxCents, g.ContractualCents)
	}

	rows := make([][]string, 0, len(groups))
	var tasks int
	var contractual, measured int64
	for _, g := range groups {
		tasks += g.Tasks
		contractual += g.ContractualCents
		measured += g.MeasuredCents
		rows = append(rows, []string{
			cli.Truncate(g.Name, 28),
			cli.FormatNumber(int64(g.Tasks)),
			cli.FormatBRL(g.ContractualCents),
			cli.FormatBRL(g.MeasuredCents),
			cli.FormatBRL(g.BalanceCents()),
			cli.RenderHorizontalBar(float64(g.ContractualCents), float64(maxCents), 16, cli.ColorBrand600),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		"Total",
		cli.FormatNumber(int64(tasks)),
		cli.FormatBRL(contractual),
		cli.FormatBRL(measured),
		cli.FormatBRL(contractual - measured),
		"",
	})

	return cli.RenderTable(cli.Table{
		Headers: []string{label, "Tarefas", "Contratual", "Medido", "Saldo", ""},
		Rows:    rows,
	})
}
