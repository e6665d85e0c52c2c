package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/cdash/internal/model"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Write the filtered task table and deliverables to a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

const (
	sheetTasks        = "Tarefas"
	sheetDeliverables = "Entregáveis"
	sheetCategories   = "Categorias"
)

func runExport(cmd *cobra.Command, args []string) error {
	out := args[0]
	if !strings.EqualFold(filepath.Ext(out), ".xlsx") {
		out += ".xlsx"
	}

	_, dash, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeWorkbook(f, dash); err != nil {
		return err
	}
	if err := f.SaveAs(out); err != nil {
		return fmt.Errorf("saving %s: %w", out, err)
	}
	fmt.Printf("  Wrote %d tasks to %s\n", len(dash.Tasks), out)
	return nil
}

// writeWorkbook fills f with one sheet per table. Money is written in reais
// with a currency number format.
func writeWorkbook(f *excelize.File, dash model.Dashboard) error {
	if err := f.SetSheetName(f.GetSheetName(0), sheetTasks); err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(`"R$" #,##0.00`)})
	if err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	taskRows := make([][]any, 0, len(dash.Tasks))
	for _, t := range dash.Tasks {
		var balance any
		if t.HasBalance {
			balance = reais(t.BalanceCents)
		}
		taskRows = append(taskRows, []any{
			t.Key, t.Summary, t.Category, t.School, t.Status,
			reais(t.ContractualCents), reais(t.MeasuredCents), balance,
		})
	}
	if err := writeSheet(f, sheetTasks, header, money, "F", "H",
		[]any{"Chave", "Resumo", "Categoria", "Escola", "Status", "Contratual", "Medido", "Saldo"},
		taskRows); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetDeliverables); err != nil {
		return err
	}
	delRows := make([][]any, 0, len(dash.Deliverables))
	for _, d := range dash.Deliverables {
		delRows = append(delRows, []any{
			d.Key, d.Summary, d.School, d.Status, d.Completed, d.Total,
			reais(d.ContractualCents), reais(d.EstimatedCents),
		})
	}
	if err := writeSheet(f, sheetDeliverables, header, money, "G", "H",
		[]any{"Chave", "Resumo", "Escola", "Status", "Concluídos", "Total", "Contratual", "Estimado"},
		delRows); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetCategories); err != nil {
		return err
	}
	catRows := make([][]any, 0, len(dash.Categories))
	for _, c := range dash.Categories {
		catRows = append(catRows, []any{
			c.Name, c.Tasks, reais(c.ContractualCents), reais(c.MeasuredCents), reais(c.BalanceCents()),
		})
	}
	return writeSheet(f, sheetCategories, header, money, "C", "E",
		[]any{"Categoria", "Tarefas", "Contratual", "Medido", "Saldo"},
		catRows)
}

// writeSheet writes a header row and data rows, styling the money columns
// firstMoney..lastMoney.
func writeSheet(f *excelize.File, sheet string, headerStyle, moneyStyle int, firstMoney, lastMoney string, headers []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(sheet, firstMoney+"2", fmt.Sprintf("%s%d", lastMoney, len(rows)+1), moneyStyle); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func reais(cents int64) float64 { return float64(cents) / 100 }

func strPtr(s string) *string { return &s }
