package cmd

import (
	"fmt"

	"github.com/theirongolddev/cdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var schoolsCmd = &cobra.Command{
	Use:   "schools",
	Short: "Schools ranked by outstanding balance",
	RunE:  runSchools,
}

var (
	schoolsTop int
	schoolsAll bool
)

func init() {
	schoolsCmd.Flags().IntVarP(&schoolsTop, "top", "n", 0, "Number of schools to rank (default from config)")
	schoolsCmd.Flags().BoolVar(&schoolsAll, "all", false, "List every school alphabetically instead of ranking")
	rootCmd.AddCommand(schoolsCmd)
}

func runSchools(cmd *cobra.Command, _ []string) error {
	res, dash, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	if len(dash.Schools) == 0 {
		fmt.Println("\n  No tasks match the selected filters.")
		return nil
	}

	if schoolsAll {
		printHeader("ESCOLAS  "+res.Label, criteria())
		fmt.Print(renderGroupTable("Escola", dash.Schools))
		return nil
	}

	top := dash.TopSchools
	if schoolsTop > 0 {
		top = pipeline.TopSchoolBalances(pipeline.Filter(res.Rows, criteria()), schoolsTop)
	}

	printHeader(fmt.Sprintf("ESCOLAS  Top %d por saldo", len(top)), criteria())
	fmt.Print(renderGroupTable("Escola", top))
	return nil
}
