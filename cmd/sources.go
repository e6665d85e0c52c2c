package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/source"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List exports in the bucket, or inventory a local directory",
	RunE:  runSources,
}

var (
	sourcesDir   string
	sourcesLocal bool
)

func init() {
	sourcesCmd.Flags().StringVar(&sourcesDir, "dir", "", "Scan a local directory of exports instead of the bucket")
	sourcesCmd.Flags().BoolVar(&sourcesLocal, "local", false, "Scan the configured exports_dir instead of the bucket")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := sourcesDir
	if dir == "" && sourcesLocal {
		dir = cfg.General.ExportsDir
		if dir == "" {
			dir = "."
		}
	}
	if dir != "" {
		return runSourcesDir(cmd, dir)
	}

	src, label, closeSrc, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	objs, err := src.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing %s: %w", label, err)
	}
	if len(objs) == 0 {
		fmt.Println("\n  No exports yet. Add one with `cdash import <file>` (add --server to upload to a server).")
		return nil
	}

	printHeader("EXPORTS  "+label, pipeline.Criteria{})

	rows := make([][]string, 0, len(objs))
	for i, o := range objs {
		mark := ""
		if i == 0 {
			mark = "●"
		}
		rows = append(rows, []string{
			mark,
			o.Key,
			o.LastModified.Local().Format("02/01/2006 15:04"),
			cli.FormatNumber(o.Size),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"", "Chave", "Modificado", "Bytes"},
		Rows:     rows,
		TextCols: 3,
	}))
	fmt.Println(cli.RenderNote("● newest export, loaded by default"))
	return nil
}

func runSourcesDir(cmd *cobra.Command, dir string) error {
	progress("  Scanning %s...\n", dir)
	files, err := source.ScanDir(dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		fmt.Printf("\n  No .csv or .xlsx exports found in %s\n", dir)
		return nil
	}

	stats, err := pipeline.Inventory(cmd.Context(), files, func(current, total int) {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	})
	progress("\n")
	if err != nil {
		return err
	}

	printHeader("EXPORTS  "+dir, pipeline.Criteria{})

	rows := make([][]string, 0, len(stats))
	failed := 0
	for _, st := range stats {
		if st.Err != nil {
			failed++
			rows = append(rows, []string{
				cli.Truncate(st.File.Name, 32),
				st.File.ModTime.Local().Format("02/01/2006 15:04"),
				"erro", "", "", "",
			})
			continue
		}
		rows = append(rows, []string{
			cli.Truncate(st.File.Name, 32),
			st.File.ModTime.Local().Format("02/01/2006 15:04"),
			cli.FormatNumber(int64(st.Rows)),
			cli.FormatNumber(int64(st.Tasks)),
			cli.FormatNumber(int64(st.Subtasks)),
			cli.FormatBRL(st.Totals.ContractualCents),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Arquivo", "Modificado", "Linhas", "Tarefas", "Subtarefas", "Contratual"},
		Rows:     rows,
		TextCols: 2,
	}))
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be parsed\n", failed)
	}
	return nil
}
