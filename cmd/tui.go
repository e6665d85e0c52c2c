package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/tui"
	"github.com/theirongolddev/cdash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Long:  "Browse the active export interactively. With --file the dashboard reloads whenever the file changes.",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	// The alt screen owns the terminal; progress lines would corrupt it.
	flagQuiet = true

	label := flagFile
	if label == "" {
		label = "bucket"
	}
	src := tui.Source{
		Label:     label,
		WatchPath: flagFile,
		Load: func(ctx context.Context) (*pipeline.LoadResult, error) {
			return loadData(ctx)
		},
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app := tui.NewApp(ctx, cfg, src, criteria())
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
