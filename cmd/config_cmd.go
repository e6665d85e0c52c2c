package cmd

import (
	"fmt"

	"github.com/theirongolddev/cdash/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long:  "Show the effective configuration after environment overrides. Keys are masked.",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Bucket:      %s\n", config.BucketPath(cfg))
	if cfg.General.ExportsDir != "" {
		fmt.Printf("    Exports dir: %s\n", cfg.General.ExportsDir)
	}
	fmt.Printf("    Top schools: %d\n", cfg.General.TopSchools)
	fmt.Println()

	fmt.Println("  [Access]")
	fmt.Printf("    Admin key:     %s\n", config.MaskKey(cfg.Access.AdminKey))
	fmt.Printf("    Read-only key: %s\n", config.MaskKey(cfg.Access.ReadOnlyKey))
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address: %s\n", cfg.Server.Addr)
	fmt.Printf("    Poll:    %s\n", config.PollInterval(cfg))
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `cdash setup` to reconfigure.")
	return nil
}
