// Package cmd implements the cdash CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/config"
	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/remote"
	"github.com/theirongolddev/cdash/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagFile      string
	flagKey       string
	flagBucket    string
	flagCategory  string
	flagSchool    string
	flagStatus    string
	flagQuery     string
	flagQuiet     bool
	flagServer    string
	flagRemoteKey string
)

var rootCmd = &cobra.Command{
	Use:   "cdash",
	Short: "Contract progress dashboard",
	Long:  "Summarize tracker exports: contractual vs measured value, task status, deliverables and balances per school.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Load a local export (.csv or .xlsx) instead of the bucket")
	rootCmd.PersistentFlags().StringVarP(&flagKey, "key", "k", "", "Bucket object to load (default: newest)")
	rootCmd.PersistentFlags().StringVar(&flagBucket, "bucket", "", "Bucket database path (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagCategory, "category", "c", "", "Filter to category (exact)")
	rootCmd.PersistentFlags().StringVarP(&flagSchool, "school", "s", "", "Filter to school (exact)")
	rootCmd.PersistentFlags().StringVar(&flagStatus, "status", "", "Filter to status (Pendente, Em andamento, Concluído)")
	rootCmd.PersistentFlags().StringVar(&flagQuery, "query", "", "Filter by key or summary (case-insensitive substring)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Read exports from a cdash server (http://host:port) instead of the local bucket")
	rootCmd.PersistentFlags().StringVar(&flagRemoteKey, "access-key", "", "Access key sent to --server")
}

// loadConfig reads the config file and applies environment and flag
// overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	cfg, err = config.Resolve(cfg)
	if err != nil {
		return cfg, err
	}
	if flagBucket != "" {
		cfg.General.BucketPath = flagBucket
	}
	if flagServer != "" {
		cfg.Remote.URL = flagServer
	}
	if flagRemoteKey != "" {
		cfg.Remote.AccessKey = flagRemoteKey
	}
	return cfg, nil
}

// openSource returns where exports are read from: the configured remote
// server when set, otherwise the local bucket. closeFn is never nil.
func openSource(cfg config.Config) (src pipeline.ObjectSource, label string, closeFn func(), err error) {
	if cfg.Remote.URL != "" {
		c, err := remote.NewClient(cfg.Remote.URL, cfg.Remote.AccessKey)
		if err != nil {
			return nil, "", nil, err
		}
		return c, c.String(), func() {}, nil
	}
	b, err := openBucket(cfg)
	if err != nil {
		return nil, "", nil, err
	}
	return b, config.BucketPath(cfg), func() { _ = b.Close() }, nil
}

// openBucket opens the configured export bucket.
func openBucket(cfg config.Config) (*store.Bucket, error) {
	path := config.BucketPath(cfg)
	b, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", path, err)
	}
	return b, nil
}

// loadData is the shared data loading path used by all report commands.
// --file wins over the bucket.
func loadData(ctx context.Context) (*pipeline.LoadResult, error) {
	var (
		res *pipeline.LoadResult
		err error
	)

	if flagFile != "" {
		progress("  Reading %s...\n", flagFile)
		res, err = pipeline.LoadFile(flagFile)
	} else {
		cfg, cfgErr := loadConfig()
		if cfgErr != nil {
			return nil, cfgErr
		}
		src, label, closeSrc, openErr := openSource(cfg)
		if openErr != nil {
			return nil, openErr
		}
		defer closeSrc()

		progress("  Loading from %s...\n", label)
		res, err = pipeline.LoadObject(ctx, src, flagKey)
		if errors.Is(err, pipeline.ErrNoSources) {
			return nil, errors.New("no exports found: run `cdash import <file>` (add --server to upload to a server) or pass --file")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no export named %q in %s (see `cdash sources`)", flagKey, label)
		}
	}
	if err != nil {
		return nil, err
	}

	progress("  Loaded %s rows from %s (%d tasks, %d subtasks)\n",
		cli.FormatNumber(int64(len(res.Rows))), res.Label, res.Tasks, res.Subtasks)
	if res.ParseErrors > 0 {
		progress("  %d malformed lines were skipped\n", res.ParseErrors)
	}
	return res, nil
}

// criteria builds the filter from the persistent flags.
func criteria() pipeline.Criteria {
	return pipeline.Criteria{
		Category: flagCategory,
		School:   flagSchool,
		Status:   flagStatus,
		Query:    flagQuery,
	}
}

// filterLabel describes the active filters for report titles.
func filterLabel(c pipeline.Criteria) string {
	var parts []string
	if c.Category != "" {
		parts = append(parts, "categoria="+c.Category)
	}
	if c.School != "" {
		parts = append(parts, "escola="+c.School)
	}
	if c.Status != "" {
		parts = append(parts, "status="+c.Status)
	}
	if c.Query != "" {
		parts = append(parts, fmt.Sprintf("busca=%q", c.Query))
	}
	return strings.Join(parts, "  ")
}

// loadDashboard loads the active export, applies the flag filters and
// aggregates what remains.
func loadDashboard(ctx context.Context) (*pipeline.LoadResult, model.Dashboard, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, model.Dashboard{}, err
	}
	res, err := loadData(ctx)
	if err != nil {
		return nil, model.Dashboard{}, err
	}
	return res, pipeline.Build(pipeline.Filter(res.Rows, criteria()), cfg.General.TopSchools), nil
}

func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// printHeader prints a report title and the filter line, if any.
func printHeader(title string, c pipeline.Criteria) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	if l := filterLabel(c); l != "" {
		fmt.Println(cli.RenderNote("Filtros: " + l))
	}
	fmt.Println()
}
