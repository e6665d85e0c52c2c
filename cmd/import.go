package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/cdash/internal/cli"
	"github.com/theirongolddev/cdash/internal/config"
	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/remote"
	"github.com/theirongolddev/cdash/internal/source"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Store local exports in the bucket",
	Long:  "Store local exports in the bucket. With --server the files are uploaded to that server instead, which needs its admin key.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

var importAs string

func init() {
	importCmd.Flags().StringVar(&importAs, "as", "", "Object key to store a single file under (default: file name)")
	rootCmd.AddCommand(importCmd)
}

// storeFunc saves one export and returns the key and size it was stored as.
type storeFunc func(ctx context.Context, key string, data []byte) (string, int64, error)

func runImport(cmd *cobra.Command, args []string) error {
	if importAs != "" && len(args) > 1 {
		return errors.New("--as needs exactly one file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	put, closeDst, err := openDestination(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeDst()

	for _, path := range args {
		key := filepath.Base(path)
		if importAs != "" {
			key = importAs
		}
		if !source.IsExport(key) {
			return fmt.Errorf("%s: only .csv and .xlsx exports can be imported", key)
		}

		data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the local user
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		// Reject files that would not load later.
		res, err := pipeline.LoadBytes(key, data)
		if err != nil {
			return err
		}

		stored, size, err := put(cmd.Context(), key, data)
		if err != nil {
			return fmt.Errorf("storing %s: %w", key, err)
		}
		fmt.Printf("  Stored %s (%s bytes, %d tasks, %d subtasks)\n",
			stored, cli.FormatNumber(size), res.Tasks, res.Subtasks)
	}
	return nil
}

// openDestination returns the upload path for imports: the remote server
// when configured, otherwise the local bucket.
func openDestination(ctx context.Context, cfg config.Config) (storeFunc, func(), error) {
	if cfg.Remote.URL != "" {
		c, err := remote.NewClient(cfg.Remote.URL, cfg.Remote.AccessKey)
		if err != nil {
			return nil, nil, err
		}
		if err := c.Verify(ctx); err != nil {
			if errors.Is(err, remote.ErrUnauthorized) {
				return nil, nil, fmt.Errorf("%s rejected the access key: uploads need the admin key (--access-key)", c)
			}
			return nil, nil, err
		}
		progress("  Uploading to %s\n", c)
		return func(ctx context.Context, key string, data []byte) (string, int64, error) {
			stored, err := c.Upload(ctx, key, data)
			return stored, int64(len(data)), err
		}, func() {}, nil
	}

	b, err := openBucket(cfg)
	if err != nil {
		return nil, nil, err
	}
	return func(ctx context.Context, key string, data []byte) (string, int64, error) {
		up, err := b.Put(ctx, key, data)
		return up.Key, up.Size, err
	}, func() { _ = b.Close() }, nil
}
