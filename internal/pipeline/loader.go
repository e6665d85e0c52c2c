package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/source"

	"golang.org/x/sync/errgroup"
)

// ErrNoSources is returned when a bucket holds no exports to load.
var ErrNoSources = errors.New("no exports found")

// ObjectSource is the read side of an export bucket.
type ObjectSource interface {
	List(ctx context.Context) ([]model.SourceObject, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// LoadResult is one fully decoded export. Loading a new source replaces
// the previous result wholesale.
type LoadResult struct {
	Label       string
	Rows        []model.Row
	Tasks       int
	Subtasks    int
	ParseErrors int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// LoadBytes parses an export already in memory. label names the source
// and its extension selects the parser.
func LoadBytes(label string, data []byte) (*LoadResult, error) {
	pr := source.Parse(label, data)
	if pr.Err != nil {
		return nil, fmt.Errorf("parsing %s: %w", label, pr.Err)
	}
	return newLoadResult(label, pr), nil
}

// LoadFile reads and parses a local export.
func LoadFile(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the local user
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return LoadBytes(filepath.Base(path), data)
}

// LoadObject fetches and parses one export from a bucket. An empty key
// selects the most recently modified export.
func LoadObject(ctx context.Context, src ObjectSource, key string) (*LoadResult, error) {
	if key == "" {
		latest, err := Latest(ctx, src)
		if err != nil {
			return nil, err
		}
		key = latest.Key
	}

	data, err := src.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	return LoadBytes(key, data)
}

// Latest returns the newest export in the bucket.
func Latest(ctx context.Context, src ObjectSource) (model.SourceObject, error) {
	objs, err := src.List(ctx)
	if err != nil {
		return model.SourceObject{}, fmt.Errorf("listing exports: %w", err)
	}
	if len(objs) == 0 {
		return model.SourceObject{}, ErrNoSources
	}
	newest := objs[0]
	for _, o := range objs[1:] {
		if o.LastModified.After(newest.LastModified) {
			newest = o
		}
	}
	return newest, nil
}

func newLoadResult(label string, pr source.ParseResult) *LoadResult {
	res := &LoadResult{
		Label:       label,
		Rows:        pr.Rows,
		ParseErrors: pr.ParseErrors,
	}
	for _, r := range pr.Rows {
		switch {
		case r.IsTask():
			res.Tasks++
		case r.IsSubtask():
			res.Subtasks++
		}
	}
	return res
}

// SourceStat summarizes one export found on disk.
type SourceStat struct {
	File        source.DiscoveredFile
	Rows        int
	Tasks       int
	Subtasks    int
	ParseErrors int
	Totals      model.KPITotals
	Err         error
}

// Inventory parses many exports with a bounded worker pool and reports
// per-file counts. A file that fails to parse carries its error in Err;
// only cancellation aborts the whole run.
func Inventory(ctx context.Context, files []source.DiscoveredFile, progressFn ProgressFunc) ([]SourceStat, error) {
	stats := make([]SourceStat, len(files))
	if len(files) == 0 {
		return stats, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	var processed atomic.Int64

	for i := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats[i] = inspect(files[i])
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(int(n), len(files))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func inspect(df source.DiscoveredFile) SourceStat {
	st := SourceStat{File: df}
	pr := source.ParseFile(df)
	if pr.Err != nil {
		st.Err = pr.Err
		return st
	}
	res := newLoadResult(df.Name, pr)
	st.Rows = len(res.Rows)
	st.Tasks = res.Tasks
	st.Subtasks = res.Subtasks
	st.ParseErrors = res.ParseErrors
	st.Totals = Totals(res.Rows)
	return st
}
