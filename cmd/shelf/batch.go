package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphi011/shelf/internal/config"
	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/metrics"
	"github.com/raphi011/shelf/internal/namecache"
	"github.com/raphi011/shelf/internal/resolve"
	"github.com/raphi011/shelf/internal/steam"
	"github.com/raphi011/shelf/internal/task"
	"github.com/raphi011/shelf/internal/ui/progress"
)

// lockTimeout bounds how long a batch waits for another shelf process.
const lockTimeout = 5 * time.Second

// batchOptions controls one resolution run.
type batchOptions struct {
	CacheFile    string
	Backend      resolve.Backend // nil for no lookups
	Timeout      time.Duration   // per lookup
	ShowProgress bool
	Label        string // progress bar caption
}

// cacheFile returns the configured cache path or the default one.
func cacheFile(c *config.Config) (string, error) {
	if c != nil && c.CacheFile != "" {
		return c.CacheFile, nil
	}
	return namecache.DefaultPath()
}

// newBackend builds the Steam client from config, or nil when lookups are off.
func newBackend(c *config.Config, offline bool) resolve.Backend {
	if offline || c == nil || !c.Steam.IsEnabled() {
		return nil
	}
	client := steam.New(c.Steam.BaseURL, c.Steam.Language, c.Steam.Timeout)
	client.UserAgent = "shelf/" + version
	return client
}

// defaultBatchOptions fills options from the loaded config.
func defaultBatchOptions(ctx context.Context, offline bool, label string) (batchOptions, error) {
	c := config.FromContext(ctx)
	path, err := cacheFile(c)
	if err != nil {
		return batchOptions{}, fmt.Errorf("locate name cache: %w", err)
	}
	opts := batchOptions{
		CacheFile:    path,
		Backend:      newBackend(c, offline),
		ShowProgress: progress.Enabled(quiet),
		Label:        label,
	}
	if c != nil {
		opts.Timeout = c.Steam.Timeout
	}
	return opts, nil
}

// resolveBatch resolves items against the locked cache file.
// A failed cache save is logged as a warning and the batch is still returned.
func resolveBatch(ctx context.Context, items []resolve.Candidate, opts batchOptions) (*resolve.Batch, error) {
	l := log.FromContext(ctx)

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	store, unlock, err := namecache.LoadLocked(lockCtx, opts.CacheFile)
	cancel()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := store.LoadErr(); err != nil {
		l.Debug("name cache unusable, starting empty", "path", opts.CacheFile, "err", err)
	}
	l.Debug("resolving", "items", len(items), "cached", store.Len(), "lookups", opts.Backend != nil)

	latency := metrics.NewLatencyTracker(metrics.DefaultRelativeAccuracy)
	pipeline := &resolve.Pipeline{
		Cache:         store,
		Backend:       opts.Backend,
		LookupTimeout: opts.Timeout,
		Latency:       latency,
	}

	var (
		bar     *progress.ProgressBar
		helpers []func(context.Context) error
	)
	if opts.ShowProgress && len(items) > 0 {
		bar = progress.NewProgressBar(len(items), opts.Label)
		updates := make(chan progressUpdate, len(items))
		pipeline.Progress = func(done, total int, r resolve.Result) {
			select {
			case updates <- progressUpdate{done: done, name: r.DisplayName}:
			default:
				// best effort, never stall the batch
			}
		}
		helpers = append(helpers, func(ctx context.Context) error {
			return driveProgress(ctx, bar, updates)
		})
		bar.Start()
	}

	t := task.Start(ctx, func(ctx context.Context) (*resolve.Batch, error) {
		return pipeline.Resolve(ctx, items)
	}, helpers...)
	batch, err := t.Wait()
	if bar != nil {
		bar.Stop()
	}

	var perr *resolve.PersistError
	switch {
	case errors.As(err, &perr):
		l.Warnf("%v", err)
	case err != nil:
		return nil, err
	}

	logSummary(l, batch, latency)
	return batch, nil
}

type progressUpdate struct {
	done int
	name string
}

// driveProgress feeds the bar until ctx is done, then flushes what is queued.
func driveProgress(ctx context.Context, bar *progress.ProgressBar, updates <-chan progressUpdate) error {
	for {
		select {
		case u := <-updates:
			bar.SetProgress(u.done, u.name)
		case <-ctx.Done():
			for {
				select {
				case u := <-updates:
					bar.SetProgress(u.done, u.name)
				default:
					return nil
				}
			}
		}
	}
}

func logSummary(l *log.Logger, batch *resolve.Batch, latency *metrics.LatencyTracker) {
	s := batch.Stats
	l.Printf("Resolved %d names (%d cached, %d from Steam, %d from hints, %d raw)\n",
		s.Total, s.Cache, s.Backend, s.Heuristic, s.Raw)
	if s.Degraded > 0 {
		l.Printf("%d lookups failed and fell back to local names (run 'shelf cache clear' to retry)\n", s.Degraded)
	}
	if s.Invalid > 0 {
		l.Debug("items without a raw name", "count", s.Invalid)
	}
	for _, st := range latency.AllStats() {
		l.Debug("latency", "stats", st.String())
	}
}
