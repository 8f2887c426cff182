package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/metrics"
)

// DefaultLookupTimeout bounds a single backend lookup.
const DefaultLookupTimeout = 10 * time.Second

// LookupOperation is the latency tracker key for backend lookups.
const LookupOperation = "lookup"

// Pipeline maps enumerated candidates to display names.
// It keeps no state between Resolve calls other than what it writes to Cache.
type Pipeline struct {
	Cache   Cache   // required
	Backend Backend // nil disables lookups

	// LookupTimeout bounds each backend call; zero means DefaultLookupTimeout.
	LookupTimeout time.Duration

	// Progress, if set, is called after each item. It is informational only.
	Progress func(done, total int, r Result)

	// Latency, if set, records every backend lookup.
	Latency *metrics.LatencyTracker
}

// Stats counts how a batch was resolved.
type Stats struct {
	Total     int `json:"total"`
	Cache     int `json:"cache"`
	Backend   int `json:"backend"`
	Heuristic int `json:"heuristic"`
	Raw       int `json:"raw"`
	Degraded  int `json:"degraded"` // backend failed, fallback used
	Invalid   int `json:"invalid"`  // no raw name, last-resort name used
}

func (s *Stats) add(r Result) {
	s.Total++
	switch r.Source {
	case SourceCache:
		s.Cache++
	case SourceBackend:
		s.Backend++
	case SourceHeuristic:
		s.Heuristic++
	case SourceRaw:
		s.Raw++
	}
	if r.Degraded() {
		s.Degraded++
	}
	if errors.Is(r.Err, ErrInvalidCandidate) {
		s.Invalid++
	}
}

// Batch is the outcome of one Resolve call.
// Results[i] always corresponds to the i-th input candidate.
type Batch struct {
	Results []Result `json:"results"`
	Stats   Stats    `json:"stats"`
}

// Names returns the display names in input order.
func (b *Batch) Names() []string {
	names := make([]string, len(b.Results))
	for i, r := range b.Results {
		names[i] = r.DisplayName
	}
	return names
}

// Resolve resolves every candidate in order, then persists the cache once.
//
// Backend failures never abort the batch; the affected items fall back to
// heuristic or raw names. If ctx is done before the batch completes,
// Resolve returns ctx.Err() and nothing is persisted. If only the final
// persist fails, the complete batch is returned with a *PersistError.
func (p *Pipeline) Resolve(ctx context.Context, items []Candidate) (*Batch, error) {
	if p.Cache == nil {
		return nil, errors.New("resolve: pipeline has no cache")
	}

	l := log.FromContext(ctx)
	batch := &Batch{Results: make([]Result, 0, len(items))}
	memo := make(map[string]Result)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			l.Debug("batch cancelled", "resolved", i, "total", len(items))
			return nil, err
		}

		r, err := p.resolveOne(ctx, i, item, memo)
		if err != nil {
			l.Debug("batch cancelled", "resolved", i, "total", len(items))
			return nil, err
		}

		batch.Results = append(batch.Results, r)
		batch.Stats.add(r)
		if p.Progress != nil {
			p.Progress(i+1, len(items), r)
		}
	}

	if len(items) == 0 {
		return batch, nil
	}

	if err := p.Cache.Persist(); err != nil {
		return batch, &PersistError{Err: err}
	}
	return batch, nil
}

// resolveOne applies cache -> backend -> heuristic -> raw for one item.
// The only error it returns is ctx's, when the batch was cancelled.
func (p *Pipeline) resolveOne(ctx context.Context, i int, item Candidate, memo map[string]Result) (Result, error) {
	if item.Key != "" {
		if name, ok := p.Cache.Get(item.Key); ok {
			return Result{Key: item.Key, DisplayName: name, Source: SourceCache}, nil
		}
		// Same key earlier in this batch but not cached (no raw name)
		if r, ok := memo[item.Key]; ok {
			return r, nil
		}
	}

	raw := item.RawName
	invalid := raw == ""
	if invalid {
		raw = lastResortName(i, item)
	}

	var lookupErr error
	if item.ExternalID != "" && p.Backend != nil {
		name, found, err := p.lookup(ctx, item.ExternalID)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			log.FromContext(ctx).Debug("lookup failed", "key", item.Key, "id", item.ExternalID, "err", err)
			lookupErr = err
		case found:
			r := Result{
				Key:         item.Key,
				DisplayName: PreferName(name, item.Hints.Publisher, raw),
				Source:      SourceBackend,
			}
			p.remember(item.Key, r, memo, true)
			return r, nil
		}
	}

	r := Result{Key: item.Key, degraded: lookupErr != nil}
	if !item.Hints.IsZero() {
		primary := item.Hints.DisplayName
		if primary == "" {
			primary = raw
		}
		r.DisplayName = PreferName(primary, item.Hints.Publisher, raw)
		r.Source = SourceHeuristic
	} else {
		r.DisplayName = raw
		r.Source = SourceRaw
	}

	switch {
	case invalid && lookupErr != nil:
		r.Err = errors.Join(lookupErr, ErrInvalidCandidate)
	case invalid:
		r.Err = ErrInvalidCandidate
	default:
		r.Err = lookupErr
	}

	// A failed lookup caches its fallback like a miss; cache clear forces a retry
	p.remember(item.Key, r, memo, !invalid)
	return r, nil
}

func (p *Pipeline) remember(key string, r Result, memo map[string]Result, cache bool) {
	if key == "" {
		return
	}
	if cache {
		p.Cache.Put(key, r.DisplayName)
	}
	memo[key] = r
}

func (p *Pipeline) lookup(ctx context.Context, id string) (string, bool, error) {
	timeout := p.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	name, found, err := p.Backend.Lookup(lctx, id)
	if p.Latency != nil {
		p.Latency.Record(LookupOperation, time.Since(start))
	}

	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrNetwork) {
			err = fmt.Errorf("%w: lookup %s timed out after %s: %w", ErrNetwork, id, timeout, err)
		}
		return "", false, err
	}
	if !found || strings.TrimSpace(name) == "" {
		return "", false, nil
	}
	return strings.TrimSpace(name), true, nil
}

// lastResortName names an item that has no raw name.
func lastResortName(i int, item Candidate) string {
	switch {
	case item.Key != "":
		return item.Key
	case item.ExternalID != "":
		return item.ExternalID
	default:
		return fmt.Sprintf("item-%d", i+1)
	}
}
