package resolve

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphi011/shelf/internal/metrics"
	"github.com/raphi011/shelf/internal/namecache"
)

// countingCache is an instrumented in-memory Cache.
type countingCache struct {
	names      map[string]string
	puts       int
	persists   int
	persistErr error
}

func newCountingCache(seed map[string]string) *countingCache {
	names := make(map[string]string)
	maps.Copy(names, seed)
	return &countingCache{names: names}
}

func (c *countingCache) Get(key string) (string, bool) {
	name, ok := c.names[key]
	return name, ok
}

func (c *countingCache) Put(key, name string) {
	c.puts++
	c.names[key] = name
}

func (c *countingCache) Persist() error {
	c.persists++
	return c.persistErr
}

// stubBackend answers from a fixed table and records every call.
type stubBackend struct {
	names map[string]string
	err   error
	calls []string
	hook  func(ctx context.Context, id string) (string, bool, error)
}

func (b *stubBackend) Lookup(ctx context.Context, id string) (string, bool, error) {
	b.calls = append(b.calls, id)
	if b.hook != nil {
		return b.hook(ctx, id)
	}
	if b.err != nil {
		return "", false, b.err
	}
	name, ok := b.names[id]
	return name, ok, nil
}

func TestResolve_Precedence(t *testing.T) {
	t.Parallel()

	cache := newCountingCache(map[string]string{"Cached Folder": "缓存名"})
	backend := &stubBackend{names: map[string]string{"620": "传送门 2", "70": "Half-Life"}}
	p := &Pipeline{Cache: cache, Backend: backend}

	items := []Candidate{
		{Key: "Cached Folder", RawName: "Cached Folder", ExternalID: "1"},
		{Key: "Portal 2", RawName: "Portal 2", ExternalID: "620"},
		{Key: "HL", RawName: "HL", ExternalID: "70", Hints: Hints{Publisher: "维尔福"}},
		{Key: "Unknown", RawName: "Unknown", ExternalID: "999", Hints: Hints{Publisher: "发行商"}},
		{Key: "Microsoft.Photos_1.0_x64", RawName: "Microsoft.Photos", Hints: Hints{DisplayName: "ms-resource:AppName", Publisher: "微软"}},
		{Key: "Celeste", RawName: "Celeste"},
	}

	batch, err := p.Resolve(context.Background(), items)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []struct {
		name   string
		source Source
	}{
		{"缓存名", SourceCache},
		{"传送门 2", SourceBackend},
		{"Half-Life (维尔福)", SourceBackend},
		{"Unknown (发行商)", SourceHeuristic},
		{"Microsoft.Photos (微软)", SourceHeuristic},
		{"Celeste", SourceRaw},
	}

	for i, w := range want {
		got := batch.Results[i]
		if got.DisplayName != w.name || got.Source != w.source {
			t.Errorf("Results[%d] = %q/%s, want %q/%s", i, got.DisplayName, got.Source, w.name, w.source)
		}
		if got.Key != items[i].Key {
			t.Errorf("Results[%d].Key = %q, want %q", i, got.Key, items[i].Key)
		}
	}

	// Cached item never reaches the backend
	if len(backend.calls) != 3 {
		t.Errorf("backend calls = %v, want 3 lookups", backend.calls)
	}

	// Every non-cached result was written back, including not-found fallbacks
	for _, key := range []string{"Portal 2", "HL", "Unknown", "Microsoft.Photos_1.0_x64", "Celeste"} {
		if _, ok := cache.names[key]; !ok {
			t.Errorf("expected %q to be cached", key)
		}
	}

	wantStats := Stats{Total: 6, Cache: 1, Backend: 2, Heuristic: 2, Raw: 1}
	if batch.Stats != wantStats {
		t.Errorf("Stats = %+v, want %+v", batch.Stats, wantStats)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()

	cache := newCountingCache(nil)
	p := &Pipeline{Cache: cache, Backend: &stubBackend{names: map[string]string{"620": "传送门 2"}}}
	items := []Candidate{
		{Key: "Portal 2", RawName: "Portal 2", ExternalID: "620"},
		{Key: "Celeste", RawName: "Celeste"},
		{Key: "pkg", RawName: "Pkg", Hints: Hints{Publisher: "发行商"}},
	}

	first, err := p.Resolve(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Resolve(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}

	for i := range items {
		if first.Results[i].DisplayName != second.Results[i].DisplayName {
			t.Errorf("item %d: %q then %q", i, first.Results[i].DisplayName, second.Results[i].DisplayName)
		}
		if second.Results[i].Source != SourceCache {
			t.Errorf("item %d: second source = %s, want cache", i, second.Results[i].Source)
		}
	}
}

func TestResolve_OrderPreserved(t *testing.T) {
	t.Parallel()

	const n = 250
	items := make([]Candidate, n)
	names := make(map[string]string)
	for i := range items {
		key := fmt.Sprintf("game-%03d", n-i) // deliberately not sorted
		items[i] = Candidate{Key: key, RawName: key}
		if i%3 == 0 {
			items[i].ExternalID = fmt.Sprint(i)
			names[fmt.Sprint(i)] = "名字 " + key
		}
	}

	p := &Pipeline{Cache: newCountingCache(nil), Backend: &stubBackend{names: names}}
	batch, err := p.Resolve(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}

	if len(batch.Results) != n {
		t.Fatalf("len(Results) = %d, want %d", len(batch.Results), n)
	}
	for i, r := range batch.Results {
		if r.Key != items[i].Key {
			t.Fatalf("Results[%d].Key = %q, want %q", i, r.Key, items[i].Key)
		}
	}
	if got := batch.Names(); len(got) != n || got[0] != "名字 game-250" {
		t.Errorf("Names()[0] = %q", got[0])
	}
}

func TestResolve_DegradesOnBackendFailure(t *testing.T) {
	t.Parallel()

	for _, backendErr := range []error{ErrNetwork, ErrMalformedResponse, errors.New("boom")} {
		t.Run(backendErr.Error(), func(t *testing.T) {
			t.Parallel()

			cache := newCountingCache(nil)
			p := &Pipeline{Cache: cache, Backend: &stubBackend{err: fmt.Errorf("lookup: %w", backendErr)}}
			items := []Candidate{
				{Key: "Portal 2", RawName: "Portal 2", ExternalID: "620"},
				{Key: "App", RawName: "App", ExternalID: "1", Hints: Hints{Publisher: "发行商"}},
			}

			batch, err := p.Resolve(context.Background(), items)
			if err != nil {
				t.Fatalf("backend failure must not abort the batch: %v", err)
			}

			wantNames := []string{"Portal 2", "App (发行商)"}
			wantSources := []Source{SourceRaw, SourceHeuristic}
			for i, r := range batch.Results {
				if r.DisplayName != wantNames[i] || r.Source != wantSources[i] {
					t.Errorf("Results[%d] = %q/%s", i, r.DisplayName, r.Source)
				}
				if !r.Degraded() || !errors.Is(r.Err, backendErr) {
					t.Errorf("Results[%d] should be degraded with %v, got %v", i, backendErr, r.Err)
				}
			}
			if batch.Stats.Degraded != 2 {
				t.Errorf("Stats.Degraded = %d, want 2", batch.Stats.Degraded)
			}

			// Fallbacks are cached like a backend miss
			if cache.puts != 2 || cache.names["Portal 2"] != "Portal 2" || cache.names["App"] != "App (发行商)" {
				t.Errorf("degraded fallbacks not cached: puts=%d names=%v", cache.puts, cache.names)
			}
			if cache.persists != 1 {
				t.Errorf("persists = %d, want 1", cache.persists)
			}
		})
	}
}

func TestResolve_DegradedServedFromCacheNextTime(t *testing.T) {
	t.Parallel()

	cache := newCountingCache(nil)
	backend := &stubBackend{err: ErrNetwork}
	p := &Pipeline{Cache: cache, Backend: backend}
	items := []Candidate{{Key: "Folder42", RawName: "Folder42", ExternalID: "42"}}

	first, err := p.Resolve(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	if r := first.Results[0]; r.Source != SourceRaw || !r.Degraded() {
		t.Fatalf("first = %+v, want degraded raw", r)
	}

	second, err := p.Resolve(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	r := second.Results[0]
	if r.Source != SourceCache || r.DisplayName != "Folder42" {
		t.Errorf("second = %q/%s, want Folder42 from cache", r.DisplayName, r.Source)
	}
	if r.Degraded() || second.Stats.Degraded != 0 {
		t.Errorf("cached result should not be degraded: %+v", r)
	}
	if len(backend.calls) != 1 {
		t.Errorf("backend calls = %v, want one", backend.calls)
	}
}

func TestResolve_LookupTimeout(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{hook: func(ctx context.Context, id string) (string, bool, error) {
		<-ctx.Done()
		return "", false, ctx.Err()
	}}
	latency := metrics.NewLatencyTracker(metrics.DefaultRelativeAccuracy)
	p := &Pipeline{Cache: newCountingCache(nil), Backend: backend, LookupTimeout: 20 * time.Millisecond, Latency: latency}

	batch, err := p.Resolve(context.Background(), []Candidate{
		{Key: "Slow", RawName: "Slow", ExternalID: "1"},
		{Key: "Slower", RawName: "Slower", ExternalID: "2"},
	})
	if err != nil {
		t.Fatalf("timeouts must not abort the batch: %v", err)
	}

	for i, r := range batch.Results {
		if !errors.Is(r.Err, ErrNetwork) {
			t.Errorf("Results[%d].Err = %v, want ErrNetwork", i, r.Err)
		}
		if r.Source != SourceRaw {
			t.Errorf("Results[%d].Source = %s, want raw", i, r.Source)
		}
	}

	stats, err := latency.GetStats(LookupOperation)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Count != 2 {
		t.Errorf("latency count = %d, want 2", stats.Count)
	}
}

func TestResolve_PersistOncePerBatch(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 50} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			t.Parallel()

			items := make([]Candidate, n)
			for i := range items {
				items[i] = Candidate{Key: fmt.Sprint(i), RawName: fmt.Sprint(i), ExternalID: fmt.Sprint(i)}
			}
			cache := newCountingCache(nil)
			p := &Pipeline{Cache: cache, Backend: &stubBackend{names: map[string]string{"0": "zero"}}}

			if _, err := p.Resolve(context.Background(), items); err != nil {
				t.Fatal(err)
			}
			if cache.persists != 1 {
				t.Errorf("persists = %d, want exactly 1", cache.persists)
			}
		})
	}
}

func TestResolve_EmptyBatch(t *testing.T) {
	t.Parallel()

	cache := newCountingCache(nil)
	batch, err := (&Pipeline{Cache: cache}).Resolve(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Results) != 0 || cache.persists != 0 {
		t.Errorf("empty batch: results=%d persists=%d", len(batch.Results), cache.persists)
	}
}

func TestResolve_NoPersistOnCancel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), namecache.FileName)
	if err := namecache.Save(path, map[string]string{"Existing": "已有"}); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	backend := &stubBackend{hook: func(lctx context.Context, id string) (string, bool, error) {
		calls++
		if calls == 3 {
			cancel()
			return "", false, lctx.Err()
		}
		return "名字" + id, true, nil
	}}

	store := namecache.Load(path)
	items := make([]Candidate, 10)
	for i := range items {
		items[i] = Candidate{Key: fmt.Sprint("g", i), RawName: fmt.Sprint("g", i), ExternalID: fmt.Sprint(i)}
	}

	batch, err := (&Pipeline{Cache: store, Backend: backend}).Resolve(ctx, items)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
	if batch != nil {
		t.Error("cancelled batch should not return partial results")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("cache file changed after cancelled batch:\nbefore %s\nafter  %s", before, after)
	}
}

func TestResolve_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cache := newCountingCache(nil)
	_, err := (&Pipeline{Cache: cache}).Resolve(ctx, []Candidate{{Key: "a", RawName: "a"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
	if cache.persists != 0 {
		t.Error("cancelled batch must not persist")
	}
}

func TestResolve_PersistFailure(t *testing.T) {
	t.Parallel()

	diskErr := errors.New("disk full")
	cache := newCountingCache(nil)
	cache.persistErr = diskErr

	batch, err := (&Pipeline{Cache: cache}).Resolve(context.Background(), []Candidate{{Key: "a", RawName: "A"}})

	var perr *PersistError
	if !errors.As(err, &perr) {
		t.Fatalf("Resolve() error = %v, want *PersistError", err)
	}
	if !errors.Is(err, ErrPersist) || !errors.Is(err, diskErr) {
		t.Errorf("PersistError should match ErrPersist and the cause, got %v", err)
	}
	if batch == nil || len(batch.Results) != 1 || batch.Results[0].DisplayName != "A" {
		t.Errorf("results must still be returned on persist failure, got %+v", batch)
	}
}

func TestResolve_DuplicateKeysResolvedOnce(t *testing.T) {
	t.Parallel()

	t.Run("successful lookup reused via cache", func(t *testing.T) {
		t.Parallel()
		backend := &stubBackend{names: map[string]string{"620": "传送门 2"}}
		p := &Pipeline{Cache: newCountingCache(nil), Backend: backend}
		item := Candidate{Key: "Portal 2", RawName: "Portal 2", ExternalID: "620"}

		batch, err := p.Resolve(context.Background(), []Candidate{item, item})
		if err != nil {
			t.Fatal(err)
		}
		if len(backend.calls) != 1 {
			t.Errorf("backend calls = %d, want 1", len(backend.calls))
		}
		if batch.Results[1].Source != SourceCache || batch.Results[1].DisplayName != "传送门 2" {
			t.Errorf("duplicate = %+v", batch.Results[1])
		}
	})

	t.Run("failed lookup fallback reused via cache", func(t *testing.T) {
		t.Parallel()
		backend := &stubBackend{err: ErrNetwork}
		p := &Pipeline{Cache: newCountingCache(nil), Backend: backend}
		item := Candidate{Key: "Portal 2", RawName: "Portal 2", ExternalID: "620"}

		batch, err := p.Resolve(context.Background(), []Candidate{item, item, item})
		if err != nil {
			t.Fatal(err)
		}
		if len(backend.calls) != 1 {
			t.Errorf("backend calls = %d, want 1", len(backend.calls))
		}
		for i, r := range batch.Results {
			if r.DisplayName != "Portal 2" {
				t.Errorf("Results[%d] = %q", i, r.DisplayName)
			}
		}
		if batch.Results[2].Source != SourceCache {
			t.Errorf("duplicate source = %s, want cache", batch.Results[2].Source)
		}
	})

	t.Run("invalid item reused via memo", func(t *testing.T) {
		t.Parallel()
		backend := &stubBackend{err: ErrNetwork}
		p := &Pipeline{Cache: newCountingCache(nil), Backend: backend}
		item := Candidate{Key: "k", ExternalID: "9"}

		batch, err := p.Resolve(context.Background(), []Candidate{item, item})
		if err != nil {
			t.Fatal(err)
		}
		if len(backend.calls) != 1 {
			t.Errorf("backend calls = %d, want 1", len(backend.calls))
		}
		if batch.Results[1].DisplayName != "k" || !errors.Is(batch.Results[1].Err, ErrInvalidCandidate) {
			t.Errorf("duplicate = %+v", batch.Results[1])
		}
	})
}

func TestResolve_InvalidCandidate(t *testing.T) {
	t.Parallel()

	cache := newCountingCache(nil)
	p := &Pipeline{Cache: cache, Backend: &stubBackend{}}
	items := []Candidate{
		{Key: "only-key"},
		{ExternalID: "12345"},
		{},
	}

	batch, err := p.Resolve(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"only-key", "12345", "item-3"}
	for i, r := range batch.Results {
		if r.DisplayName != want[i] {
			t.Errorf("Results[%d].DisplayName = %q, want %q", i, r.DisplayName, want[i])
		}
		if !errors.Is(r.Err, ErrInvalidCandidate) {
			t.Errorf("Results[%d].Err = %v, want ErrInvalidCandidate", i, r.Err)
		}
		if r.Degraded() {
			t.Errorf("Results[%d] should not count as degraded", i)
		}
	}
	if batch.Stats.Invalid != 3 {
		t.Errorf("Stats.Invalid = %d, want 3", batch.Stats.Invalid)
	}
	if cache.puts != 0 {
		t.Errorf("last-resort names should not be cached: %v", cache.names)
	}
}

func TestResolve_BlankBackendNameIsNotFound(t *testing.T) {
	t.Parallel()

	p := &Pipeline{Cache: newCountingCache(nil), Backend: &stubBackend{names: map[string]string{"1": "   "}}}
	batch, err := p.Resolve(context.Background(), []Candidate{{Key: "k", RawName: "Raw", ExternalID: "1"}})
	if err != nil {
		t.Fatal(err)
	}
	if r := batch.Results[0]; r.DisplayName != "Raw" || r.Source != SourceRaw || r.Err != nil {
		t.Errorf("Result = %+v, want raw fallback without error", r)
	}
}

func TestResolve_NoBackend(t *testing.T) {
	t.Parallel()

	p := &Pipeline{Cache: newCountingCache(nil)}
	batch, err := p.Resolve(context.Background(), []Candidate{{Key: "k", RawName: "Raw", ExternalID: "1"}})
	if err != nil {
		t.Fatal(err)
	}
	if r := batch.Results[0]; r.Source != SourceRaw || r.Degraded() {
		t.Errorf("Result = %+v, want plain raw", r)
	}
}

func TestResolve_Progress(t *testing.T) {
	t.Parallel()

	var seen []int
	p := &Pipeline{
		Cache: newCountingCache(nil),
		Progress: func(done, total int, r Result) {
			if total != 3 {
				t.Errorf("total = %d, want 3", total)
			}
			seen = append(seen, done)
		},
	}
	items := []Candidate{{Key: "a", RawName: "a"}, {Key: "b", RawName: "b"}, {Key: "c", RawName: "c"}}
	if _, err := p.Resolve(context.Background(), items); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(seen) != "[1 2 3]" {
		t.Errorf("progress calls = %v", seen)
	}
}

func TestResolve_NilCache(t *testing.T) {
	t.Parallel()

	if _, err := (&Pipeline{}).Resolve(context.Background(), nil); err == nil {
		t.Error("expected error for pipeline without cache")
	}
}

func TestResolve_RoundTripThroughStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), namecache.FileName)
	store := namecache.Load(path)
	p := &Pipeline{Cache: store, Backend: &stubBackend{names: map[string]string{"1": "第一行\n第二行"}}}

	if _, err := p.Resolve(context.Background(), []Candidate{
		{Key: "multi\nline folder", RawName: "multi\nline folder", ExternalID: "1"},
		{Key: "plain", RawName: "plain"},
	}); err != nil {
		t.Fatal(err)
	}

	reloaded := namecache.Load(path)
	if !maps.Equal(reloaded.Names(), store.Names()) {
		t.Errorf("reloaded %q, want %q", reloaded.Names(), store.Names())
	}

	// Second run is served entirely from disk
	batch, err := (&Pipeline{Cache: reloaded}).Resolve(context.Background(), []Candidate{
		{Key: "multi\nline folder", RawName: "multi\nline folder", ExternalID: "1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if r := batch.Results[0]; r.Source != SourceCache || r.DisplayName != "第一行\n第二行" {
		t.Errorf("Result = %+v", r)
	}
}
