package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/raphi011/shelf/internal/config"
	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/output"
)

// testContext returns a context with a quiet logger, cfg and a captured printer.
func testContext(t *testing.T, cfg *config.Config) (context.Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(io.Discard, false, true))
	ctx = config.WithConfig(ctx, cfg)
	ctx = output.WithPrinter(ctx, &out)
	return ctx, &out
}

// testConfig returns defaults with the cache in a temp dir and lookups
// pointed at baseURL. An empty baseURL disables Steam.
func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	c := config.Default()
	c.CacheFile = filepath.Join(t.TempDir(), "names.json")
	if baseURL == "" {
		disabled := false
		c.Steam.Enabled = &disabled
	} else {
		c.Steam.BaseURL = baseURL
	}
	return &c
}

// steamServer answers appdetails requests from names, keyed by app id.
func steamServer(t *testing.T, names map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		id := r.URL.Query().Get("appids")
		name, ok := names[id]
		if !ok {
			_, _ = w.Write([]byte(`{"` + id + `":{"success":false}}`))
			return
		}
		_, _ = w.Write([]byte(`{"` + id + `":{"success":true,"data":{"name":"` + name + `"}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// makeLibrary creates one folder per entry; a non-empty value is written
// as the folder's steam_appid.txt.
func makeLibrary(t *testing.T, games map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for folder, appID := range games {
		gameDir := filepath.Join(dir, folder)
		if err := os.MkdirAll(gameDir, 0755); err != nil {
			t.Fatal(err)
		}
		if appID == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(gameDir, "steam_appid.txt"), []byte(appID+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
