package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newswatch/pkg/classify"
	"github.com/umputun/newswatch/pkg/config"
	"github.com/umputun/newswatch/pkg/domain"
)

// testEnv holds fake feed and bark servers plus a temp history path
type testEnv struct {
	history string

	mu    sync.Mutex
	pushs []string // titles posted to bark
}

func (e *testEnv) pushed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.pushs...)
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{history: filepath.Join(t.TempDir(), "history.json")}

	recent := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC1123)
	older := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC1123)
	stale := time.Now().Add(-200 * 24 * time.Hour).UTC().Format(time.RFC1123)
	rss := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>search</title>
<item><title>Acme Bio revenue beats estimates</title><link>https://example.com/revenue</link><pubDate>%s</pubDate></item>
<item><title>Acme Bio starts phase 3 trial</title><link>https://example.com/trial</link><pubDate>%s</pubDate></item>
<item><title>Acme Bio old story</title><link>https://example.com/old</link><pubDate>%s</pubDate></item>
</channel></rss>`, recent, older, stale)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), `"Acme Bio" OR ACMB`)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	t.Cleanup(feedSrv.Close)

	barkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/test-key/", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		env.mu.Lock()
		env.pushs = append(env.pushs, r.PostForm.Get("title"))
		env.mu.Unlock()
		_, _ = w.Write([]byte(`{"code":200,"message":"success"}`))
	}))
	t.Cleanup(barkSrv.Close)

	t.Setenv("NEWSWATCH_FEED_URL", feedSrv.URL+"/rss/search")
	t.Setenv("NEWSWATCH_BARK_URL", barkSrv.URL)
	t.Setenv("NEWSWATCH_BARK_KEY", "test-key")
	t.Setenv("NEWSWATCH_HISTORY", env.history)
	t.Setenv("NEWSWATCH_LISTEN", "")
	return env
}

func loadHistory(t *testing.T, path string) []map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var res []map[string]string
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: "non-existent-config.yml"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRun_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid-config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: configPath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRun_Check(t *testing.T) {
	env := setupEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, run(ctx, Opts{Config: "testdata/config.yml"}))

	// oldest first, stale item dropped
	assert.Equal(t, []string{"Acme Bio · Clinical/Regulatory", "Acme Bio · Commercial"}, env.pushed())

	entries := loadHistory(t, env.history)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://example.com/trial", entries[0]["link"])
	assert.Equal(t, "clinical", entries[0]["tag"])
	assert.Equal(t, "https://example.com/revenue", entries[1]["link"])
	assert.Equal(t, "commercial", entries[1]["tag"])

	// second run finds nothing new
	require.NoError(t, run(ctx, Opts{Config: "testdata/config.yml"}))
	assert.Len(t, env.pushed(), 2)
	assert.Len(t, loadHistory(t, env.history), 2)
}

func TestRun_DryRun(t *testing.T) {
	env := setupEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, run(ctx, Opts{Config: "testdata/config.yml", DryRun: true}))
	assert.Empty(t, env.pushed())
	_, err := os.Stat(env.history)
	assert.True(t, os.IsNotExist(err), "dry run must not write history")
}

func TestRun_HistoryOverride(t *testing.T) {
	env := setupEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	override := filepath.Join(t.TempDir(), "other.json")
	require.NoError(t, run(ctx, Opts{Config: "testdata/config.yml", History: override}))
	assert.Len(t, loadHistory(t, override), 2)
	_, err := os.Stat(env.history)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_NoBarkKey(t *testing.T) {
	env := setupEnv(t)
	t.Setenv("NEWSWATCH_BARK_KEY", "")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, run(ctx, Opts{Config: "testdata/config.yml"}))
	assert.Empty(t, env.pushed())
	assert.Len(t, loadHistory(t, env.history), 2, "items recorded without notifications")
}

func TestRun_Serve(t *testing.T) {
	env := setupEnv(t)

	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, Opts{Config: "testdata/config.yml", Serve: true, Listen: fmt.Sprintf("127.0.0.1:%d", port)})
	}()

	// wait for the check to record history and the server to serve it
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/history", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var entries []domain.HistoryEntry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return false
		}
		return len(entries) == 2
	}, 5*time.Second, 50*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/rss/clinical", port))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<title>Acme Bio starts phase 3 trial</title>")
	assert.Contains(t, string(body), "http://watch.example.com/rss/clinical")
	assert.Len(t, env.pushed(), 2)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve mode did not stop")
	}
}

func TestMakeRules(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &config.Config{}
		assert.Equal(t, classify.DefaultRules(), makeRules(cfg))
	})

	t.Run("configured", func(t *testing.T) {
		cfg := &config.Config{Categories: []config.CategoryConfig{
			{Name: "commercial", Keywords: []string{"sales"}},
			{Name: "clinical", Keywords: []string{"trial"}},
		}}
		rules := makeRules(cfg)
		require.Len(t, rules, 2)
		assert.Equal(t, domain.CategoryCommercial, rules[0].Category)
		assert.Equal(t, []string{"sales"}, rules[0].Keywords)
		assert.Equal(t, domain.CategoryClinical, rules[1].Category)
	})
}

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{}
	cfg.History.Path = "history.json"
	cfg.History.DSN = "file:h.db"
	cfg.Notify.Key = "from-config"
	cfg.Server.Listen = ":8080"

	applyOverrides(cfg, Opts{})
	assert.Equal(t, "file:h.db", cfg.History.DSN)
	assert.Equal(t, "from-config", cfg.Notify.Key)

	applyOverrides(cfg, Opts{History: "/tmp/h.json", BarkKey: "from-cli", Listen: ":9090"})
	assert.Equal(t, "/tmp/h.json", cfg.History.Path)
	assert.Empty(t, cfg.History.DSN, "explicit history file wins over dsn")
	assert.Equal(t, "from-cli", cfg.Notify.Key)
	assert.Equal(t, ":9090", cfg.Server.Listen)
}

func TestSetupLog(t *testing.T) {
	setupLog(true, true, "secret", "")
	setupLog(false, false)
}
