package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		configPath := writeConfig(t, `
company:
  name: Acme Bio
  keywords: ["Acme Bio", "ACMB"]

feed:
  language: zh-CN
  region: CN
  window_days: 30
  timeout: 15s

history:
  path: /tmp/acme.json
  cap: 50

notify:
  key: abc123
  group: acme
  delay: 2s

categories:
  - name: commercial
    keywords: [revenue, sales]
  - name: Clinical
    keywords: [trial]

server:
  listen: ":9090"
  timeout: 45s
`)
		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "Acme Bio", cfg.Company.Name)
		assert.Equal(t, []string{"Acme Bio", "ACMB"}, cfg.Company.Keywords)
		assert.Equal(t, "zh-CN", cfg.Feed.Language)
		assert.Equal(t, "CN", cfg.Feed.Region)
		assert.Equal(t, 30, cfg.Feed.WindowDays)
		assert.Equal(t, 15*time.Second, cfg.Feed.Timeout)
		assert.Equal(t, "/tmp/acme.json", cfg.History.Path)
		assert.Equal(t, 50, cfg.History.Cap)
		assert.Equal(t, "abc123", cfg.Notify.Key)
		assert.Equal(t, "acme", cfg.Notify.Group)
		assert.Equal(t, 2*time.Second, cfg.Notify.Delay)
		assert.Equal(t, "Acme Bio", cfg.Notify.Title, "title defaults to company name")

		require.Len(t, cfg.Categories, 2)
		assert.Equal(t, "commercial", cfg.Categories[0].Name)
		assert.Equal(t, "clinical", cfg.Categories[1].Name, "name lowercased")

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 30*24*time.Hour, cfg.Window())
	})

	t.Run("defaults", func(t *testing.T) {
		configPath := writeConfig(t, `
company:
  name: Acme
  keywords: [acme]
`)
		cfg, err := Load(configPath)
		require.NoError(t, err)

		assert.Equal(t, "https://news.google.com/rss/search", cfg.Feed.BaseURL)
		assert.Equal(t, "en-US", cfg.Feed.Language)
		assert.Equal(t, "US", cfg.Feed.Region)
		assert.Empty(t, cfg.Feed.Edition)
		assert.Equal(t, 90, cfg.Feed.WindowDays)
		assert.Equal(t, 30*time.Second, cfg.Feed.Timeout)
		assert.NotEmpty(t, cfg.Feed.UserAgent)

		assert.Equal(t, "history.json", cfg.History.Path)
		assert.Empty(t, cfg.History.DSN)
		assert.Equal(t, 100, cfg.History.Cap)

		assert.Equal(t, "https://api.day.app", cfg.Notify.Endpoint)
		assert.Empty(t, cfg.Notify.Key)
		assert.Equal(t, "newswatch", cfg.Notify.Group)
		assert.Equal(t, time.Second, cfg.Notify.Delay)
		assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
		assert.Equal(t, "2006-01-02 15:04", cfg.Notify.DateFormat)

		assert.Empty(t, cfg.Categories)

		listen, timeout := cfg.GetServerConfig()
		assert.Equal(t, ":8080", listen)
		assert.Equal(t, 30*time.Second, timeout)
		assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	})

	t.Run("wide window doubles history cap", func(t *testing.T) {
		configPath := writeConfig(t, `
company:
  name: Acme
  keywords: [acme]
feed:
  window_days: 180
`)
		cfg, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, 200, cfg.History.Cap)
	})

	t.Run("environment expansion", func(t *testing.T) {
		t.Setenv("TEST_BARK_KEY", "secret-key")
		configPath := writeConfig(t, `
company:
  name: Acme
  keywords: [acme]
notify:
  key: ${TEST_BARK_KEY}
`)
		cfg, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, "secret-key", cfg.Notify.Key)
	})

	t.Run("full-width comma splits keywords", func(t *testing.T) {
		configPath := writeConfig(t, `
company:
  name: Acme
  keywords: ["艾克姆，Acme", " ", "ACMB"]
categories:
  - name: clinical
    keywords: ["临床，trial"]
`)
		cfg, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, []string{"艾克姆", "Acme", "ACMB"}, cfg.Company.Keywords)
		assert.Equal(t, []string{"临床", "trial"}, cfg.Categories[0].Keywords)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := writeConfig(t, "company: [unclosed")
		_, err := Load(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "missing company name", content: "company:\n  keywords: [acme]\n", errMsg: "company.name is required"},
		{name: "missing keywords", content: "company:\n  name: Acme\n", errMsg: "company.keywords must not be empty"},
		{name: "blank keywords", content: "company:\n  name: Acme\n  keywords: [\" \"]\n", errMsg: "company.keywords must not be empty"},
		{name: "negative window", content: "company:\n  name: Acme\n  keywords: [acme]\nfeed:\n  window_days: -1\n",
			errMsg: "feed.window_days must be at least 1"},
		{name: "short feed timeout", content: "company:\n  name: Acme\n  keywords: [acme]\nfeed:\n  timeout: 100ms\n",
			errMsg: "feed.timeout must be at least 1 second"},
		{name: "negative cap", content: "company:\n  name: Acme\n  keywords: [acme]\nhistory:\n  cap: -5\n",
			errMsg: "history.cap must be at least 1"},
		{name: "negative delay", content: "company:\n  name: Acme\n  keywords: [acme]\nnotify:\n  delay: -1s\n",
			errMsg: "notify.delay must be non-negative"},
		{name: "unknown category", content: "company:\n  name: Acme\n  keywords: [acme]\ncategories:\n  - name: sports\n    keywords: [golf]\n",
			errMsg: "categories[0]"},
		{name: "duplicate category",
			content: "company:\n  name: Acme\n  keywords: [acme]\ncategories:\n  - name: clinical\n    keywords: [a]\n  - name: clinical\n    keywords: [b]\n",
			errMsg:  "duplicate category"},
		{name: "category without keywords", content: "company:\n  name: Acme\n  keywords: [acme]\ncategories:\n  - name: clinical\n",
			errMsg: "categories[0]: keywords must not be empty"},
		{name: "short server timeout", content: "company:\n  name: Acme\n  keywords: [acme]\nserver:\n  timeout: 10ms\n",
			errMsg: "server timeout must be at least 1 second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSplitKeywords(t *testing.T) {
	assert.Empty(t, SplitKeywords(nil))
	assert.Equal(t, []string{"a", "b"}, SplitKeywords([]string{" a ", "", "b"}))
	assert.Equal(t, []string{"a", "b", "c"}, SplitKeywords([]string{"a，b，", "c"}))
	assert.Equal(t, []string{"a,b"}, SplitKeywords([]string{"a,b"}), "ascii comma is kept")
}
