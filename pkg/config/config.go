package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/umputun/newswatch/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Company struct {
		Name     string   `yaml:"name" json:"name" jsonschema:"required,description=Company display name used in notification headers"`
		Keywords []string `yaml:"keywords" json:"keywords" jsonschema:"required,description=Search terms combined with OR (names and ticker)"`
	} `yaml:"company" json:"company" jsonschema:"required,description=Watched company"`

	Feed FeedConfig `yaml:"feed" json:"feed" jsonschema:"description=Search feed configuration"`

	History HistoryConfig `yaml:"history" json:"history" jsonschema:"description=History store configuration"`

	Notify NotifyConfig `yaml:"notify" json:"notify" jsonschema:"description=Push notification configuration"`

	Categories []CategoryConfig `yaml:"categories" json:"categories" jsonschema:"description=Ordered classification rules, first match wins"`

	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		BaseURL string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Base URL for RSS links"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration for serve mode"`
}

// FeedConfig holds search feed settings
type FeedConfig struct {
	BaseURL    string        `yaml:"base_url" json:"base_url" jsonschema:"default=https://news.google.com/rss/search,description=Search feed endpoint"`
	Language   string        `yaml:"language" json:"language" jsonschema:"default=en-US,description=Feed language (hl)"`
	Region     string        `yaml:"region" json:"region" jsonschema:"default=US,description=Feed region (gl)"`
	Edition    string        `yaml:"edition" json:"edition" jsonschema:"description=Feed edition (ceid), derived from region and language if empty"`
	WindowDays int           `yaml:"window_days" json:"window_days" jsonschema:"default=90,minimum=1,description=Recency window in days"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Feed request timeout"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for feed requests"`
}

// HistoryConfig holds history store settings
type HistoryConfig struct {
	Path string `yaml:"path" json:"path" jsonschema:"default=history.json,description=History JSON file"`
	DSN  string `yaml:"dsn" json:"dsn" jsonschema:"description=SQLite connection string, used instead of the JSON file if set"`
	Cap  int    `yaml:"cap" json:"cap" jsonschema:"minimum=1,description=Maximum number of entries kept (100 for windows up to 90 days, 200 otherwise)"`
}

// NotifyConfig holds push notification settings
type NotifyConfig struct {
	Endpoint   string        `yaml:"endpoint" json:"endpoint" jsonschema:"default=https://api.day.app,description=Bark server"`
	Key        string        `yaml:"key" json:"key" jsonschema:"description=Bark device key, notifications are disabled if empty"`
	Title      string        `yaml:"title" json:"title" jsonschema:"description=Notification header prefix, company name if empty"`
	Group      string        `yaml:"group" json:"group" jsonschema:"default=newswatch,description=Notification group tag"`
	Icon       string        `yaml:"icon" json:"icon" jsonschema:"description=Notification icon URL"`
	Delay      time.Duration `yaml:"delay" json:"delay" jsonschema:"default=1s,description=Pause between notifications"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Push request timeout"`
	DateFormat string        `yaml:"date_format" json:"date_format" jsonschema:"default=2006-01-02 15:04,description=Go time layout for dates in notification body"`
}

// CategoryConfig is a single classification rule
type CategoryConfig struct {
	Name     string   `yaml:"name" json:"name" jsonschema:"required,enum=clinical,enum=commercial,enum=general,description=Category label"`
	Keywords []string `yaml:"keywords" json:"keywords" jsonschema:"required,description=Case-insensitive title substrings"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	c.Company.Name = strings.TrimSpace(c.Company.Name)
	c.Company.Keywords = SplitKeywords(c.Company.Keywords)
	for i := range c.Categories {
		c.Categories[i].Name = strings.ToLower(strings.TrimSpace(c.Categories[i].Name))
		c.Categories[i].Keywords = SplitKeywords(c.Categories[i].Keywords)
	}

	// set defaults for feed
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "https://news.google.com/rss/search"
	}
	if c.Feed.Language == "" {
		c.Feed.Language = "en-US"
	}
	if c.Feed.Region == "" {
		c.Feed.Region = "US"
	}
	if c.Feed.WindowDays == 0 {
		c.Feed.WindowDays = 90
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 30 * time.Second
	}
	if c.Feed.UserAgent == "" {
		c.Feed.UserAgent = "Mozilla/5.0 (compatible; Newswatch/1.0)"
	}

	// set defaults for history
	if c.History.Path == "" {
		c.History.Path = "history.json"
	}
	if c.History.Cap == 0 {
		c.History.Cap = 100
		if c.Feed.WindowDays > 90 {
			c.History.Cap = 200
		}
	}

	// set defaults for notify
	if c.Notify.Endpoint == "" {
		c.Notify.Endpoint = "https://api.day.app"
	}
	if c.Notify.Title == "" {
		c.Notify.Title = c.Company.Name
	}
	if c.Notify.Group == "" {
		c.Notify.Group = "newswatch"
	}
	if c.Notify.Delay == 0 {
		c.Notify.Delay = time.Second
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 10 * time.Second
	}
	if c.Notify.DateFormat == "" {
		c.Notify.DateFormat = "2006-01-02 15:04"
	}

	// set defaults for server
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Company.Name == "" {
		return fmt.Errorf("company.name is required")
	}
	if len(cfg.Company.Keywords) == 0 {
		return fmt.Errorf("company.keywords must not be empty")
	}

	if cfg.Feed.WindowDays < 1 {
		return fmt.Errorf("feed.window_days must be at least 1")
	}
	if cfg.Feed.Timeout < time.Second {
		return fmt.Errorf("feed.timeout must be at least 1 second")
	}

	if cfg.History.Cap < 1 {
		return fmt.Errorf("history.cap must be at least 1")
	}

	if cfg.Notify.Delay < 0 {
		return fmt.Errorf("notify.delay must be non-negative")
	}

	seen := map[domain.Category]bool{}
	for i, c := range cfg.Categories {
		cat, err := domain.ParseCategory(c.Name)
		if err != nil {
			return fmt.Errorf("categories[%d]: %w", i, err)
		}
		if seen[cat] {
			return fmt.Errorf("categories[%d]: duplicate category %q", i, cat)
		}
		seen[cat] = true
		if len(c.Keywords) == 0 {
			return fmt.Errorf("categories[%d]: keywords must not be empty", i)
		}
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// SplitKeywords trims keywords, drops empty ones and splits entries joined by
// a full-width comma, a common typo in mixed CJK keyword lists
func SplitKeywords(keywords []string) []string {
	res := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		for _, part := range strings.Split(kw, "，") {
			if part = strings.TrimSpace(part); part != "" {
				res = append(res, part)
			}
		}
	}
	return res
}

// Window returns the recency window as duration
func (c *Config) Window() time.Duration {
	return time.Duration(c.Feed.WindowDays) * 24 * time.Hour
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetRSSConfig returns base URL and channel title for the RSS output
func (c *Config) GetRSSConfig() (baseURL, title string) {
	return c.Server.BaseURL, c.Company.Name
}
