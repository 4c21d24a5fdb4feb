package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newswatch/pkg/classify"
	"github.com/umputun/newswatch/pkg/config"
	"github.com/umputun/newswatch/pkg/domain"
	"github.com/umputun/newswatch/pkg/feed"
	"github.com/umputun/newswatch/pkg/history"
	"github.com/umputun/newswatch/pkg/notify"
	"github.com/umputun/newswatch/pkg/pipeline"
	"github.com/umputun/newswatch/server"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	History string `long:"history" env:"HISTORY" description:"history file, overrides config"`
	BarkKey string `long:"bark-key" env:"BARK_KEY" description:"bark device key, overrides config"`
	DryRun  bool   `long:"dry-run" description:"fetch and classify only, no notifications and no history update"`

	Serve  bool   `long:"serve" description:"run a check and keep serving recorded history over HTTP"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address for serve mode, overrides config"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor, opts.BarkKey)

	log.Printf("[DEBUG] starting newswatch version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// historyStore is a history backend usable by both the pipeline and the server
type historyStore interface {
	pipeline.Store
	server.HistoryReader
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg, opts)
	if cfg.Notify.Key != opts.BarkKey {
		setupLog(opts.Debug, opts.NoColor, cfg.Notify.Key) // mask key from config file too
	}

	store, closeStore, err := makeStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer closeStore()

	p, err := makePipeline(cfg, store, opts.DryRun)
	if err != nil {
		return fmt.Errorf("failed to make pipeline: %w", err)
	}

	if !opts.Serve {
		return check(ctx, p, opts.DryRun)
	}

	// serve mode runs a check in parallel with the server, a failed check keeps the server up
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := check(gctx, p, opts.DryRun); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[WARN] check failed: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		return server.New(cfg, store, revision, opts.Debug).Run(gctx)
	})
	return g.Wait()
}

// check runs a single pass of the pipeline and reports the result
func check(ctx context.Context, p *pipeline.Pipeline, dryRun bool) error {
	res, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	log.Printf("[DEBUG] fetched %d, outdated %d, duplicates %d", res.Fetched, res.Outdated, res.Duplicates)
	switch {
	case dryRun:
		for _, item := range res.Items {
			log.Printf("[INFO] would notify [%s] %s, %s", item.Category, item.Title, item.Link)
		}
	case res.New == 0:
		log.Printf("[INFO] no new items")
	default:
		log.Printf("[INFO] recorded %d new items, notified %d, failed %d", res.New, res.Notified, res.Failed)
	}
	return nil
}

// applyOverrides puts CLI values on top of loaded config
func applyOverrides(cfg *config.Config, opts Opts) {
	if opts.History != "" {
		cfg.History.Path = opts.History
		cfg.History.DSN = ""
	}
	if opts.BarkKey != "" {
		cfg.Notify.Key = opts.BarkKey
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
}

// makeStore opens sqlite history if dsn is set, JSON file history otherwise
func makeStore(ctx context.Context, cfg *config.Config) (store historyStore, closeFn func(), err error) {
	if cfg.History.DSN == "" {
		log.Printf("[DEBUG] history file %s, cap %d", cfg.History.Path, cfg.History.Cap)
		return history.NewJSONStore(cfg.History.Path, cfg.History.Cap), func() {}, nil
	}

	st, err := history.NewSQLiteStore(ctx, cfg.History.DSN, cfg.History.Cap)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[DEBUG] history database %s, cap %d", cfg.History.DSN, cfg.History.Cap)
	return st, func() {
		if err := st.Close(); err != nil {
			log.Printf("[WARN] failed to close history database: %v", err)
		}
	}, nil
}

// makePipeline wires fetcher, classifier and notifier from config
func makePipeline(cfg *config.Config, store pipeline.Store, dryRun bool) (*pipeline.Pipeline, error) {
	fetcher, err := feed.NewFetcher(feed.Params{
		BaseURL:    cfg.Feed.BaseURL,
		Keywords:   cfg.Company.Keywords,
		WindowDays: cfg.Feed.WindowDays,
		Language:   cfg.Feed.Language,
		Region:     cfg.Feed.Region,
		Edition:    cfg.Feed.Edition,
		Timeout:    cfg.Feed.Timeout,
		UserAgent:  cfg.Feed.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("make fetcher: %w", err)
	}
	log.Printf("[DEBUG] feed url %s", fetcher.URL())

	bark := notify.NewBark(notify.BarkParams{
		Endpoint: cfg.Notify.Endpoint,
		Key:      cfg.Notify.Key,
		Timeout:  cfg.Notify.Timeout,
		Presenter: notify.Presenter{
			Header:     cfg.Notify.Title,
			Group:      cfg.Notify.Group,
			Icon:       cfg.Notify.Icon,
			DateFormat: cfg.Notify.DateFormat,
		},
	})

	return pipeline.New(pipeline.Config{
		Fetcher:    fetcher,
		Store:      store,
		Classifier: classify.New(makeRules(cfg)),
		Notifier:   bark,
		Window:     cfg.Window(),
		Delay:      cfg.Notify.Delay,
		DryRun:     dryRun,
	}), nil
}

// makeRules converts configured categories to classifier rules, built-in rules if none configured
func makeRules(cfg *config.Config) []classify.Rule {
	if len(cfg.Categories) == 0 {
		return classify.DefaultRules()
	}
	rules := make([]classify.Rule, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		rules = append(rules, classify.Rule{Category: domain.Category(c.Name), Keywords: c.Keywords})
	}
	return rules
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

