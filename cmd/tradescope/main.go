package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/evgsol/tradescope/pkg/collector"
	"github.com/evgsol/tradescope/pkg/config"
	"github.com/evgsol/tradescope/pkg/domain"
	"github.com/evgsol/tradescope/pkg/feedapi"
	"github.com/evgsol/tradescope/pkg/output"
	"github.com/evgsol/tradescope/pkg/resilient"
	"github.com/evgsol/tradescope/pkg/serp"
)

// Opts with all CLI options
type Opts struct {
	Artist string `short:"a" long:"artist" env:"ARTIST" description:"artist name to collect for"`
	All    bool   `long:"all" description:"collect all trade posts, no artist filter"`

	Limit  int    `short:"l" long:"limit" env:"LIMIT" default:"500" description:"max posts to collect"`
	Pages  int    `short:"p" long:"pages" env:"PAGES" default:"5" description:"max pages per community"`
	Months int    `short:"m" long:"months" env:"MONTHS" default:"6" description:"lookback window in months"`
	Source string `short:"s" long:"source" env:"SOURCE" choice:"both" choice:"feed" choice:"serp" default:"feed" description:"data sources to use"`

	Output  string `short:"o" long:"output" env:"OUTPUT" description:"output file (default: data/<artist>_trade_<timestamp>.jsonl)"`
	DataDir string `long:"data-dir" env:"DATA_DIR" default:"data" description:"directory for default output files"`
	DB      string `long:"db" env:"TRADESCOPE_DB" description:"optional sqlite archive DSN"`
	Config  string `short:"c" long:"config" env:"CONFIG" description:"yaml config file"`

	FeedID     string `long:"feed-id" env:"REDDIT_APP_ID" description:"feed api application id"`
	FeedSecret string `long:"feed-secret" env:"REDDIT_SECRET" description:"feed api application secret"`
	SerpKey    string `long:"serp-key" env:"SERPAPI_KEY" description:"search engine api key"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	// pull credentials from .env before go-flags reads the environment
	_ = godotenv.Load()

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

	setupLog(opts.Debug, opts.FeedSecret, opts.SerpKey)

	if err := validateOpts(&opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	log.Printf("[INFO] starting tradescope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, &opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] collection failed: %v", err)
		os.Exit(1)
	}
}

// validateOpts enforces the artist/all choice and normalizes it
func validateOpts(opts *Opts) error {
	if !opts.All && opts.Artist == "" {
		return errors.New("either --artist or --all is required")
	}
	if opts.All {
		opts.Artist = ""
	}
	return nil
}

func run(ctx context.Context, opts *Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	retry := resilient.New(cfg.Retry.Attempts, cfg.Retry.Initial, cfg.Retry.MaxDelay)

	feedHTTP := &http.Client{Timeout: cfg.Feed.Timeout}
	session := feedapi.NewSession(cfg.Feed.AuthURL, opts.FeedID, opts.FeedSecret, cfg.Feed.UserAgent, feedHTTP)
	feedClient := feedapi.NewClient(feedapi.ClientConfig{
		BaseURL:    cfg.Feed.BaseURL,
		LinkBase:   cfg.Feed.LinkBase,
		UserAgent:  cfg.Feed.UserAgent,
		PageSize:   cfg.Feed.PageSize,
		Throttle:   cfg.Feed.Throttle,
		Session:    session,
		HTTPClient: feedHTTP,
		Retry:      retry,
	})

	serpClient := serp.NewClient(serp.ClientConfig{
		BaseURL:    cfg.Serp.BaseURL,
		APIKey:     opts.SerpKey,
		Site:       cfg.Serp.Site,
		Results:    cfg.Serp.Results,
		HTTPClient: &http.Client{Timeout: cfg.Serp.Timeout},
		Retry:      retry,
	})

	coll := collector.New(collector.Config{
		Feed:        feedClient,
		Serp:        serpClient,
		Communities: cfg.Communities,
		Aliases:     cfg.ArtistAliases,
		Keywords:    cfg.TradeKeywords,
		Throttle:    cfg.Feed.Throttle,
	})

	posts, err := coll.Collect(ctx, collector.Params{
		Artist:   opts.Artist,
		Limit:    opts.Limit,
		MaxPages: opts.Pages,
		Months:   opts.Months,
		Mode:     collector.Mode(opts.Source),
	})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	if len(posts) == 0 {
		log.Print("[WARN] no trade posts collected, check credentials and filters")
		return nil
	}

	outPath := opts.Output
	if outPath == "" {
		outPath = output.DefaultPath(opts.DataDir, opts.Artist, posts[0].CollectedAt)
	}
	if err := output.WriteJSONL(outPath, posts); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Printf("[INFO] saved %d trade posts to %s", len(posts), outPath)

	if opts.DB != "" {
		archive, err := output.NewArchive(opts.DB)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer archive.Close()
		if err := archive.Store(ctx, posts); err != nil {
			return fmt.Errorf("archive posts: %w", err)
		}
		log.Printf("[INFO] archived %d posts to %s", len(posts), opts.DB)
	}

	printSummary(posts)
	return nil
}

// printSummary reports per-source counts and a sample of collected titles
func printSummary(posts []domain.Post) {
	for source, count := range sourceStats(posts) {
		log.Printf("[INFO] source %s: %d posts", source, count)
	}

	sample := posts
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for i, p := range sample {
		log.Printf("[INFO]   %d. [%s] %s", i+1, p.Source, domain.Clip(p.Title, 60))
	}
	if len(posts) > len(sample) {
		log.Printf("[INFO]   ... and %d more", len(posts)-len(sample))
	}
}

func sourceStats(posts []domain.Post) map[domain.SourceKind]int {
	stats := make(map[domain.SourceKind]int)
	for _, p := range posts {
		stats[p.Source]++
	}
	return stats
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(os.Stdout), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

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
