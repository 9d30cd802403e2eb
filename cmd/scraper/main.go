package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/qepting91/reddit-archiver/internal/collector"
	"github.com/qepting91/reddit-archiver/internal/config"
	"github.com/qepting91/reddit-archiver/internal/dashboard"
	"github.com/qepting91/reddit-archiver/internal/domain"
	"github.com/qepting91/reddit-archiver/internal/prompt"
	"github.com/qepting91/reddit-archiver/internal/proxy"
	"github.com/qepting91/reddit-archiver/internal/scheduler"
	"github.com/qepting91/reddit-archiver/internal/scrape"
	"github.com/qepting91/reddit-archiver/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Setup
	godotenv.Load()

	settings, err := config.Parse(os.Args[1:])
	if err != nil {
		return 2
	}
	if settings == nil {
		return 0
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ask := prompt.New(os.Stdin, os.Stdout)
	if settings.Interactive || (settings.Subreddit == "" && isTerminal(os.Stdin)) {
		if err := ask.Fill(settings); err != nil {
			logger.Error("Failed to read settings", "err", err)
			return 1
		}
	}

	cfg, err := settings.Build()
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Confirm unbounded runs
	if cfg.Fetch.Policy.Kind == domain.PolicyAll && cfg.Schedule == "" {
		estimate := scrape.Estimate(0, scrape.DefaultRequestCost)
		if !cfg.Yes && isTerminal(os.Stdin) {
			if err := ask.Confirm(fmt.Sprintf("%.2f seconds", estimate.Seconds())); err != nil {
				if errors.Is(err, prompt.ErrCancelled) {
					fmt.Println("Scraping cancelled.")
					return 0
				}
				logger.Error("Confirmation failed", "err", err)
				return 1
			}
		} else {
			logger.Info("Estimated time for fetching all posts", "estimate", estimate.String())
		}
	}

	// 3. Initialize Client (Using Factory)
	fetcher, err := collector.NewFetcher(cfg.Collector)
	if err != nil {
		logger.Error("Failed to initialize collector", "error", err)
		return 1
	}
	logger.Info("Collector initialized", "mode", cfg.Collector.Source)

	var proxies scrape.ProxySelector
	if cfg.Fetch.UseProxy {
		ua := collector.Identity{Base: cfg.Collector.UserAgent}.UserAgent()
		proxies = proxy.NewPool(cfg.Fetch.Proxies, proxy.NewHTTPProber(cfg.ProbeURL, ua), proxy.WithLogger(logger))
		logger.Info("Proxy mode enabled", "candidates", len(cfg.Fetch.Proxies))
	}

	job := func(ctx context.Context) error {
		return scrapeOnce(ctx, cfg, fetcher, proxies, logger)
	}

	// 4. Run Dashboard
	if cfg.DashboardPort != "" {
		go func() {
			logger.Info("Starting Dashboard", "port", cfg.DashboardPort)
			if err := dashboard.StartServer(ctx, cfg.Output, cfg.DashboardPort, logger); err != nil {
				logger.Error("Dashboard failed", "err", err)
			}
		}()
	}

	// 5. One-shot run
	if cfg.Schedule == "" {
		if err := job(ctx); err != nil {
			logger.Error("Scrape failed", "err", err)
			return 1
		}
		if cfg.DashboardPort != "" {
			// Keep alive for dashboard
			<-ctx.Done()
		}
		return 0
	}

	// 6. Scheduled runs until a signal arrives
	sched, err := scheduler.New(cfg.Schedule, job, logger)
	if err != nil {
		logger.Error("Invalid schedule", "err", err)
		return 1
	}
	if err := sched.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", "err", err)
		return 1
	}
	<-ctx.Done()
	logger.Info("Shutdown signal received")
	sched.Stop()
	return 0
}

// scrapeOnce runs one complete pass over the listing and writes the archive.
// Records gathered before an abort are still written.
func scrapeOnce(ctx context.Context, cfg *config.Config, fetcher domain.PageFetcher, proxies scrape.ProxySelector, logger *slog.Logger) error {
	log := logger.With("run_id", uuid.NewString(), "subreddit", cfg.Fetch.Subreddit)

	opts := cfg.Scrape
	opts.Logger = log
	driver, err := scrape.NewDriver(cfg.Fetch, fetcher, proxies, opts)
	if err != nil {
		return err
	}

	log.Info("Starting the scraping process", "policy", cfg.Fetch.Policy.Kind)
	res, runErr := driver.Run(ctx)
	log.Info("Scrape finished", "state", res.State.String(), "pages", res.Pages, "requests", res.Requests, "records", len(res.Records))

	if runErr != nil && len(res.Records) == 0 {
		return runErr
	}

	writer := &storage.WriterService{FilePath: cfg.Output}
	if err := writer.WriteAll(res.Records); err != nil {
		return errors.Join(runErr, fmt.Errorf("write archive: %w", err))
	}
	log.Info(fmt.Sprintf("Saved %d posts to %s", len(res.Records), cfg.Output), "count", len(res.Records), "file", cfg.Output)
	return runErr
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
