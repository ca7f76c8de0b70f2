package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/froosterton/lookup/config"
	"github.com/froosterton/lookup/fetch"
	"github.com/froosterton/lookup/health"
	"github.com/froosterton/lookup/log"
	"github.com/froosterton/lookup/nexus"
	"github.com/froosterton/lookup/notify"
	"github.com/froosterton/lookup/scrape"
	"github.com/froosterton/lookup/utils"
)

func main() {
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	configFile := flag.String("config", "", "optional yaml config file; environment variables override it")
	flag.Parse()

	config.Debug = *debugFlag
	logger := log.InitializeDefaultLogger()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("err", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", slog.String("err", err.Error()))
		os.Exit(1)
	}
	itemIDs := cfg.ParseItemIDs()

	slog.Info("starting crawler",
		slog.Any("items", itemIDs),
		slog.String("base", cfg.BaseURL),
		slog.String("webhook", utils.ShortenString(cfg.WebhookURL, 50)))
	slog.Debug("effective config", slog.String("config", cfg.Redacted()))

	state := scrape.NewState()

	healthSrv := health.NewServer(cfg.Port, state)
	healthSrv.Start()
	slog.Info("health endpoint listening", slog.Int("port", cfg.Port))

	pool, err := fetch.NewPool(fetch.SessionConfig{ChromePath: cfg.ChromePath})
	if err != nil {
		slog.Error("failed to start browser sessions", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = log.ContextWithLogger(ctx, logger)

	crawler := scrape.NewCrawler(scrape.Options{
		Listing: pool.Listing,
		Profile: pool.Profile,
		Restart: func(ctx context.Context) (fetch.PageSession, fetch.PageSession, error) {
			if err := pool.Restart(ctx); err != nil {
				return nil, nil, err
			}
			return pool.Listing, pool.Profile, nil
		},
		Lookup:   nexus.NewClient(cfg.NexusAPIURL, cfg.NexusAdminKey),
		Notifier: notify.NewDiscord(cfg.WebhookURL, cfg.UsernameWebhookURL),
		State:    state,
		BaseURL:  cfg.BaseURL,
		Delays: scrape.Delays{
			ListingSettle: cfg.ListingSettle,
			TableInit:     cfg.TableInit,
			PageFlip:      cfg.PageFlipSettle,
			ProfileSettle: cfg.ProfileSettle,
			Skip:          cfg.SkipDelay,
			Processed:     cfg.ProcessedDelay,
			Recovery:      cfg.RecoveryDelay,
			Retry:         cfg.RetryDelay,
			ProfileRetry:  cfg.ProfileRetryDelay,
		},
		Waits: scrape.Waits{
			TableRender: cfg.TableRenderWait,
			Paginator:   cfg.PaginatorWait,
		},
		MaxRetries: cfg.MaxRetries,
	})

	crawler.Run(ctx, itemIDs)
	slog.Info("crawl finished", slog.Int("total_matches", state.Snapshot().TotalMatches))

	// stay up for the health endpoint until the process is told to stop
	<-ctx.Done()

	pool.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("health server shutdown failed", slog.String("err", err.Error()))
	}
}
