package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/petrosk/trackfolio/internal/api"
	"github.com/petrosk/trackfolio/internal/auth"
	"github.com/petrosk/trackfolio/internal/config"
	"github.com/petrosk/trackfolio/internal/database"
	"github.com/petrosk/trackfolio/internal/events"
	"github.com/petrosk/trackfolio/internal/jobs"
	"github.com/petrosk/trackfolio/internal/logger"
	"github.com/petrosk/trackfolio/internal/portfolio"
	"github.com/petrosk/trackfolio/internal/quotes"
	"github.com/petrosk/trackfolio/internal/scheduler"
	"github.com/petrosk/trackfolio/internal/snapshot"
	"github.com/petrosk/trackfolio/internal/state"
	"github.com/petrosk/trackfolio/internal/watchlist"
)

func main() {
	// Load configuration first so the logger level follows it
	cfg, err := config.Load()
	if err != nil {
		// No logger yet
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Pretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("api", cfg.APIBaseURL).Msg("Starting trackfolio")

	// Local cache database holds snapshots and the stored credential
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer db.Close()

	snapshots, err := snapshot.NewStore(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot store")
	}

	creds, err := auth.NewStore(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize credential store")
	}
	if creds.Token() == "" && cfg.APIToken != "" {
		if err := creds.SetToken(cfg.APIToken); err != nil {
			log.Fatal().Err(err).Msg("Failed to store initial token")
		}
	}

	client := api.NewClient(cfg.APIBaseURL, creds, log)
	client.SetTimeout(cfg.RequestTimeout)

	bus := events.NewBus(log)

	portfolios := portfolio.NewManager(portfolio.NewBackend(client, log), snapshots, bus, log)
	watchlists := watchlist.NewManager(watchlist.NewBackend(client, log), snapshots, bus, log)

	// Auto-selection watchers keep a selection present whenever a
	// collection is non-empty
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portfolioAuto := state.NewAutoSelector(portfolios, bus, log)
	watchlistAuto := state.NewAutoSelector(watchlists, bus, log)
	defer portfolioAuto.Stop()
	defer watchlistAuto.Stop()

	// Background refresh
	sched := scheduler.New(log)
	refresh := jobs.NewRefreshJob(portfolios, watchlists, log)
	if err := sched.AddJob(cfg.RefreshCron, refresh); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RefreshCron).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// Initial sync; cache fallback keeps this useful offline
	portfolios.FetchCollection(ctx)
	watchlists.FetchCollection(ctx)

	pState := portfolios.State()
	wState := watchlists.State()
	log.Info().
		Int("portfolios", len(pState.Collection)).
		Int("watchlists", len(wState.Collection)).
		Str("portfolio_status", string(pState.CollectionStatus)).
		Str("watchlist_status", string(wState.CollectionStatus)).
		Msg("Initial sync complete")

	// Warm the quote cache for the selected watchlist
	quoteSvc := quotes.NewService(client, log)
	for _, item := range wState.Children {
		q, err := quoteSvc.Get(ctx, item.Symbol)
		if err != nil {
			log.Debug().Err(err).Str("symbol", item.Symbol).Msg("No quote available")
			continue
		}
		log.Info().Str("symbol", q.Symbol).Float64("price", q.Price).Msg("Quote")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
}
