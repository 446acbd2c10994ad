package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petrosk/trackfolio/internal/config"
	"github.com/petrosk/trackfolio/internal/logger"
	"github.com/petrosk/trackfolio/internal/quotes"
	"github.com/petrosk/trackfolio/internal/stubserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Pretty,
	})

	store := stubserver.NewStore()
	seedQuotes(store)

	srv := stubserver.New(stubserver.Config{
		Port:  cfg.Port,
		Token: cfg.APIToken,
		Log:   log,
	}, store)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Stub server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}

// seedQuotes loads a small fixed quote table so watchlist items and
// portfolio valuations have prices out of the box.
func seedQuotes(store *stubserver.Store) {
	for _, q := range []quotes.Quote{
		{Symbol: "AAPL", Price: 232.10, Change: 1.42, ChangePercent: 0.62},
		{Symbol: "MSFT", Price: 517.30, Change: -2.15, ChangePercent: -0.41},
		{Symbol: "GOOG", Price: 211.85, Change: 0.93, ChangePercent: 0.44},
		{Symbol: "VWCE.DE", Price: 139.52, Change: 0.27, ChangePercent: 0.19},
	} {
		store.SetQuote(q)
	}
}
