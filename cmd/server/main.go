// Package main runs the token-radar service: trade aggregation, metadata
// resolution, the leaderboard HTTP API, and the websocket live view.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"token-radar/internal/aggregation"
	"token-radar/internal/config"
	"token-radar/internal/domain"
	"token-radar/internal/hydrator"
	"token-radar/internal/logging"
	"token-radar/internal/metadata"
	"token-radar/internal/observability"
	"token-radar/internal/pricefeed"
	"token-radar/internal/server"
	"token-radar/internal/storage"
	chstore "token-radar/internal/storage/clickhouse"
	"token-radar/internal/storage/memory"
	"token-radar/internal/storage/migrations"
	pgstore "token-radar/internal/storage/postgres"
)

const cacheSweepInterval = time.Minute

func main() {
	// .env is optional; system env vars win.
	_ = godotenv.Load()

	cfgFile := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("", nil)

	tradeStore, tokenStore, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}

	cache := metadata.NewCache(
		metadata.WithMetrics(metrics),
	)
	fetcher := metadata.NewFetcher(
		metadata.WithCoinBases(cfg.CoinEndpoints),
		metadata.WithIPFSGateway(cfg.IPFSGateway),
		metadata.WithLogger(log),
		metadata.WithFetcherMetrics(metrics),
	)
	resolver := metadata.NewResolver(cache, fetcher, log)

	poller := pricefeed.New(pricefeed.Options{
		Endpoint: cfg.PriceEndpoint,
		Fallback: cfg.PriceFallback,
		Interval: cfg.PriceInterval,
		Logger:   log,
		Metrics:  metrics,
	})
	go poller.Run(ctx)

	go sweepCache(ctx, cache)

	pipeline := aggregation.New(aggregation.Options{
		TradeStore: tradeStore,
		TokenStore: tokenStore,
		Resolver:   resolver,
		SolPrice:   poller.Price,
		Logger:     log,
		Metrics:    metrics,
	})

	hyd := hydrator.New(hydrator.Options{
		Resolver: resolver,
		Logger:   log,
		Metrics:  metrics,
	})

	broadcaster := server.NewBroadcaster(log, metrics)
	liveView := server.NewLiveView(server.LiveViewOptions{
		Pipeline:    pipeline,
		Broadcaster: broadcaster,
		Hydrator:    hyd,
		Interval:    cfg.RefreshInterval,
		ViewOptions: domain.QueryOptions{TimeRangeMinutes: domain.FloorWindowMinutes},
		Logger:      log,
	})
	go liveView.Run(ctx)

	srv := server.New(server.Options{
		Addr:        cfg.ListenAddr,
		Pipeline:    pipeline,
		TokenStore:  tokenStore,
		Resolver:    resolver,
		Broadcaster: broadcaster,
		Logger:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// buildStores wires the configured storage backend. The analytics DSN,
// when set, routes trades to ClickHouse while token records stay on the
// primary backend.
func buildStores(ctx context.Context, cfg config.Config, log *zap.Logger) (storage.TradeStore, storage.TokenStore, error) {
	var (
		tradeStore storage.TradeStore
		tokenStore storage.TokenStore
	)

	switch cfg.Storage {
	case "memory":
		tradeStore = memory.NewTradeStore()
		tokenStore = memory.NewTokenStore()
		log.Info("using in-memory storage")
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		tradeStore = pgstore.NewTradeStore(pool)
		tokenStore = pgstore.NewTokenStore(pool)
		log.Info("using postgres storage")
	}

	if cfg.AnalyticsDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.AnalyticsDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		tradeStore = chstore.NewTradeStore(conn)
		log.Info("trade ledger on clickhouse")
	}

	return tradeStore, tokenStore, nil
}

func sweepCache(ctx context.Context, cache *metadata.Cache) {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cache.Sweep()
		}
	}
}
