// Package main runs a one-shot leaderboard query against the configured
// stores and prints the result as a table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"token-radar/internal/aggregation"
	"token-radar/internal/config"
	"token-radar/internal/domain"
	"token-radar/internal/logging"
	"token-radar/internal/metadata"
	"token-radar/internal/storage"
	"token-radar/internal/storage/memory"
	"token-radar/internal/storage/migrations"
	pgstore "token-radar/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	cfgFile := flag.String("config", "", "Path to config file (optional)")
	sortBy := flag.String("sort", "market_cap", "Sort key: market_cap, volume, buy_volume, sell_volume, traders, age, last_trade")
	sortDir := flag.String("dir", "desc", "Sort direction: asc or desc")
	window := flag.Int("window", 30, "Lookback window in minutes")
	page := flag.Int("page", 1, "Page number")
	pageSize := flag.Int("page-size", 25, "Page size")
	solPrice := flag.Float64("sol-price", 150.0, "SOL/USD price for market cap conversion")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Options{Level: "warn"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tradeStore, tokenStore, err := buildStores(ctx, cfg)
	if err != nil {
		log.Fatal("storage setup failed", zap.Error(err))
	}

	cache := metadata.NewCache()
	fetcher := metadata.NewFetcher(
		metadata.WithCoinBases(cfg.CoinEndpoints),
		metadata.WithIPFSGateway(cfg.IPFSGateway),
		metadata.WithLogger(log),
	)
	resolver := metadata.NewResolver(cache, fetcher, log)

	price := *solPrice
	pipeline := aggregation.New(aggregation.Options{
		TradeStore: tradeStore,
		TokenStore: tokenStore,
		Resolver:   resolver,
		SolPrice:   func() float64 { return price },
		Logger:     log,
	})

	res, err := pipeline.Query(ctx, domain.QueryOptions{
		Page:             *page,
		PageSize:         *pageSize,
		SortBy:           domain.SortKey(*sortBy),
		SortDir:          domain.SortDir(*sortDir),
		TimeRangeMinutes: *window,
	})
	if err != nil {
		log.Fatal("query failed", zap.Error(err))
	}

	printResult(res)
}

func buildStores(ctx context.Context, cfg config.Config) (storage.TradeStore, storage.TokenStore, error) {
	if cfg.Storage == "memory" {
		return memory.NewTradeStore(), memory.NewTokenStore(), nil
	}
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	return pgstore.NewTradeStore(pool), pgstore.NewTokenStore(pool), nil
}

func printResult(res *domain.QueryResult) {
	fmt.Printf("%d tokens, window %dm, page %d/%d\n\n",
		res.Total, res.EffectiveTimeRangeMinutes, res.Page, res.TotalPages)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMINT\tNAME\tSYMBOL\tMCAP USD\tVOL USD\tB/S\tTRADERS\tLAST TRADE")
	rank := (res.Page-1)*res.PageSize + 1
	for i, tok := range res.Tokens {
		lastTrade := "-"
		if tok.LastTradeAt > 0 {
			lastTrade = time.UnixMilli(tok.LastTradeAt).UTC().Format("15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.0f\t%.0f\t%.2f\t%d\t%s\n",
			rank+i, shorten(tok.Mint), tok.Name, tok.Symbol,
			tok.MarketCapUSD, tok.VolumeUSD, tok.BuySellRatio,
			tok.UniqueTraders, lastTrade)
	}
	w.Flush()
}

func shorten(mint string) string {
	if len(mint) <= 12 {
		return mint
	}
	return mint[:6] + ".." + mint[len(mint)-4:]
}
