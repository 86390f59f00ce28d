// Package server exposes the aggregation pipeline over HTTP: the
// leaderboard query API, point coin lookups, a websocket live view, and
// operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/metadata"
	"token-radar/internal/mintaddr"
	"token-radar/internal/observability"
	"token-radar/internal/storage"
)

// QueryRunner is the aggregation entrypoint the API serves.
type QueryRunner interface {
	Query(ctx context.Context, opts domain.QueryOptions) (*domain.QueryResult, error)
}

// RecordResolver upgrades a single record for point lookups.
type RecordResolver interface {
	Resolve(ctx context.Context, rec *domain.TokenRecord) *domain.TokenRecord
}

// Server is the HTTP front end.
type Server struct {
	pipeline    QueryRunner
	tokenStore  storage.TokenStore
	resolver    RecordResolver
	broadcaster *Broadcaster
	log         *zap.Logger

	mux        *http.ServeMux
	httpServer *http.Server
}

// Options for creating a Server.
type Options struct {
	Addr        string
	Pipeline    QueryRunner         // required
	TokenStore  storage.TokenStore  // required
	Resolver    RecordResolver      // required
	Broadcaster *Broadcaster        // optional, /ws returns 404 when nil
	Logger      *zap.Logger         // optional
}

// New creates a Server with all routes registered.
func New(opts Options) *Server {
	s := &Server{
		pipeline:    opts.Pipeline,
		tokenStore:  opts.TokenStore,
		resolver:    opts.Resolver,
		broadcaster: opts.Broadcaster,
		log:         opts.Logger,
		mux:         http.NewServeMux(),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/tokens", s.handleTokens)
	s.mux.HandleFunc("GET /api/coins/{mint}", s.handleCoin)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", observability.Handler())
	if s.broadcaster != nil {
		s.mux.HandleFunc("GET /ws", s.broadcaster.Handler())
	}
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start begins serving. Blocks until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and disconnects live-view clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.broadcaster != nil {
		s.broadcaster.CloseAll()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	opts, err := parseQueryOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.pipeline.Query(r.Context(), opts)
	if err != nil {
		s.log.Warn("leaderboard query failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "aggregation temporarily unavailable")
		return
	}
	writeJSON(w, http.StatusOK, toQueryResponse(res))
}

func (s *Server) handleCoin(w http.ResponseWriter, r *http.Request) {
	mint := r.PathValue("mint")
	if err := mintaddr.Validate(mint); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid mint address: %v", err))
		return
	}
	// Launchpad mints are generated keypairs, hence on-curve. Off-curve
	// input is a program-derived account (bonding curve, vault) pasted
	// where a mint belongs.
	if !mintaddr.IsOnCurve(mint) {
		writeError(w, http.StatusBadRequest, "not a token mint: program-derived address")
		return
	}

	rec, err := s.tokenStore.GetByMint(r.Context(), mint)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, metadata.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown mint")
			return
		}
		s.log.Warn("coin lookup failed", zap.String("mint", mint), zap.Error(err))
		writeError(w, http.StatusBadGateway, "lookup temporarily unavailable")
		return
	}

	resolved := s.resolver.Resolve(r.Context(), rec)
	writeJSON(w, http.StatusOK, toCoinResponse(resolved))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseQueryOptions maps URL query parameters onto QueryOptions.
// Unknown sort keys and directions fall back to defaults during
// normalization; malformed numerics are a client error.
func parseQueryOptions(r *http.Request) (domain.QueryOptions, error) {
	q := r.URL.Query()
	var opts domain.QueryOptions
	var err error

	if opts.Page, err = intParam(q.Get("page")); err != nil {
		return opts, fmt.Errorf("page: %w", err)
	}
	if opts.PageSize, err = intParam(q.Get("page_size")); err != nil {
		return opts, fmt.Errorf("page_size: %w", err)
	}
	if opts.TimeRangeMinutes, err = intParam(q.Get("time_range")); err != nil {
		return opts, fmt.Errorf("time_range: %w", err)
	}
	opts.SortBy = domain.SortKey(q.Get("sort_by"))
	opts.SortDir = domain.SortDir(q.Get("sort_dir"))

	f := &opts.Filters
	if f.MinMarketCap, err = floatParam(q.Get("min_market_cap")); err != nil {
		return opts, fmt.Errorf("min_market_cap: %w", err)
	}
	if f.MaxMarketCap, err = floatParam(q.Get("max_market_cap")); err != nil {
		return opts, fmt.Errorf("max_market_cap: %w", err)
	}
	if f.MinVolume, err = floatParam(q.Get("min_volume")); err != nil {
		return opts, fmt.Errorf("min_volume: %w", err)
	}
	if f.MaxVolume, err = floatParam(q.Get("max_volume")); err != nil {
		return opts, fmt.Errorf("max_volume: %w", err)
	}
	if f.MinTraders, err = intPtrParam(q.Get("min_traders")); err != nil {
		return opts, fmt.Errorf("min_traders: %w", err)
	}
	if f.MaxTraders, err = intPtrParam(q.Get("max_traders")); err != nil {
		return opts, fmt.Errorf("max_traders: %w", err)
	}
	if f.MinTradeAmount, err = floatParam(q.Get("min_trade_amount")); err != nil {
		return opts, fmt.Errorf("min_trade_amount: %w", err)
	}
	if f.MaxTradeAmount, err = floatParam(q.Get("max_trade_amount")); err != nil {
		return opts, fmt.Errorf("max_trade_amount: %w", err)
	}

	f.GraduatedOnly = boolParam(q.Get("graduated_only"))
	f.HideGraduated = boolParam(q.Get("hide_graduated"))
	f.HideBonding = boolParam(q.Get("hide_bonding"))
	f.FavoritesOnly = boolParam(q.Get("favorites_only"))
	if favs := q.Get("favorites"); favs != "" {
		for _, mint := range strings.Split(favs, ",") {
			if mint = strings.TrimSpace(mint); mint != "" {
				f.Favorites = append(f.Favorites, mint)
			}
		}
	}

	return opts, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func intPtrParam(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func floatParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func boolParam(raw string) bool {
	v, _ := strconv.ParseBool(raw)
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
