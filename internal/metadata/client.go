package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// Default fetcher configuration.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultUserAgent    = "token-radar/1.0"

	// maxPayloadBytes bounds reads from untrusted endpoints.
	maxPayloadBytes = 1 << 20
)

// DefaultCoinBases are the coin-info endpoints tried in priority order.
var DefaultCoinBases = []string{
	"https://frontend-api-v3.pump.fun",
	"https://frontend-api-v2.pump.fun",
}

// Fetcher performs HTTP GETs against the coin-info endpoints and
// metadata-URI payloads. Both upstreams are untrusted and best-effort; a
// circuit breaker per coin-info base URL keeps a flapping endpoint from
// adding latency to every cascade.
type Fetcher struct {
	client    *http.Client
	coinBases []string
	breakers  []*gobreaker.CircuitBreaker
	userAgent string
	gateway   string
	log       *zap.Logger
	metrics   *observability.Metrics
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithCoinBases overrides the priority-ordered coin-info base URLs.
func WithCoinBases(bases []string) FetcherOption {
	return func(f *Fetcher) {
		f.coinBases = bases
	}
}

// WithIPFSGateway sets the gateway content-addressed URIs resolve
// through. An empty value keeps the default.
func WithIPFSGateway(gateway string) FetcherOption {
	return func(f *Fetcher) {
		if gateway != "" {
			f.gateway = gateway
		}
	}
}

// WithUserAgent sets the client identifier header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLogger sets the fetcher logger.
func WithLogger(log *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = log
	}
}

// WithFetcherMetrics attaches observability counters.
func WithFetcherMetrics(m *observability.Metrics) FetcherOption {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher creates a Fetcher with one circuit breaker per coin base.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultFetchTimeout},
		coinBases: DefaultCoinBases,
		userAgent: DefaultUserAgent,
		gateway:   DefaultIPFSGateway,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.breakers = make([]*gobreaker.CircuitBreaker, len(f.coinBases))
	for i, base := range f.coinBases {
		endpoint := base
		f.breakers[i] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    endpoint,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// A definitive 404 is an answer, not an endpoint fault.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				f.log.Warn("coin endpoint breaker state change",
					zap.String("endpoint", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
				if to == gobreaker.StateOpen && f.metrics != nil {
					f.metrics.BreakerOpens.WithLabelValues(name).Inc()
				}
			},
		})
	}
	return f
}

// FetchCoin queries the coin-info endpoints for mint in priority order,
// stopping on the first success. Falls through on transient failure or a
// 404-equivalent. Returns ErrNotFound only when every endpoint
// definitively reported the coin absent; a transient failure anywhere
// wins over ErrNotFound so the result is never tombstoned prematurely.
func (f *Fetcher) FetchCoin(ctx context.Context, mint string) (*domain.TokenMeta, error) {
	if len(f.coinBases) == 0 {
		return nil, errors.New("no coin-info endpoints configured")
	}

	var transientErr error
	notFound := false

	for i, base := range f.coinBases {
		url := base + "/coins/" + mint
		v, err := f.breakers[i].Execute(func() (any, error) {
			return f.getJSON(ctx, "coin", url)
		})
		if err == nil {
			return NormalizeWith(v.(domain.RawPayload), f.gateway), nil
		}
		if errors.Is(err, ErrNotFound) {
			notFound = true
			continue
		}
		f.log.Debug("coin fetch failed, trying next endpoint",
			zap.String("endpoint", base),
			zap.String("mint", mint),
			zap.Error(err),
		)
		transientErr = err
	}

	if transientErr != nil {
		return nil, transientErr
	}
	if notFound {
		return nil, ErrNotFound
	}
	return nil, errors.New("all coin-info endpoints unavailable")
}

// FetchURI retrieves and normalizes a metadata-URI payload. The URI is
// normalized before fetching so content-addressed identifiers resolve
// through the gateway.
func (f *Fetcher) FetchURI(ctx context.Context, uri string) (*domain.TokenMeta, error) {
	url := NormalizeURIWith(uri, f.gateway)
	if url == "" {
		return nil, fmt.Errorf("unfetchable metadata uri %q", uri)
	}

	raw, err := f.getJSON(ctx, "uri", url)
	if err != nil {
		return nil, err
	}
	return NormalizeWith(raw, f.gateway), nil
}

// getJSON performs one bounded GET and decodes the body as a raw payload.
// Malformed JSON is an error of the transient class: the caller logs and
// the cascade continues without caching.
func (f *Fetcher) getJSON(ctx context.Context, source, url string) (domain.RawPayload, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		if f.metrics != nil {
			f.metrics.FetchesTotal.WithLabelValues(source, outcome).Inc()
			f.metrics.FetchLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		outcome = "not_found"
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	var raw domain.RawPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}

	outcome = "ok"
	return raw, nil
}
