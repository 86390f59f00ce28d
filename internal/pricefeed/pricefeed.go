// Package pricefeed maintains the SOL/USD price used to convert
// SOL-denominated pricing into dollar market caps.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"token-radar/internal/observability"
)

// DefaultEndpoint serves {"solana": {"usd": <price>}}.
const DefaultEndpoint = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"

const (
	defaultInterval = 30 * time.Second
	requestTimeout  = 10 * time.Second
	maxBodyBytes    = 64 * 1024
)

// Poller periodically refreshes the SOL/USD price from an HTTP endpoint.
// Consumers read through Price, which never blocks and always returns
// the last good value.
type Poller struct {
	endpoint string
	interval time.Duration
	client   *http.Client
	log      *zap.Logger
	metrics  *observability.Metrics

	// price holds math.Float64bits of the last refreshed value.
	price atomic.Uint64
}

// Options for creating a Poller.
type Options struct {
	Endpoint string  // defaults to DefaultEndpoint
	Fallback float64 // served until the first successful refresh

	Interval   time.Duration          // optional, defaults to 30s
	HTTPClient *http.Client           // optional
	Logger     *zap.Logger            // optional
	Metrics    *observability.Metrics // optional
}

// New creates a Poller seeded with the fallback price.
func New(opts Options) *Poller {
	p := &Poller{
		endpoint: opts.Endpoint,
		interval: opts.Interval,
		client:   opts.HTTPClient,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
	if p.endpoint == "" {
		p.endpoint = DefaultEndpoint
	}
	if p.interval <= 0 {
		p.interval = defaultInterval
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: requestTimeout}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	p.price.Store(math.Float64bits(opts.Fallback))
	return p
}

// Price returns the most recently refreshed SOL/USD price.
func (p *Poller) Price() float64 {
	return math.Float64frombits(p.price.Load())
}

// Run refreshes the price on the configured interval until ctx is
// cancelled. The first refresh happens immediately.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh fetches the price with bounded retries. On persistent failure
// the previous value stays in place.
func (p *Poller) refresh(ctx context.Context) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

	price, err := backoff.RetryWithData(func() (float64, error) {
		return p.fetch(ctx)
	}, policy)
	if err != nil {
		p.log.Warn("sol price refresh failed, keeping previous value",
			zap.Float64("previous", p.Price()),
			zap.Error(err),
		)
		if p.metrics != nil {
			p.metrics.PriceRefreshErrs.Inc()
		}
		return
	}

	p.price.Store(math.Float64bits(price))
	if p.metrics != nil {
		p.metrics.SolPriceUSD.Set(price)
	}
	p.log.Debug("sol price refreshed", zap.Float64("usd", price))
}

func (p *Poller) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, err
	}

	var payload struct {
		Solana struct {
			USD float64 `json:"usd"`
		} `json:"solana"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode price payload: %w", err)
	}
	if payload.Solana.USD <= 0 {
		return 0, fmt.Errorf("price payload missing positive usd value")
	}
	return payload.Solana.USD, nil
}
