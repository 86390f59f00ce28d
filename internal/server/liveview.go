package server

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/domain"
)

// Passer runs one incremental hydration round over a result set.
type Passer interface {
	Pass(ctx context.Context, tokens []*domain.AggregatedToken) int
}

// LiveView periodically re-runs the leaderboard query and pushes the
// result to websocket clients, with a hydration round in between so
// metadata corrections reach clients without waiting a full cycle.
type LiveView struct {
	pipeline    QueryRunner
	broadcaster *Broadcaster
	hydrator    Passer
	interval    time.Duration
	viewOpts    domain.QueryOptions
	log         *zap.Logger

	// refreshing guards against overlapping refreshes when a cycle
	// outlasts the interval.
	refreshing atomic.Bool
}

// LiveViewOptions for creating a LiveView.
type LiveViewOptions struct {
	Pipeline    QueryRunner         // required
	Broadcaster *Broadcaster        // required
	Hydrator    Passer              // optional
	Interval    time.Duration       // optional, defaults to 5s
	ViewOptions domain.QueryOptions // the query every cycle runs
	Logger      *zap.Logger         // optional
}

// NewLiveView creates a LiveView.
func NewLiveView(opts LiveViewOptions) *LiveView {
	lv := &LiveView{
		pipeline:    opts.Pipeline,
		broadcaster: opts.Broadcaster,
		hydrator:    opts.Hydrator,
		interval:    opts.Interval,
		viewOpts:    opts.ViewOptions,
		log:         opts.Logger,
	}
	if lv.interval <= 0 {
		lv.interval = 5 * time.Second
	}
	if lv.log == nil {
		lv.log = zap.NewNop()
	}
	return lv
}

// Run refreshes on the configured interval until ctx is cancelled.
func (lv *LiveView) Run(ctx context.Context) {
	lv.Refresh(ctx)

	ticker := time.NewTicker(lv.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lv.Refresh(ctx)
		}
	}
}

// Refresh runs one cycle: query, broadcast, hydrate, and re-broadcast
// when hydration changed anything. A cycle already in progress makes
// this call a no-op instead of queueing behind it.
func (lv *LiveView) Refresh(ctx context.Context) {
	if !lv.refreshing.CompareAndSwap(false, true) {
		lv.log.Debug("live view refresh skipped, previous cycle still running")
		return
	}
	defer lv.refreshing.Store(false)

	opts := lv.viewOpts
	res, err := lv.pipeline.Query(ctx, opts)
	if err != nil {
		lv.log.Warn("live view refresh failed", zap.Error(err))
		return
	}
	lv.broadcaster.Broadcast(toQueryResponse(res))

	if lv.hydrator == nil {
		return
	}
	if merged := lv.hydrator.Pass(ctx, res.Tokens); merged > 0 {
		lv.broadcaster.Broadcast(toQueryResponse(res))
	}
}
