package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"blockfeed/internal/alert"
	"blockfeed/internal/cache"
	"blockfeed/internal/registry"
	"blockfeed/internal/repository"
)

// PollerService drives the ingestion loop: every tick it pulls new
// messages for each registered feed and refreshes the read cache of feeds
// that changed. Consecutive failed cycles past the threshold raise an
// alert; the loop itself never stops.
type PollerService struct {
	Store          repository.Repository
	Ingest         *IngestService
	Registry       *registry.Registry
	Cache          *cache.FeedCache
	Notifier       *alert.Notifier
	Logger         *zap.Logger
	PageLimit      int
	AlertThreshold int

	running           atomic.Bool
	consecutiveErrors int
}

// Tick runs one polling cycle. Overlapping ticks are skipped: a slow cycle
// must not stack a second one on top of itself.
func (p *PollerService) Tick(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger().Debug("previous polling cycle still running, skipping tick")
		return
	}
	defer p.running.Store(false)

	if err := p.runCycle(ctx); err != nil {
		p.consecutiveErrors++
		p.logger().Error("polling cycle failed",
			zap.Int("consecutive_errors", p.consecutiveErrors), zap.Error(err))
		if p.consecutiveErrors >= p.alertThreshold() {
			p.Notifier.Send(ctx, fmt.Sprintf("Feed ingestion failing, %d consecutive cycles: %v", p.consecutiveErrors, err))
		}
		return
	}
	p.consecutiveErrors = 0
}

func (p *PollerService) runCycle(ctx context.Context) error {
	var firstErr error
	for _, feed := range p.Registry.Feeds() {
		changed, err := p.Ingest.UpdateFeed(ctx, feed, p.PageLimit)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if changed && p.Cache != nil {
			if err := p.Cache.Refresh(ctx, feed.FeedID); err != nil {
				p.logger().Warn("failed to refresh cache after ingestion",
					zap.String("feed_id", feed.FeedID), zap.Error(err))
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return firstErr
}

// Reconcile claims posts that arrived before their feed existed. Run on a
// slower schedule than Tick.
func (p *PollerService) Reconcile(ctx context.Context) {
	for _, feed := range p.Registry.Feeds() {
		var claimed int64
		for _, composed := range []*string{feed.EvmFeedID, feed.TvmFeedID} {
			if composed == nil {
				continue
			}
			n, err := p.Store.ResolveOrphanPosts(ctx, *composed, feed.FeedID)
			if err != nil {
				p.logger().Warn("failed to resolve orphan posts",
					zap.String("feed_id", feed.FeedID), zap.Error(err))
				continue
			}
			claimed += n
		}
		if claimed > 0 {
			p.logger().Info("claimed orphan posts",
				zap.String("feed_id", feed.FeedID), zap.Int64("count", claimed))
		}
	}
}

func (p *PollerService) alertThreshold() int {
	if p.AlertThreshold <= 0 {
		return 1
	}
	return p.AlertThreshold
}

func (p *PollerService) logger() *zap.Logger {
	if p == nil || p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
