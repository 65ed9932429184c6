package service

import (
	"context"

	"go.uber.org/zap"

	"blockfeed/internal/client/indexer"
	"blockfeed/internal/content"
	"blockfeed/internal/repository"
)

// RestoreService retries posts whose content was missing at ingestion
// time. A successful fetch re-runs classification and atomically clears
// the no-content marker.
type RestoreService struct {
	Store     repository.Repository
	Indexer   *indexer.Client
	Ingest    *IngestService
	Logger    *zap.Logger
	BatchSize int
}

func (r *RestoreService) Run(ctx context.Context) {
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}
	markers, err := r.Store.ListNoContentPosts(ctx, batch)
	if err != nil {
		r.logger().Warn("failed to list no-content posts", zap.Error(err))
		return
	}
	if len(markers) == 0 {
		return
	}
	r.logger().Info("retrying no-content posts", zap.Int("count", len(markers)))
	restored := 0
	for _, marker := range markers {
		if ctx.Err() != nil {
			return
		}
		post, err := r.Store.GetPostByID(ctx, marker.PostID)
		if err != nil || post == nil {
			if err != nil {
				r.logger().Warn("failed to load no-content post",
					zap.String("post_id", marker.PostID), zap.Error(err))
			}
			continue
		}
		msgContent, err := r.Indexer.FetchContent(ctx, post.ID)
		if err != nil {
			r.logger().Warn("content still unavailable",
				zap.String("post_id", post.ID), zap.Error(err))
			continue
		}
		if msgContent == nil || msgContent.Corrupted {
			continue
		}
		// Clear the sentinel state before re-classifying.
		post.Banned = false
		post.IsAutobanned = false
		post.ContentText = ""
		r.Ingest.applyContent(post, msgContent)
		if err := r.Store.RestorePostContentTx(ctx, post, marker.ID); err != nil {
			r.logger().Warn("failed to restore post content",
				zap.String("post_id", post.ID), zap.Error(err))
			continue
		}
		if tags := content.ExtractHashtags(post.ContentText); len(tags) > 0 {
			if err := r.Store.SaveHashtags(ctx, post.ID, tags); err != nil {
				r.logger().Warn("failed to save hashtags for restored post",
					zap.String("post_id", post.ID), zap.Error(err))
			}
		}
		r.Ingest.broadcastReply(ctx, post)
		restored++
	}
	if restored > 0 {
		r.logger().Info("restored posts", zap.Int("count", restored))
	}
}

func (r *RestoreService) logger() *zap.Logger {
	if r == nil || r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
