package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"blockfeed/internal/models"
	"blockfeed/internal/registry"
	"blockfeed/internal/repository"
)

// PostDTO is the read-model shape served to clients. Admin fields decorate
// posts whose sender moderates the feed; Reactions maps emoji to counts.
type PostDTO struct {
	ID              string           `json:"id"`
	CreateTimestamp int64            `json:"createTimestamp"`
	FeedID          string           `json:"feedId"`
	Sender          string           `json:"sender"`
	Blockchain      string           `json:"blockchain"`
	Meta            json.RawMessage  `json:"meta"`
	Content         json.RawMessage  `json:"content"`
	Banned          bool             `json:"banned"`
	IsAdmin         bool             `json:"isAdmin"`
	AdminTitle      string           `json:"adminTitle,omitempty"`
	AdminRank       string           `json:"adminRank,omitempty"`
	AdminEmoji      string           `json:"adminEmoji,omitempty"`
	Reactions       map[string]int64 `json:"reactions,omitempty"`
}

// FeedCache keeps the newest posts of every feed in memory so the common
// read (first pages of a feed) never touches storage. Windows are replaced
// wholesale on refresh; a failed refresh keeps the last good window.
type FeedCache struct {
	Store      repository.Repository
	Registry   *registry.Registry
	Logger     *zap.Logger
	WindowSize int

	mu     sync.RWMutex
	byFeed map[string][]PostDTO
}

func New(store repository.Repository, reg *registry.Registry, logger *zap.Logger, windowSize int) *FeedCache {
	if windowSize <= 0 {
		windowSize = 50
	}
	return &FeedCache{
		Store:      store,
		Registry:   reg,
		Logger:     logger,
		WindowSize: windowSize,
		byFeed:     map[string][]PostDTO{},
	}
}

// Refresh rebuilds one feed's window from storage.
func (c *FeedCache) Refresh(ctx context.Context, feedID string) error {
	if c == nil || c.Store == nil {
		return nil
	}
	posts, err := c.Store.ListPosts(ctx, repository.ListPostsParams{
		FeedID: &feedID,
		Limit:  c.WindowSize,
	})
	if err != nil {
		return err
	}
	ids := make([]string, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	reactions, err := c.Store.ReactionAggregates(ctx, ids)
	if err != nil {
		return err
	}
	var admins []models.Admin
	if c.Registry != nil {
		admins = c.Registry.AdminsFor(feedID)
	}
	window := make([]PostDTO, len(posts))
	for i, post := range posts {
		window[i] = BuildDTO(post, admins, reactions[post.ID])
	}
	c.mu.Lock()
	c.byFeed[feedID] = window
	c.mu.Unlock()
	return nil
}

// RefreshAll rebuilds every registered feed. Per-feed failures keep that
// feed's previous window and do not stop the sweep.
func (c *FeedCache) RefreshAll(ctx context.Context) error {
	if c == nil || c.Registry == nil {
		return nil
	}
	var lastErr error
	for _, feed := range c.Registry.Feeds() {
		if err := c.Refresh(ctx, feed.FeedID); err != nil {
			lastErr = err
			c.logger().Warn("feed cache refresh failed, serving stale window",
				zap.String("feed_id", feed.FeedID), zap.Error(err))
		}
	}
	return lastErr
}

// Invalidate drops posts from every window, used when a moderation action
// must take effect before the next timed refresh.
func (c *FeedCache) Invalidate(postIDs ...string) {
	if c == nil || len(postIDs) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		drop[id] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for feedID, window := range c.byFeed {
		kept := window[:0:0]
		for _, post := range window {
			if _, gone := drop[post.ID]; !gone {
				kept = append(kept, post)
			}
		}
		c.byFeed[feedID] = kept
	}
}

// Window returns the current snapshot for a feed. Nil means cold.
func (c *FeedCache) Window(feedID string) []PostDTO {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byFeed[feedID]
}

// SliceBefore serves one page from the window. The second return is false
// when the window cannot satisfy the request (cold cache, cursor past the
// window, or fewer than limit posts left), in which case the caller falls
// back to storage.
func (c *FeedCache) SliceBefore(feedID string, beforeTimestamp int64, limit int) ([]PostDTO, bool) {
	if limit <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	window, ok := c.byFeed[feedID]
	if !ok {
		return nil, false
	}
	idx := 0
	if beforeTimestamp > 0 {
		idx = -1
		for i, post := range window {
			if post.CreateTimestamp < beforeTimestamp {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, false
		}
	}
	if idx > len(window)-limit {
		return nil, false
	}
	page := make([]PostDTO, limit)
	copy(page, window[idx:idx+limit])
	return page, true
}

func (c *FeedCache) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// BuildDTO maps a stored post to its read model, attaching admin
// decoration when the sender moderates the feed.
func BuildDTO(post models.Post, admins []models.Admin, reactions map[string]int64) PostDTO {
	dto := PostDTO{
		ID:              post.ID,
		CreateTimestamp: post.CreateTimestamp,
		Sender:          post.Sender,
		Blockchain:      post.Blockchain,
		Meta:            json.RawMessage(post.Meta),
		Content:         json.RawMessage(post.Content),
		Banned:          post.Banned,
		Reactions:       reactions,
	}
	if post.FeedID != nil {
		dto.FeedID = *post.FeedID
	}
	for _, admin := range admins {
		if strings.EqualFold(admin.Address, post.Sender) {
			dto.IsAdmin = true
			dto.AdminTitle = admin.Title
			dto.AdminRank = admin.Rank
			dto.AdminEmoji = admin.Emoji
			break
		}
	}
	return dto
}
