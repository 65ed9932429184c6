package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"blockfeed/internal/feedid"
	"blockfeed/internal/models"
	"blockfeed/internal/moderation"
	"blockfeed/internal/repository"
)

// tvmMailerVersion selects the TVM mailer generation used for composed ids.
const tvmMailerVersion = 1

const defaultFeedTitle = "New unnamed feed"

// Registry mirrors feeds and moderation lists in memory so the ingestion
// hot path never queries storage for them. Snapshots are rebuilt on a timer
// and swapped wholesale; readers always see a complete generation.
type Registry struct {
	Store       repository.Repository
	Logger      *zap.Logger
	LiteralBans []string

	mu              sync.RWMutex
	feeds           map[string]models.Feed
	byEvmID         map[string]string
	byTvmID         map[string]string
	bannedAddresses map[string]struct{}
	predefinedTexts map[string]struct{}
	adminsByFeed    map[string][]models.Admin
}

func New(store repository.Repository, logger *zap.Logger, literalBans []string) *Registry {
	return &Registry{
		Store:           store,
		Logger:          logger,
		LiteralBans:     literalBans,
		feeds:           map[string]models.Feed{},
		byEvmID:         map[string]string{},
		byTvmID:         map[string]string{},
		bannedAddresses: map[string]struct{}{},
		predefinedTexts: map[string]struct{}{},
		adminsByFeed:    map[string][]models.Admin{},
	}
}

// RefreshFeeds reloads the feed table. Feeds that were stored without
// composed ids get them derived and written back before entering the maps.
func (r *Registry) RefreshFeeds(ctx context.Context) error {
	if r == nil || r.Store == nil {
		return nil
	}
	items, err := r.Store.ListFeeds(ctx)
	if err != nil {
		return err
	}
	feeds := make(map[string]models.Feed, len(items))
	byEvm := make(map[string]string, len(items))
	byTvm := make(map[string]string, len(items))
	for _, feed := range items {
		if feed.EvmFeedID == nil || feed.TvmFeedID == nil {
			if err := r.backfillComposedIDs(ctx, &feed); err != nil {
				r.logger().Warn("failed to backfill composed feed ids",
					zap.String("feed_id", feed.FeedID), zap.Error(err))
				continue
			}
		}
		feeds[feed.FeedID] = feed
		byEvm[*feed.EvmFeedID] = feed.FeedID
		byTvm[*feed.TvmFeedID] = feed.FeedID
	}
	r.mu.Lock()
	r.feeds = feeds
	r.byEvmID = byEvm
	r.byTvmID = byTvm
	r.mu.Unlock()
	return nil
}

// RefreshModeration reloads banned addresses, predefined texts and admins.
func (r *Registry) RefreshModeration(ctx context.Context) error {
	if r == nil || r.Store == nil {
		return nil
	}
	banned, err := r.Store.ListBannedAddresses(ctx)
	if err != nil {
		return err
	}
	predefined, err := r.Store.ListPredefinedTexts(ctx)
	if err != nil {
		return err
	}
	admins, err := r.Store.ListAdmins(ctx)
	if err != nil {
		return err
	}
	bannedSet := make(map[string]struct{}, len(banned))
	for _, item := range banned {
		bannedSet[strings.ToLower(item.Address)] = struct{}{}
	}
	predefinedSet := make(map[string]struct{}, len(predefined))
	for _, item := range predefined {
		predefinedSet[item.Text] = struct{}{}
	}
	adminsByFeed := make(map[string][]models.Admin, len(admins))
	for _, item := range admins {
		adminsByFeed[item.FeedID] = append(adminsByFeed[item.FeedID], item)
	}
	r.mu.Lock()
	r.bannedAddresses = bannedSet
	r.predefinedTexts = predefinedSet
	r.adminsByFeed = adminsByFeed
	r.mu.Unlock()
	return nil
}

// ResolveFeed matches a chain-native composed feed id back to the feed it
// belongs to. TVM chains address feeds through the TVM composed id, every
// other chain through the EVM one.
func (r *Registry) ResolveFeed(blockchain string, composedFeedID string) (models.Feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var feedID string
	var ok bool
	if isTvmChain(blockchain) {
		feedID, ok = r.byTvmID[composedFeedID]
	} else {
		feedID, ok = r.byEvmID[composedFeedID]
	}
	if !ok {
		return models.Feed{}, false
	}
	feed, ok := r.feeds[feedID]
	return feed, ok
}

func (r *Registry) Feed(feedID string) (models.Feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.feeds[feedID]
	return feed, ok
}

func (r *Registry) Feeds() []models.Feed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Feed, 0, len(r.feeds))
	for _, feed := range r.feeds {
		out = append(out, feed)
	}
	return out
}

// ProvisionFeed creates a hidden placeholder feed for an id that readers
// requested before anyone registered it.
func (r *Registry) ProvisionFeed(ctx context.Context, rawFeedID string) (models.Feed, error) {
	feedID := strings.ToLower(strings.TrimSpace(rawFeedID))
	if feed, ok := r.Feed(feedID); ok {
		return feed, nil
	}
	evmID, err := feedid.ComposeEvmFeedID(feedID)
	if err != nil {
		return models.Feed{}, err
	}
	tvmID, err := feedid.ComposeTvmFeedID(feedID, tvmMailerVersion)
	if err != nil {
		return models.Feed{}, err
	}
	feed := models.Feed{
		FeedID:      feedID,
		Title:       defaultFeedTitle,
		Description: defaultFeedTitle,
		IsHidden:    true,
		EvmFeedID:   &evmID,
		TvmFeedID:   &tvmID,
	}
	if err := r.Store.SaveFeed(ctx, &feed); err != nil {
		return models.Feed{}, err
	}
	r.mu.Lock()
	r.feeds[feed.FeedID] = feed
	r.byEvmID[evmID] = feed.FeedID
	r.byTvmID[tvmID] = feed.FeedID
	r.mu.Unlock()
	r.logger().Info("provisioned placeholder feed", zap.String("feed_id", feedID))
	return feed, nil
}

// FeedCommissions walks the feed's ancestor chain collecting each level's
// schedule. A missing ancestor or a cycle is an error so commission
// validation fails closed.
func (r *Registry) FeedCommissions(feedID string) ([]map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var schedules []map[string]string
	visited := map[string]struct{}{}
	current, ok := r.feeds[feedID]
	if !ok {
		return nil, fmt.Errorf("feed %s is not registered", feedID)
	}
	for {
		if _, seen := visited[current.FeedID]; seen {
			return nil, fmt.Errorf("feed %s has a cycle in its parent chain", feedID)
		}
		visited[current.FeedID] = struct{}{}
		if schedule := commissionSchedule(current); len(schedule) > 0 {
			schedules = append(schedules, schedule)
		}
		if current.ParentFeedID == nil {
			return schedules, nil
		}
		parent, ok := r.feeds[*current.ParentFeedID]
		if !ok {
			return nil, fmt.Errorf("feed %s has no parent feed %s", current.FeedID, *current.ParentFeedID)
		}
		current = parent
	}
}

// Ruleset snapshots the moderation inputs for the classifier. The returned
// maps are the live generation; they are replaced, never mutated.
func (r *Registry) Ruleset() moderation.Ruleset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	literal := make(map[string]struct{}, len(r.LiteralBans))
	for _, text := range r.LiteralBans {
		literal[strings.ToLower(text)] = struct{}{}
	}
	return moderation.Ruleset{
		LiteralBans:     literal,
		PredefinedTexts: r.predefinedTexts,
		BannedAddresses: r.bannedAddresses,
	}
}

func (r *Registry) AdminsFor(feedID string) []models.Admin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adminsByFeed[feedID]
}

// IsAdmin matches addresses case-insensitively; EVM senders arrive in
// checksummed or lowercase form depending on the wallet.
func (r *Registry) IsAdmin(feedID string, address string) bool {
	if address == "" {
		return false
	}
	for _, admin := range r.AdminsFor(feedID) {
		if strings.EqualFold(admin.Address, address) {
			return true
		}
	}
	return false
}

func (r *Registry) backfillComposedIDs(ctx context.Context, feed *models.Feed) error {
	evmID, err := feedid.ComposeEvmFeedID(feed.FeedID)
	if err != nil {
		return err
	}
	tvmID, err := feedid.ComposeTvmFeedID(feed.FeedID, tvmMailerVersion)
	if err != nil {
		return err
	}
	if err := r.Store.UpdateFeedComposedIDs(ctx, feed.FeedID, &evmID, &tvmID); err != nil {
		return err
	}
	feed.EvmFeedID = &evmID
	feed.TvmFeedID = &tvmID
	return nil
}

func (r *Registry) logger() *zap.Logger {
	if r == nil || r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func commissionSchedule(feed models.Feed) map[string]string {
	if len(feed.Commissions) == 0 {
		return nil
	}
	out := make(map[string]string, len(feed.Commissions))
	for chain, raw := range feed.Commissions {
		if val, ok := raw.(string); ok && strings.TrimSpace(val) != "" {
			out[chain] = val
		}
	}
	return out
}

func isTvmChain(blockchain string) bool {
	return blockchain == "everscale" || blockchain == "venom-testnet"
}
