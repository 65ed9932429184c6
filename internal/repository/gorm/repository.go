package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blockfeed/internal/models"
	"blockfeed/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Posts ------------------------------------------------------------------

// InsertPostIgnoreDuplicate reports whether the row was actually created.
// Replayed indexer pages hit the conflict path and are dropped silently.
func (s *Store) InsertPostIgnoreDuplicate(ctx context.Context, item *models.Post) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Post
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPosts(ctx context.Context, params repository.ListPostsParams) ([]models.Post, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Post{})
	if !params.IncludeRemoved {
		query = query.Where("banned = false")
	}
	if params.FeedID != nil && strings.TrimSpace(*params.FeedID) != "" {
		query = query.Where("feed_id = ?", strings.TrimSpace(*params.FeedID))
	}
	if params.BeforeTimestamp != nil && *params.BeforeTimestamp > 0 {
		query = query.Where("create_timestamp < ?", *params.BeforeTimestamp)
	}
	if params.Sender != nil && strings.TrimSpace(*params.Sender) != "" {
		query = query.Where("lower(sender) = ?", strings.ToLower(strings.TrimSpace(*params.Sender)))
	}
	if len(params.IDs) > 0 {
		query = query.Where("id IN ?", params.IDs)
	}
	limit := normalizeLimit(params.Limit, 50)
	var items []models.Post
	if err := query.Order("create_timestamp desc, id desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ExistingPostIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if s == nil || s.db == nil || len(ids) == 0 {
		return map[string]struct{}{}, nil
	}
	var found []string
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(found))
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *Store) UpdatePostFlags(ctx context.Context, id string, updates map[string]any) error {
	if s == nil || s.db == nil || len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ResolveOrphanPosts attaches posts that arrived before their feed was
// registered. Returns the number of rows claimed.
func (s *Store) ResolveOrphanPosts(ctx context.Context, originalFeedID string, feedID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("feed_id IS NULL").
		Where("original_feed_id = ?", originalFeedID).
		Update("feed_id", feedID)
	return res.RowsAffected, res.Error
}

func (s *Store) PostsStatistic(ctx context.Context, feedID *string, fromTimestamp int64) (repository.PostsStatistic, error) {
	var stat repository.PostsStatistic
	if s == nil || s.db == nil {
		return stat, nil
	}
	base := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Post{})
		if feedID != nil && strings.TrimSpace(*feedID) != "" {
			query = query.Where("feed_id = ?", strings.TrimSpace(*feedID))
		}
		if fromTimestamp > 0 {
			query = query.Where("create_timestamp >= ?", fromTimestamp)
		}
		return query
	}
	if err := base().Count(&stat.Total).Error; err != nil {
		return stat, err
	}
	if err := base().Where("banned = true").Count(&stat.Banned).Error; err != nil {
		return stat, err
	}
	if err := base().Where("is_predefined = true").Count(&stat.Predefined).Error; err != nil {
		return stat, err
	}
	if err := base().Distinct("sender").Count(&stat.Senders).Error; err != nil {
		return stat, err
	}
	return stat, nil
}

// RemovedPostIDs filters ids down to posts hidden from public reads.
func (s *Store) RemovedPostIDs(ctx context.Context, ids []string) ([]string, error) {
	if s == nil || s.db == nil || len(ids) == 0 {
		return nil, nil
	}
	var out []string
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id IN ?", ids).
		Where("banned = true").
		Pluck("id", &out).Error
	return out, err
}

// BanPostsBySenders bans every post of the given senders and returns the
// affected post ids so callers can drop them from caches. Senders are
// matched case-insensitively against the stored column.
func (s *Store) BanPostsBySenders(ctx context.Context, senders []string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	lowered := cleanStrings(senders)
	if len(lowered) == 0 {
		return nil, nil
	}
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("lower(sender) IN ?", lowered).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("lower(sender) IN ?", lowered).
		Updates(map[string]any{"banned": true, "is_autobanned": true}).Error
	return ids, err
}

// --- Reactions --------------------------------------------------------------

func (s *Store) UpsertReaction(ctx context.Context, item *models.PostReaction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"emoji"}),
	}).Create(item).Error
}

func (s *Store) DeleteReaction(ctx context.Context, postID string, address string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Where("address = ?", address).
		Delete(&models.PostReaction{}).Error
}

func (s *Store) ReactionAggregates(ctx context.Context, postIDs []string) (map[string]map[string]int64, error) {
	if s == nil || s.db == nil || len(postIDs) == 0 {
		return map[string]map[string]int64{}, nil
	}
	var rows []struct {
		PostID string
		Emoji  string
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.PostReaction{}).
		Select("post_id, emoji, count(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id, emoji").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]int64, len(rows))
	for _, row := range rows {
		byEmoji, ok := out[row.PostID]
		if !ok {
			byEmoji = map[string]int64{}
			out[row.PostID] = byEmoji
		}
		byEmoji[row.Emoji] = row.Count
	}
	return out, nil
}

// --- Hashtags ---------------------------------------------------------------

func (s *Store) SaveHashtags(ctx context.Context, postID string, names []string) error {
	if s == nil || s.db == nil {
		return nil
	}
	names = cleanStrings(names)
	if len(names) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags := make([]models.Hashtag, 0, len(names))
		links := make([]models.PostHashtag, 0, len(names))
		for _, name := range names {
			tags = append(tags, models.Hashtag{Name: name})
			links = append(links, models.PostHashtag{PostID: postID, HashtagName: name})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
}

func (s *Store) ListPostIDsByHashtag(ctx context.Context, name string, limit int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var out []string
	err := s.db.WithContext(ctx).
		Model(&models.PostHashtag{}).
		Where("hashtag_name = ?", strings.ToLower(strings.TrimSpace(name))).
		Limit(normalizeLimit(limit, 100)).
		Pluck("post_id", &out).Error
	return out, err
}

// --- No-content markers -----------------------------------------------------

func (s *Store) InsertNoContentPost(ctx context.Context, postID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoNothing: true,
	}).Create(&models.NoContentPost{PostID: postID}).Error
}

func (s *Store) ListNoContentPosts(ctx context.Context, limit int) ([]models.NoContentPost, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.NoContentPost
	err := s.db.WithContext(ctx).
		Model(&models.NoContentPost{}).
		Order("id asc").
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error
	return items, err
}

// RestorePostContentTx saves the re-fetched post and removes its marker in
// one transaction so a crash cannot leave the marker pointing at a
// recovered post.
func (s *Store) RestorePostContentTx(ctx context.Context, post *models.Post, markerID uint64) error {
	if s == nil || s.db == nil || post == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(post).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", markerID).Delete(&models.NoContentPost{}).Error
	})
}

// --- Feeds ------------------------------------------------------------------

func (s *Store) ListFeeds(ctx context.Context) ([]models.Feed, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Feed
	err := s.db.WithContext(ctx).
		Model(&models.Feed{}).
		Order("feed_id asc").
		Find(&items).Error
	return items, err
}

func (s *Store) GetFeedByID(ctx context.Context, feedID string) (*models.Feed, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Feed
	err := s.db.WithContext(ctx).Where("feed_id = ?", feedID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveFeed(ctx context.Context, item *models.Feed) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.FeedID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "feed_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"parent_feed_id",
			"title",
			"description",
			"logo_url",
			"is_highlighted",
			"is_hidden",
			"commissions",
		}),
	}).Create(item).Error
}

func (s *Store) UpdateFeedComposedIDs(ctx context.Context, feedID string, evmFeedID *string, tvmFeedID *string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Feed{}).
		Where("feed_id = ?", feedID).
		Updates(map[string]any{
			"evm_feed_id": evmFeedID,
			"tvm_feed_id": tvmFeedID,
		}).Error
}

// --- Moderation lists -------------------------------------------------------

func (s *Store) ListBannedAddresses(ctx context.Context) ([]models.BannedAddress, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.BannedAddress
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, err
}

func (s *Store) InsertBannedAddress(ctx context.Context, address string) error {
	if s == nil || s.db == nil {
		return nil
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}).Create(&models.BannedAddress{Address: address}).Error
}

func (s *Store) DeleteBannedAddress(ctx context.Context, address string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("address = ?", strings.TrimSpace(address)).
		Delete(&models.BannedAddress{}).Error
}

func (s *Store) ListPredefinedTexts(ctx context.Context) ([]models.PredefinedText, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PredefinedText
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, err
}

func (s *Store) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Admin
	err := s.db.WithContext(ctx).
		Model(&models.Admin{}).
		Order("create_timestamp asc").
		Find(&items).Error
	return items, err
}

// --- Users ------------------------------------------------------------------

func (s *Store) GetUserByAddress(ctx context.Context, address string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.User
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveUser(ctx context.Context, item *models.User) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Address) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"push_subscriptions"}),
	}).Create(item).Error
}

func (s *Store) ListUsersWithSubscriptions(ctx context.Context) ([]models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.User
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("push_subscriptions IS NOT NULL").
		Where("push_subscriptions::text <> 'null'").
		Where("jsonb_array_length(push_subscriptions) > 0").
		Find(&items).Error
	return items, err
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.ToLower(strings.TrimSpace(raw))
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
