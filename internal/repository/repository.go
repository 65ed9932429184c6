package repository

import (
	"context"

	"blockfeed/internal/models"
)

// Repository is the storage surface shared by the ingestion pipeline, the
// read cache and the HTTP handlers.
type Repository interface {
	// Posts
	InsertPostIgnoreDuplicate(ctx context.Context, item *models.Post) (bool, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, params ListPostsParams) ([]models.Post, error)
	ExistingPostIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	UpdatePostFlags(ctx context.Context, id string, updates map[string]any) error
	ResolveOrphanPosts(ctx context.Context, originalFeedID string, feedID string) (int64, error)
	PostsStatistic(ctx context.Context, feedID *string, fromTimestamp int64) (PostsStatistic, error)
	RemovedPostIDs(ctx context.Context, ids []string) ([]string, error)
	BanPostsBySenders(ctx context.Context, senders []string) ([]string, error)

	// Reactions
	UpsertReaction(ctx context.Context, item *models.PostReaction) error
	DeleteReaction(ctx context.Context, postID string, address string) error
	ReactionAggregates(ctx context.Context, postIDs []string) (map[string]map[string]int64, error)

	// Hashtags
	SaveHashtags(ctx context.Context, postID string, names []string) error
	ListPostIDsByHashtag(ctx context.Context, name string, limit int) ([]string, error)

	// No-content markers
	InsertNoContentPost(ctx context.Context, postID string) error
	ListNoContentPosts(ctx context.Context, limit int) ([]models.NoContentPost, error)
	RestorePostContentTx(ctx context.Context, post *models.Post, markerID uint64) error

	// Feeds
	ListFeeds(ctx context.Context) ([]models.Feed, error)
	GetFeedByID(ctx context.Context, feedID string) (*models.Feed, error)
	SaveFeed(ctx context.Context, item *models.Feed) error
	UpdateFeedComposedIDs(ctx context.Context, feedID string, evmFeedID *string, tvmFeedID *string) error

	// Moderation lists
	ListBannedAddresses(ctx context.Context) ([]models.BannedAddress, error)
	InsertBannedAddress(ctx context.Context, address string) error
	DeleteBannedAddress(ctx context.Context, address string) error
	ListPredefinedTexts(ctx context.Context) ([]models.PredefinedText, error)
	ListAdmins(ctx context.Context) ([]models.Admin, error)

	// Users
	GetUserByAddress(ctx context.Context, address string) (*models.User, error)
	SaveUser(ctx context.Context, item *models.User) error
	ListUsersWithSubscriptions(ctx context.Context) ([]models.User, error)
}

// ListPostsParams selects the public window of a feed. The same predicate
// backs both the cache refresh and the storage fallback so the two views
// cannot drift.
type ListPostsParams struct {
	FeedID          *string
	BeforeTimestamp *int64
	Sender          *string
	IDs             []string
	Limit           int
	IncludeRemoved  bool
}

type PostsStatistic struct {
	Total      int64
	Banned     int64
	Predefined int64
	Senders    int64
}
