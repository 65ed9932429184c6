package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blockfeed/internal/cache"
	"blockfeed/internal/models"
	"blockfeed/internal/registry"
	"blockfeed/internal/repository"
)

const postsPageSize = 10
const maxStatisticFeeds = 20
const hashtagScanLimit = 500

type PostsHandler struct {
	Store        repository.Repository
	Cache        *cache.FeedCache
	Registry     *registry.Registry
	Logger       *zap.Logger
	GlobalFeedID string
	JWTSecret    string
}

func (h *PostsHandler) Register(r *gin.Engine) {
	r.GET("/posts", h.listPosts)
	r.GET("/posts/:id", h.getPost)
	r.GET("/posts-status", h.postsStatus)
	r.POST("/posts/statistic", h.postsStatistic)
	r.POST("/reaction", AuthMiddleware(h.JWTSecret), h.react)
}

// listPosts serves one page of a feed, newest first. The hot path (recent
// unfiltered pages) comes from the in-memory window; filtered queries,
// admin mode, and deep cursors hit storage.
func (h *PostsHandler) listPosts(c *gin.Context) {
	feedID := strings.ToLower(strings.TrimSpace(c.Query("feedId")))
	if feedID == "" {
		feedID = h.GlobalFeedID
	}
	before := int64Query(c, "beforeTimestamp", 0)
	hashtag := strings.ToLower(strings.TrimSpace(c.Query("hashtag")))
	sender := strings.TrimSpace(c.Query("address"))
	adminMode := c.Query("adminMode") == "true"

	if _, known := h.Registry.Feed(feedID); !known {
		if _, err := h.Registry.ProvisionFeed(c.Request.Context(), feedID); err != nil {
			Error(c, http.StatusBadRequest, "invalid feed id")
			return
		}
	}

	if adminMode && !h.Registry.IsAdmin(feedID, bearerAddress(c, h.JWTSecret)) {
		Error(c, http.StatusForbidden, "not a feed admin")
		return
	}

	if !adminMode && hashtag == "" && sender == "" {
		if page, ok := h.Cache.SliceBefore(feedID, before, postsPageSize); ok {
			Ok(c, page)
			return
		}
	}

	params := repository.ListPostsParams{
		FeedID:         &feedID,
		Limit:          postsPageSize,
		IncludeRemoved: adminMode,
	}
	if before > 0 {
		params.BeforeTimestamp = &before
	}
	if sender != "" {
		params.Sender = &sender
	}
	if hashtag != "" {
		ids, err := h.Store.ListPostIDsByHashtag(c.Request.Context(), hashtag, hashtagScanLimit)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error())
			return
		}
		if len(ids) == 0 {
			Ok(c, []cache.PostDTO{})
			return
		}
		params.IDs = ids
	}
	posts, err := h.Store.ListPosts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, h.toDTOs(c, feedID, posts))
}

func (h *PostsHandler) getPost(c *gin.Context) {
	post, err := h.Store.GetPostByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if post == nil {
		Error(c, http.StatusNotFound, "no post")
		return
	}
	feedID := ""
	if post.FeedID != nil {
		feedID = *post.FeedID
	}
	dtos := h.toDTOs(c, feedID, []models.Post{*post})
	Ok(c, dtos[0])
}

func (h *PostsHandler) postsStatus(c *gin.Context) {
	ids := c.QueryArray("id")
	if len(ids) == 0 {
		Error(c, http.StatusBadRequest, "id is required")
		return
	}
	banned, err := h.Store.RemovedPostIDs(c.Request.Context(), ids)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if banned == nil {
		banned = []string{}
	}
	Ok(c, gin.H{"bannedPosts": banned})
}

func (h *PostsHandler) postsStatistic(c *gin.Context) {
	var req struct {
		FeedIDs       []string `json:"feedIds"`
		FromTimestamp int64    `json:"fromTimestamp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.FeedIDs) == 0 {
		Error(c, http.StatusBadRequest, "feedIds is required")
		return
	}
	if len(req.FeedIDs) > maxStatisticFeeds {
		Error(c, http.StatusBadRequest, "too many feeds")
		return
	}
	type feedStatistic struct {
		FeedID        string `json:"feedId"`
		TotalMessages int64  `json:"totalMessages"`
		UniqSenders   int64  `json:"uniqSenders"`
	}
	out := make([]feedStatistic, 0, len(req.FeedIDs))
	for _, feedID := range req.FeedIDs {
		feedID := feedID
		stat, err := h.Store.PostsStatistic(c.Request.Context(), &feedID, req.FromTimestamp)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error())
			return
		}
		out = append(out, feedStatistic{
			FeedID:        feedID,
			TotalMessages: stat.Total,
			UniqSenders:   stat.Senders,
		})
	}
	Ok(c, out)
}

// react sets or clears the caller's emoji on a post. One reaction per
// address per post; sending without an emoji clears it.
func (h *PostsHandler) react(c *gin.Context) {
	var req struct {
		PostID   string `json:"postId"`
		Reaction string `json:"reaction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PostID == "" {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reaction != "" && !isEmoji(req.Reaction) {
		Error(c, http.StatusBadRequest, "emoji validation error")
		return
	}
	post, err := h.Store.GetPostByID(c.Request.Context(), req.PostID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if post == nil {
		Error(c, http.StatusNotFound, "no post")
		return
	}
	address := callerAddress(c)
	if req.Reaction == "" {
		if err := h.Store.DeleteReaction(c.Request.Context(), req.PostID, address); err != nil {
			Error(c, http.StatusBadGateway, err.Error())
			return
		}
		Ok(c, nil)
		return
	}
	err = h.Store.UpsertReaction(c.Request.Context(), &models.PostReaction{
		PostID:  req.PostID,
		Address: address,
		Emoji:   req.Reaction,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, nil)
}

func (h *PostsHandler) toDTOs(c *gin.Context, feedID string, posts []models.Post) []cache.PostDTO {
	ids := make([]string, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	reactions, err := h.Store.ReactionAggregates(c.Request.Context(), ids)
	if err != nil {
		h.logger().Warn("failed to load reaction aggregates", zap.Error(err))
		reactions = nil
	}
	var admins []models.Admin
	if h.Registry != nil && feedID != "" {
		admins = h.Registry.AdminsFor(feedID)
	}
	out := make([]cache.PostDTO, len(posts))
	for i, post := range posts {
		out[i] = cache.BuildDTO(post, admins, reactions[post.ID])
	}
	return out
}

func (h *PostsHandler) logger() *zap.Logger {
	if h == nil || h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// isEmoji accepts short non-ASCII grapheme sequences. It deliberately does
// not enumerate emoji blocks; anything ASCII or page-long is rejected.
func isEmoji(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > 8 {
		return false
	}
	for _, r := range s {
		if r >= 0x2190 {
			return true
		}
	}
	return false
}
