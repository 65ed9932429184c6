package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blockfeed/internal/cache"
	"blockfeed/internal/registry"
	"blockfeed/internal/repository"
)

// AdminHandler exposes feed moderation. Every route requires a valid token
// and feed admin rights for the target feed.
type AdminHandler struct {
	Store     repository.Repository
	Cache     *cache.FeedCache
	Registry  *registry.Registry
	Logger    *zap.Logger
	JWTSecret string
}

func (h *AdminHandler) Register(r *gin.Engine) {
	g := r.Group("/admin", AuthMiddleware(h.JWTSecret))
	g.POST("/ban-posts", h.banPosts)
	g.DELETE("/ban-posts", h.unbanPosts)
	g.POST("/approve-posts", h.approvePosts)
	g.POST("/ban-addresses", h.banAddresses)
	g.DELETE("/ban-addresses", h.unbanAddresses)
}

type adminPostsRequest struct {
	FeedID  string   `json:"feedId"`
	PostIDs []string `json:"postIds"`
}

type adminAddressesRequest struct {
	FeedID    string   `json:"feedId"`
	Addresses []string `json:"addresses"`
}

func (h *AdminHandler) banPosts(c *gin.Context) {
	h.setPostFlags(c, map[string]any{"banned": true})
}

func (h *AdminHandler) unbanPosts(c *gin.Context) {
	h.setPostFlags(c, map[string]any{"banned": false, "is_autobanned": false})
}

func (h *AdminHandler) approvePosts(c *gin.Context) {
	h.setPostFlags(c, map[string]any{"is_approved": true})
}

func (h *AdminHandler) setPostFlags(c *gin.Context, updates map[string]any) {
	var req adminPostsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.PostIDs) == 0 {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.authorize(c, req.FeedID) {
		return
	}
	for _, id := range req.PostIDs {
		if err := h.Store.UpdatePostFlags(c.Request.Context(), id, updates); err != nil {
			Error(c, http.StatusBadGateway, err.Error())
			return
		}
	}
	h.refreshCache(c, req.FeedID, req.PostIDs)
	Ok(c, nil)
}

// banAddresses adds the addresses to the ban list and retroactively hides
// everything they already posted.
func (h *AdminHandler) banAddresses(c *gin.Context) {
	var req adminAddressesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Addresses) == 0 {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.authorize(c, req.FeedID) {
		return
	}
	senders := make([]string, 0, len(req.Addresses))
	for _, address := range req.Addresses {
		address = strings.ToLower(strings.TrimSpace(address))
		if address == "" {
			continue
		}
		if err := h.Store.InsertBannedAddress(c.Request.Context(), address); err != nil {
			Error(c, http.StatusBadGateway, err.Error())
			return
		}
		senders = append(senders, address)
	}
	bannedIDs, err := h.Store.BanPostsBySenders(c.Request.Context(), senders)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if err := h.Registry.RefreshModeration(c.Request.Context()); err != nil {
		h.logger().Warn("failed to refresh moderation lists", zap.Error(err))
	}
	h.refreshCache(c, req.FeedID, bannedIDs)
	Ok(c, gin.H{"bannedPosts": bannedIDs})
}

func (h *AdminHandler) unbanAddresses(c *gin.Context) {
	var req adminAddressesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Addresses) == 0 {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.authorize(c, req.FeedID) {
		return
	}
	for _, address := range req.Addresses {
		address = strings.ToLower(strings.TrimSpace(address))
		if address == "" {
			continue
		}
		if err := h.Store.DeleteBannedAddress(c.Request.Context(), address); err != nil {
			Error(c, http.StatusBadGateway, err.Error())
			return
		}
	}
	if err := h.Registry.RefreshModeration(c.Request.Context()); err != nil {
		h.logger().Warn("failed to refresh moderation lists", zap.Error(err))
	}
	Ok(c, nil)
}

func (h *AdminHandler) authorize(c *gin.Context, feedID string) bool {
	feedID = strings.ToLower(strings.TrimSpace(feedID))
	if !feedIDPattern.MatchString(feedID) {
		Error(c, http.StatusBadRequest, "invalid feed id")
		return false
	}
	if !h.Registry.IsAdmin(feedID, callerAddress(c)) {
		Error(c, http.StatusForbidden, "not a feed admin")
		return false
	}
	return true
}

func (h *AdminHandler) refreshCache(c *gin.Context, feedID string, postIDs []string) {
	if h.Cache == nil {
		return
	}
	h.Cache.Invalidate(postIDs...)
	if err := h.Cache.Refresh(c.Request.Context(), feedID); err != nil {
		h.logger().Warn("failed to refresh feed cache", zap.String("feed_id", feedID), zap.Error(err))
	}
}

func (h *AdminHandler) logger() *zap.Logger {
	if h == nil || h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
