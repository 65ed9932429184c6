package handler

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"blockfeed/internal/models"
	"blockfeed/internal/registry"
	"blockfeed/internal/repository"
)

var feedIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

type FeedsHandler struct {
	Store     repository.Repository
	Registry  *registry.Registry
	JWTSecret string
}

func (h *FeedsHandler) Register(r *gin.Engine) {
	r.GET("/feeds", h.listFeeds)
	r.GET("/feeds/:feedId/commissions", h.feedCommissions)
	r.PUT("/feeds/:feedId", AuthMiddleware(h.JWTSecret), h.updateFeed)
}

type feedDTO struct {
	FeedID        string            `json:"feedId"`
	ParentFeedID  *string           `json:"parentFeedId"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	LogoURL       string            `json:"logoUrl"`
	IsHighlighted bool              `json:"isHighlighted"`
	Commissions   map[string]string `json:"commissions,omitempty"`
}

// listFeeds returns top-level feeds, or the children of parentFeedId when
// given. Hidden feeds are filtered out.
func (h *FeedsHandler) listFeeds(c *gin.Context) {
	parent := strings.ToLower(strings.TrimSpace(c.Query("parentFeedId")))
	if parent != "" && !feedIDPattern.MatchString(parent) {
		Error(c, http.StatusBadRequest, "invalid parent feed id")
		return
	}
	out := make([]feedDTO, 0)
	for _, feed := range h.Registry.Feeds() {
		if feed.IsHidden {
			continue
		}
		if parent == "" {
			if feed.ParentFeedID != nil {
				continue
			}
		} else if feed.ParentFeedID == nil || *feed.ParentFeedID != parent {
			continue
		}
		out = append(out, toFeedDTO(feed))
	}
	Ok(c, out)
}

func (h *FeedsHandler) feedCommissions(c *gin.Context) {
	feedID := strings.ToLower(strings.TrimSpace(c.Param("feedId")))
	if !feedIDPattern.MatchString(feedID) {
		Error(c, http.StatusBadRequest, "invalid feed id")
		return
	}
	commissions, err := h.Registry.FeedCommissions(feedID)
	if err != nil {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	Ok(c, commissions)
}

// updateFeed lets a feed admin change presentation fields. Identity and
// commission settings stay immutable through this endpoint.
func (h *FeedsHandler) updateFeed(c *gin.Context) {
	feedID := strings.ToLower(strings.TrimSpace(c.Param("feedId")))
	if !feedIDPattern.MatchString(feedID) {
		Error(c, http.StatusBadRequest, "invalid feed id")
		return
	}
	if !h.Registry.IsAdmin(feedID, callerAddress(c)) {
		Error(c, http.StatusForbidden, "not a feed admin")
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		LogoURL     *string `json:"logoUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	feed, err := h.Store.GetFeedByID(c.Request.Context(), feedID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if feed == nil {
		Error(c, http.StatusNotFound, "no feed")
		return
	}
	if req.Title != nil {
		feed.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		feed.Description = strings.TrimSpace(*req.Description)
	}
	if req.LogoURL != nil {
		trimmed := strings.TrimSpace(*req.LogoURL)
		feed.LogoURL = &trimmed
	}
	if err := h.Store.SaveFeed(c.Request.Context(), feed); err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if err := h.Registry.RefreshFeeds(c.Request.Context()); err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, toFeedDTO(*feed))
}

func toFeedDTO(feed models.Feed) feedDTO {
	dto := feedDTO{
		FeedID:        feed.FeedID,
		ParentFeedID:  feed.ParentFeedID,
		Title:         feed.Title,
		Description:   feed.Description,
		IsHighlighted: feed.IsHighlighted,
	}
	if feed.LogoURL != nil {
		dto.LogoURL = *feed.LogoURL
	}
	if len(feed.Commissions) > 0 {
		dto.Commissions = make(map[string]string, len(feed.Commissions))
		for chain, value := range feed.Commissions {
			if s, ok := value.(string); ok {
				dto.Commissions[chain] = s
			}
		}
	}
	return dto
}
