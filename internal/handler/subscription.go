package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"blockfeed/internal/models"
	"blockfeed/internal/repository"
)

type SubscriptionHandler struct {
	Store     repository.Repository
	JWTSecret string
}

func (h *SubscriptionHandler) Register(r *gin.Engine) {
	g := r.Group("/subscription", AuthMiddleware(h.JWTSecret))
	g.POST("", h.save)
	g.DELETE("", h.remove)
}

// save replaces the caller's push subscriptions with the submitted set.
func (h *SubscriptionHandler) save(c *gin.Context) {
	var subs []json.RawMessage
	if err := c.ShouldBindJSON(&subs); err != nil || len(subs) == 0 {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	payload, err := json.Marshal(subs)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	address := callerAddress(c)
	user, err := h.Store.GetUserByAddress(c.Request.Context(), address)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if user == nil {
		user = &models.User{Address: address}
	}
	user.PushSubscriptions = datatypes.JSON(payload)
	if err := h.Store.SaveUser(c.Request.Context(), user); err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, nil)
}

func (h *SubscriptionHandler) remove(c *gin.Context) {
	address := callerAddress(c)
	user, err := h.Store.GetUserByAddress(c.Request.Context(), address)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if user == nil {
		Ok(c, nil)
		return
	}
	user.PushSubscriptions = nil
	if err := h.Store.SaveUser(c.Request.Context(), user); err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, nil)
}
