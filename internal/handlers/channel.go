package handlers

import (
	"net/http"

	"unionvote/internal/middleware"
	"unionvote/internal/models"
	"unionvote/internal/storage"

	"github.com/gin-gonic/gin"
)

type ChannelHandler struct {
	store storage.Storage
}

func NewChannelHandler(store storage.Storage) *ChannelHandler {
	return &ChannelHandler{store: store}
}

func (h *ChannelHandler) List(c *gin.Context) {
	unionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetUnion(c.Request.Context(), unionID); err != nil {
		jsonError(c, err)
		return
	}
	channels, err := h.store.ListChannels(c.Request.Context(), unionID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

type createChannelRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Type        models.ChannelType `json:"type" binding:"required"`
}

func (h *ChannelHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	unionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	member, err := h.store.IsMember(c.Request.Context(), unionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !member {
		forbidden(c, "only union members can create channels")
		return
	}

	channel := models.Channel{
		UnionID:     unionID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		CreatedBy:   user.ID,
	}
	if err := h.store.CreateChannel(c.Request.Context(), &channel); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, channel)
}

func (h *ChannelHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	channel, err := h.store.GetChannel(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	if channel.CreatedBy != user.ID {
		forbidden(c, "only the channel creator can delete it")
		return
	}

	if err := h.store.DeleteChannel(c.Request.Context(), id); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "channel deleted"})
}
