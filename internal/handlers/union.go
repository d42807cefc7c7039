package handlers

import (
	"net/http"

	"unionvote/internal/middleware"
	"unionvote/internal/models"
	"unionvote/internal/storage"

	"github.com/gin-gonic/gin"
)

type UnionHandler struct {
	store storage.Storage
}

func NewUnionHandler(store storage.Storage) *UnionHandler {
	return &UnionHandler{store: store}
}

func (h *UnionHandler) List(c *gin.Context) {
	unions, err := h.store.ListUnions(c.Request.Context())
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, unions)
}

type createUnionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *UnionHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createUnionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	union := models.Union{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   user.ID,
	}
	if err := h.store.CreateUnion(c.Request.Context(), &union); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, union)
}

func (h *UnionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	union, err := h.store.GetUnion(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, union)
}

func (h *UnionHandler) Join(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.JoinUnion(c.Request.Context(), id, user.ID); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "joined"})
}

func (h *UnionHandler) Leave(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.LeaveUnion(c.Request.Context(), id, user.ID); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left"})
}

func (h *UnionHandler) Members(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	members, err := h.store.ListMembers(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
