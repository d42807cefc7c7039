package handlers

import (
	"fmt"
	"net/http"
	"time"

	"unionvote/internal/middleware"
	"unionvote/internal/models"
	"unionvote/internal/storage"
	"unionvote/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	store storage.Storage
}

func NewPostHandler(store storage.Storage) *PostHandler {
	return &PostHandler{store: store}
}

type postResponse struct {
	models.Post
	ContentHTML string `json:"content_html"`
}

func renderPost(p models.Post) postResponse {
	return postResponse{Post: p, ContentHTML: utils.RenderMarkdown(p.Content)}
}

func renderPosts(posts []models.Post) []postResponse {
	out := make([]postResponse, len(posts))
	for i, p := range posts {
		out[i] = renderPost(p)
	}
	return out
}

// ListByChannel serves a channel's posts: home posts plus cross-tagged
// ones. Hot pages sit in the local cache for a minute.
func (h *PostHandler) ListByChannel(c *gin.Context) {
	channelID, ok := paramID(c, "id")
	if !ok {
		return
	}
	channel, err := h.store.GetChannel(c.Request.Context(), channelID)
	if err != nil {
		jsonError(c, err)
		return
	}

	q := listQuery(c)
	q.UnionID = channel.UnionID
	q.ChannelID = channelID

	cacheKey := fmt.Sprintf("posts:channel:%d:%s:%s:%d", channelID, q.Sort, c.DefaultQuery("range", "all"), q.Offset)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if data, ok := cached.([]postResponse); ok {
			c.JSON(http.StatusOK, data)
			return
		}
	}

	posts, err := h.store.ListPosts(c.Request.Context(), q)
	if err != nil {
		jsonError(c, err)
		return
	}

	data := renderPosts(posts)
	utils.GetCache().Set(cacheKey, data, 1*time.Minute)
	c.JSON(http.StatusOK, data)
}

// ListByUnion serves the "all" pseudo-channel: every post in the union
// regardless of home channel.
func (h *PostHandler) ListByUnion(c *gin.Context) {
	unionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetUnion(c.Request.Context(), unionID); err != nil {
		jsonError(c, err)
		return
	}

	q := listQuery(c)
	q.UnionID = unionID

	cacheKey := fmt.Sprintf("posts:union:%d:%s:%s:%d", unionID, q.Sort, c.DefaultQuery("range", "all"), q.Offset)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if data, ok := cached.([]postResponse); ok {
			c.JSON(http.StatusOK, data)
			return
		}
	}

	posts, err := h.store.ListPosts(c.Request.Context(), q)
	if err != nil {
		jsonError(c, err)
		return
	}

	data := renderPosts(posts)
	utils.GetCache().Set(cacheKey, data, 1*time.Minute)
	c.JSON(http.StatusOK, data)
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	channelID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	channel, err := h.store.GetChannel(c.Request.Context(), channelID)
	if err != nil {
		jsonError(c, err)
		return
	}
	member, err := h.store.IsMember(c.Request.Context(), channel.UnionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !member {
		forbidden(c, "only union members can post")
		return
	}

	post := models.Post{
		ChannelID: channelID,
		UserID:    user.ID,
		Title:     req.Title,
		Content:   req.Content,
	}
	if err := h.store.CreatePost(c.Request.Context(), &post); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderPost(post))
}

func (h *PostHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.store.GetPost(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	channels, err := h.store.ListPostChannels(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post":     renderPost(*post),
		"channels": channels,
	})
}

type updatePostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

func (h *PostHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	if post.UserID != user.ID {
		forbidden(c, "only the author can edit a post")
		return
	}

	updated, err := h.store.UpdatePost(c.Request.Context(), id, req.Title, req.Content)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderPost(*updated))
}

func (h *PostHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	if post.UserID != user.ID {
		forbidden(c, "only the author can delete a post")
		return
	}

	if err := h.store.DeletePost(c.Request.Context(), id); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// Tag cross-posts a post into another channel of the same union.
func (h *PostHandler) Tag(c *gin.Context) {
	user := middleware.CurrentUser(c)
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	channelID, ok := paramID(c, "channelId")
	if !ok {
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), postID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if post.UserID != user.ID {
		forbidden(c, "only the author can tag a post")
		return
	}

	if err := h.store.TagChannel(c.Request.Context(), postID, channelID); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "post tagged"})
}

func (h *PostHandler) Untag(c *gin.Context) {
	user := middleware.CurrentUser(c)
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	channelID, ok := paramID(c, "channelId")
	if !ok {
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), postID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if post.UserID != user.ID {
		forbidden(c, "only the author can untag a post")
		return
	}

	if err := h.store.UntagChannel(c.Request.Context(), postID, channelID); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post untagged"})
}
