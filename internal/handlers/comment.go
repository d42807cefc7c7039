package handlers

import (
	"net/http"

	"unionvote/internal/middleware"
	"unionvote/internal/models"
	"unionvote/internal/storage"
	"unionvote/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	store storage.Storage
}

func NewCommentHandler(store storage.Storage) *CommentHandler {
	return &CommentHandler{store: store}
}

type commentResponse struct {
	models.Comment
	ContentHTML string `json:"content_html"`
}

func renderComment(cm models.Comment) commentResponse {
	return commentResponse{Comment: cm, ContentHTML: utils.RenderMarkdown(cm.Content)}
}

// List returns the full flat comment set for a post; grouping the rows
// into a nested tree by parent_id is the display layer's job.
func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	comments, err := h.store.ListComments(c.Request.Context(), postID)
	if err != nil {
		jsonError(c, err)
		return
	}

	out := make([]commentResponse, len(comments))
	for i, cm := range comments {
		out[i] = renderComment(cm)
	}
	c.JSON(http.StatusOK, out)
}

type createCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), postID)
	if err != nil {
		jsonError(c, err)
		return
	}
	member, err := h.store.IsMember(c.Request.Context(), post.UnionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !member {
		forbidden(c, "only union members can comment")
		return
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   user.ID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}
	if err := h.store.CreateComment(c.Request.Context(), &comment); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderComment(comment))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	comment, err := h.store.GetComment(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	if comment.UserID != user.ID {
		forbidden(c, "only the author can delete a comment")
		return
	}

	if err := h.store.DeleteComment(c.Request.Context(), id); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
