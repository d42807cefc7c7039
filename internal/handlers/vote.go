package handlers

import (
	"net/http"

	"unionvote/internal/middleware"
	"unionvote/internal/models"
	"unionvote/internal/storage"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	store storage.Storage
}

func NewVoteHandler(store storage.Storage) *VoteHandler {
	return &VoteHandler{store: store}
}

type castVoteRequest struct {
	Type models.VoteType `json:"type" binding:"required"`
}

// VotePost casts the caller's vote on a post. Re-voting the same way is
// a no-op; voting the other way replaces the previous vote.
func (h *VoteHandler) VotePost(c *gin.Context) {
	user := middleware.CurrentUser(c)
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	vote := models.Vote{
		UserID: user.ID,
		PostID: &postID,
		Type:   req.Type,
	}
	if err := h.store.CastVote(c.Request.Context(), &vote); err != nil {
		jsonError(c, err)
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), postID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vote":      vote,
		"upvotes":   post.Upvotes,
		"downvotes": post.Downvotes,
	})
}

func (h *VoteHandler) VoteComment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	commentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	vote := models.Vote{
		UserID:    user.ID,
		CommentID: &commentID,
		Type:      req.Type,
	}
	if err := h.store.CastVote(c.Request.Context(), &vote); err != nil {
		jsonError(c, err)
		return
	}

	comment, err := h.store.GetComment(c.Request.Context(), commentID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vote":      vote,
		"upvotes":   comment.Upvotes,
		"downvotes": comment.Downvotes,
	})
}

func (h *VoteHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	vote, err := h.store.GetVote(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	if vote.UserID != user.ID {
		forbidden(c, "only the voter can remove a vote")
		return
	}

	if err := h.store.DeleteVote(c.Request.Context(), id); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "vote removed"})
}
