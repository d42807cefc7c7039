package handlers

import (
	"net/http"

	"unionvote/internal/middleware"
	"unionvote/internal/models"
	"unionvote/internal/storage"

	"github.com/gin-gonic/gin"
)

type CandidateHandler struct {
	store storage.Storage
}

func NewCandidateHandler(store storage.Storage) *CandidateHandler {
	return &CandidateHandler{store: store}
}

func (h *CandidateHandler) List(c *gin.Context) {
	unionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetUnion(c.Request.Context(), unionID); err != nil {
		jsonError(c, err)
		return
	}
	candidates, err := h.store.ListCandidates(c.Request.Context(), unionID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

type createCandidateRequest struct {
	Name     string `json:"name" binding:"required"`
	Office   string `json:"office"`
	Platform string `json:"platform"`
}

func (h *CandidateHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	unionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req createCandidateRequest
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
		forbidden(c, "only union members can propose candidates")
		return
	}

	candidate := models.Candidate{
		UnionID:   unionID,
		Name:      req.Name,
		Office:    req.Office,
		Platform:  req.Platform,
		CreatedBy: user.ID,
	}
	if err := h.store.CreateCandidate(c.Request.Context(), &candidate); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, candidate)
}

func (h *CandidateHandler) ListPledges(c *gin.Context) {
	candidateID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetCandidate(c.Request.Context(), candidateID); err != nil {
		jsonError(c, err)
		return
	}
	pledges, err := h.store.ListPledges(c.Request.Context(), candidateID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, pledges)
}

type createPledgeRequest struct {
	Note string `json:"note"`
}

func (h *CandidateHandler) CreatePledge(c *gin.Context) {
	user := middleware.CurrentUser(c)
	candidateID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req createPledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, err.Error())
		return
	}

	candidate, err := h.store.GetCandidate(c.Request.Context(), candidateID)
	if err != nil {
		jsonError(c, err)
		return
	}
	member, err := h.store.IsMember(c.Request.Context(), candidate.UnionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !member {
		forbidden(c, "only union members can pledge")
		return
	}

	pledge := models.Pledge{
		CandidateID: candidateID,
		UserID:      user.ID,
		Note:        req.Note,
	}
	if err := h.store.CreatePledge(c.Request.Context(), &pledge); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pledge)
}

func (h *CandidateHandler) DeletePledge(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	pledge, err := h.store.GetPledge(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	if pledge.UserID != user.ID {
		forbidden(c, "only the pledger can withdraw a pledge")
		return
	}

	if err := h.store.DeletePledge(c.Request.Context(), id); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pledge withdrawn"})
}
