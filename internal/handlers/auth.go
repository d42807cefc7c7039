package handlers

import (
	"net/http"

	"unionvote/internal/middleware"
	"unionvote/internal/models"
	"unionvote/internal/storage"
	"unionvote/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler is the local identity fallback: it hashes passwords and
// issues the same bearer tokens an external identity gateway sharing
// the secret would.
type AuthHandler struct {
	store  storage.Storage
	secret string
}

func NewAuthHandler(store storage.Storage, secret string) *AuthHandler {
	return &AuthHandler{store: store, secret: secret}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		jsonError(c, err)
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
	}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		jsonError(c, err)
		return
	}

	token, err := middleware.IssueToken(h.secret, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil || !utils.CheckPassword(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}

	token, err := middleware.IssueToken(h.secret, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
