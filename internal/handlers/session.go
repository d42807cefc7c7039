package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"unionvote/internal/middleware"
	"unionvote/internal/models"
	"unionvote/internal/services"
	"unionvote/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler coordinates live voice/video sessions: room allocation
// with the external provider on first join, local participant
// bookkeeping afterwards.
type SessionHandler struct {
	store storage.Storage
	rooms *services.RoomService
}

func NewSessionHandler(store storage.Storage, rooms *services.RoomService) *SessionHandler {
	return &SessionHandler{store: store, rooms: rooms}
}

// CreateOrJoin serves POST /channels/:id/session. The first caller
// allocates a provider room and opens the session; everyone after that
// reuses it. Two concurrent firsts race on the active-session unique
// constraint and the loser joins the winner's session.
func (h *SessionHandler) CreateOrJoin(c *gin.Context) {
	user := middleware.CurrentUser(c)
	channelID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	channel, err := h.store.GetChannel(ctx, channelID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !channel.Type.IsCall() {
		badRequest(c, "text channels cannot host live sessions")
		return
	}
	member, err := h.store.IsMember(ctx, channel.UnionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !member {
		forbidden(c, "only union members can join sessions")
		return
	}

	session, err := h.store.GetActiveSession(ctx, channelID)
	if errors.Is(err, storage.ErrNotFound) {
		session, err = h.openSession(c, channel, user.ID)
	}
	if err != nil {
		jsonError(c, err)
		return
	}

	participant, err := h.store.JoinSession(ctx, session.ID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "participant": participant})
}

func (h *SessionHandler) openSession(c *gin.Context, channel *models.Channel, userID uint) (*models.ChannelSession, error) {
	ctx := c.Request.Context()

	room, err := h.rooms.CreateRoom(ctx, services.RoomName(channel.Name, channel.ID))
	if err != nil {
		return nil, fmt.Errorf("room allocation failed: %w", err)
	}

	session := &models.ChannelSession{
		ChannelID: channel.ID,
		Token:     uuid.NewString(),
		RoomName:  room.Name,
		RoomURL:   room.URL,
		CreatedBy: userID,
	}
	err = h.store.CreateSession(ctx, session)
	if errors.Is(err, storage.ErrConflict) {
		// Lost the first-join race; the winner's room is the session's.
		return h.store.GetActiveSession(ctx, channel.ID)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetActive serves the channel's current session to union members.
func (h *SessionHandler) GetActive(c *gin.Context) {
	user := middleware.CurrentUser(c)
	channelID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	channel, err := h.store.GetChannel(ctx, channelID)
	if err != nil {
		jsonError(c, err)
		return
	}
	member, err := h.store.IsMember(ctx, channel.UnionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !member {
		forbidden(c, "only union members can view sessions")
		return
	}

	session, err := h.store.GetActiveSession(ctx, channelID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// End closes the channel's active session. Only the channel creator may
// end it; every active participant is cascaded to inactive.
func (h *SessionHandler) End(c *gin.Context) {
	user := middleware.CurrentUser(c)
	channelID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	channel, err := h.store.GetChannel(ctx, channelID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if channel.CreatedBy != user.ID {
		forbidden(c, "only the channel creator can end the session")
		return
	}

	session, err := h.store.GetActiveSession(ctx, channelID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if err := h.store.EndSession(ctx, session.ID); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session ended"})
}

// Join adds the caller to an existing session by id, reactivating their
// participant row if they were in it before.
func (h *SessionHandler) Join(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sessionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		jsonError(c, err)
		return
	}
	channel, err := h.store.GetChannel(ctx, session.ChannelID)
	if err != nil {
		jsonError(c, err)
		return
	}
	member, err := h.store.IsMember(ctx, channel.UnionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !member {
		forbidden(c, "only union members can join sessions")
		return
	}

	participant, err := h.store.JoinSession(ctx, sessionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "participant": participant})
}

// Leave marks the caller's own participant row inactive. The session
// itself stays active even when the last participant leaves; only an
// explicit End closes it.
func (h *SessionHandler) Leave(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sessionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	participant, err := h.store.GetParticipantByUser(ctx, sessionID, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	if err := h.store.LeaveSession(ctx, participant.ID); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left session"})
}

func (h *SessionHandler) Participants(c *gin.Context) {
	sessionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	participants, err := h.store.ListParticipants(c.Request.Context(), sessionID)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

type participantFlagsRequest struct {
	IsMuted      *bool `json:"is_muted" binding:"required"`
	VideoEnabled *bool `json:"video_enabled" binding:"required"`
}

// UpdateFlags records the caller's client-reported mute/video state.
func (h *SessionHandler) UpdateFlags(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req participantFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	participant, err := h.store.GetParticipant(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	if participant.UserID != user.ID {
		forbidden(c, "participants can only update their own flags")
		return
	}

	if err := h.store.UpdateParticipantFlags(c.Request.Context(), id, *req.IsMuted, *req.VideoEnabled); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "flags updated"})
}
