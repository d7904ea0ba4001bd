package handler

import (
	"log"
	"time"

	"main/dto"
	"main/model"
	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionRepo  *repository.SessionsRepo
	passwordHash string
	verify       func(password, encoded string) bool
}

func NewSessionHandler(sessionRepo *repository.SessionsRepo, passwordHash string,
	verify func(password, encoded string) bool) *SessionHandler {
	return &SessionHandler{sessionRepo: sessionRepo, passwordHash: passwordHash, verify: verify}
}

// CreateSession handles POST /auth/session: verifies the shared sync
// password and mints a signed token carrying the owner and device ids.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if !h.verify(req.Password, h.passwordHash) {
		utils.Unauthorized(c, "Invalid sync password")
		return
	}

	sessionID := utils.GenerateID()
	token, expiresAt, err := utils.GenerateSessionToken(req.OwnerID, req.DeviceID, sessionID)
	if err != nil {
		utils.InternalError(c, "Failed to create session")
		return
	}

	session := &model.DeviceSession{
		SessionID:      sessionID,
		OwnerID:        req.OwnerID,
		DeviceID:       req.DeviceID,
		CreatedAt:      time.Now().UTC(),
		ExpiresAt:      expiresAt,
		LastActivityAt: time.Now().UTC(),
		DeviceInfo:     utils.ParseUserAgent(c.Request.UserAgent()),
		IPAddress:      c.ClientIP(),
		IsActive:       true,
	}
	if err := h.sessionRepo.CreateSession(c.Request.Context(), session); err != nil {
		log.Printf("Failed to record device session: %v", err)
	}

	utils.Success(c, dto.SessionResponse{Token: token, ExpiresAt: expiresAt})
}

// GetActiveSessions lists the owner's device sessions.
func (h *SessionHandler) GetActiveSessions(c *gin.Context) {
	ownerID := c.GetString("ownerID")

	sessions, err := h.sessionRepo.GetActiveSessions(c.Request.Context(), ownerID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch sessions")
		return
	}
	utils.Success(c, sessions)
}
