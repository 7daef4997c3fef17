package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/models"
	"tutoring-service/internal/repositories"
	"tutoring-service/internal/telemetry"
)

// ConversationAccess decides whether a profile may read and post in a conversation.
type ConversationAccess interface {
	Check(ctx context.Context, profile models.Profile, key models.ConversationKey) error
}

// MessageHandler serves conversation history and posting over REST. Posted
// messages reach live viewers through the database notification feed.
type MessageHandler struct {
	messages repositories.MessageRepository
	access   ConversationAccess
	audit    *telemetry.AuditEmitter
	log      zerolog.Logger
}

func NewMessageHandler(messages repositories.MessageRepository, access ConversationAccess, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		access:   access,
		audit:    audit,
		log:      logging.With("messages"),
	}
}

func (h *MessageHandler) ListSessionMessages(c *gin.Context) {
	h.list(c, models.SessionKey(c.Param("session_id")))
}

func (h *MessageHandler) ListClassMessages(c *gin.Context) {
	h.list(c, models.ClassKey(c.Param("class_id")))
}

func (h *MessageHandler) PostSessionMessage(c *gin.Context) {
	h.post(c, models.SessionKey(c.Param("session_id")))
}

func (h *MessageHandler) PostClassMessage(c *gin.Context) {
	h.post(c, models.ClassKey(c.Param("class_id")))
}

func (h *MessageHandler) authorize(c *gin.Context, key models.ConversationKey) (models.Profile, bool) {
	profile, ok := currentProfile(c)
	if !ok {
		return models.Profile{}, false
	}
	if err := h.access.Check(c.Request.Context(), profile, key); err != nil {
		respondError(c, h.log, err, "failed to verify membership")
		return models.Profile{}, false
	}
	return profile, true
}

func (h *MessageHandler) list(c *gin.Context, key models.ConversationKey) {
	if _, ok := h.authorize(c, key); !ok {
		return
	}

	msgs, err := h.messages.ListMessages(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.log, err, "failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []models.MessageWithSender{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *MessageHandler) post(c *gin.Context, key models.ConversationKey) {
	profile, ok := h.authorize(c, key)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), key, profile.ID, content)
	if err != nil {
		respondError(c, h.log, err, "failed to store message")
		return
	}

	h.audit.Emit(c.Request.Context(), auditRecord(c, "message.posted", key.String()))
	c.JSON(http.StatusCreated, msg)
}
