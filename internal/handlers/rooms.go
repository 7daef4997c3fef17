package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/rooms"
	"tutoring-service/internal/telemetry"
)

type RoomHandler struct {
	rooms rooms.Provisioner
	audit *telemetry.AuditEmitter
	log   zerolog.Logger
}

func NewRoomHandler(provisioner rooms.Provisioner, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{rooms: provisioner, audit: audit, log: logging.With("rooms")}
}

// CreateRoom provisions a standalone video room. Every failure, including a
// malformed body, is reported as 500 with the provider's message.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		ClassName string `json:"className"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), req.ClassName)
	if err != nil {
		h.log.Error().Err(err).Str("label", req.ClassName).Msg("room provisioning failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.audit.Emit(c.Request.Context(), auditRecord(c, "room.created", room.Name))
	c.JSON(http.StatusOK, gin.H{"url": room.URL})
}
