package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tutoring-service/internal/middleware"
	"tutoring-service/internal/telemetry"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// userIDFromContext returns the caller's profile id for audit records.
func userIDFromContext(c *gin.Context) *string {
	if profile, ok := middleware.ProfileFromContext(c); ok && profile.ID != "" {
		id := profile.ID
		return &id
	}
	if id := c.GetString(middleware.UserIDKey); id != "" {
		return &id
	}
	return nil
}

// auditRecord describes action on subject by the current caller.
func auditRecord(c *gin.Context, action, subject string) telemetry.Record {
	return telemetry.Record{
		Level:     telemetry.LevelInfo,
		Action:    action,
		Subject:   subject,
		RequestID: requestIDFromContext(c),
		UserID:    userIDFromContext(c),
	}
}
