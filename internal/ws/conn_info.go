package ws

import (
	"time"

	"tutoring-service/internal/models"
	"tutoring-service/internal/observability"
)

type ConnInfo struct {
	ConnID      string
	UserID      string
	Key         models.ConversationKey
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) event(name, reason string) observability.WSEvent {
	return observability.WSEvent{
		Kind:       string(i.Key.Kind),
		ResourceID: i.Key.ID,
		Event:      name,
		ConnID:     i.ConnID,
		Duration:   time.Since(i.ConnectedAt),
		Reason:     reason,
		UserID:     i.UserID,
		DeviceID:   i.DeviceID,
		IP:         i.IP,
	}
}
