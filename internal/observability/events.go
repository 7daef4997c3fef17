package observability

import "time"

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// WSEvent describes one websocket lifecycle event of a conversation view.
type WSEvent struct {
	Kind       string
	ResourceID string
	Event      string
	ConnID     string
	Duration   time.Duration
	Reason     string
	UserID     string
	DeviceID   string
	IP         string
}

// RoutingKey is ws_events.<kind>s, e.g. ws_events.classes.
func (e WSEvent) RoutingKey() string {
	switch e.Kind {
	case "class":
		return "ws_events.classes"
	case "session":
		return "ws_events.sessions"
	default:
		return "ws_events." + e.Kind
	}
}

func (e WSEvent) Envelope() EventEnvelope {
	return EventEnvelope{
		EventType: "ws_events",
		EventName: e.Event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        e.Kind,
				"resource_id": e.ResourceID,
				"event":       e.Event,
				"conn_id":     e.ConnID,
				"duration_ms": e.Duration.Milliseconds(),
				"reason":      e.Reason,
			},
			"identity": map[string]interface{}{
				"user_id":   e.UserID,
				"device_id": e.DeviceID,
				"ip":        e.IP,
			},
		},
	}
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
