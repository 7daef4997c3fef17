package ws

import (
	"context"

	"github.com/google/uuid"

	"tutoring-service/internal/observability"
)

func newConnID() string {
	return uuid.NewString()
}

// emit counts the event and publishes it to the event exchange.
func emit(ctx context.Context, info ConnInfo, name, reason string) {
	ev := info.event(name, reason)
	observability.IncWSEvent(ev.Kind, name)
	_ = observability.PublishEvent(ctx, ev.RoutingKey(), ev.Envelope(), observability.BuildHeaders(info.RequestID, info.TraceID))
}
