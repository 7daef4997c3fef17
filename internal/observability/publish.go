package observability

import (
	"context"
	"sync/atomic"
)

// Publisher sends websocket lifecycle events to the event exchange.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, message any, headers map[string]string) error
}

type publisherHolder struct{ p Publisher }

var defaultPublisher atomic.Pointer[publisherHolder]

// SetPublisher installs the event publisher. Until it is called events are
// only counted.
func SetPublisher(publisher Publisher) {
	if publisher == nil {
		defaultPublisher.Store(nil)
		return
	}
	defaultPublisher.Store(&publisherHolder{p: publisher})
}

func PublishEvent(ctx context.Context, routingKey string, message any, headers map[string]string) error {
	holder := defaultPublisher.Load()
	if holder == nil {
		return nil
	}

	err := holder.p.PublishJSON(ctx, routingKey, message, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
