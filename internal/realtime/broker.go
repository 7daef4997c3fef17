package realtime

import (
	"context"
	"sync"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/observability"
)

const defaultQueueSize = 64

// Broker fans inserted rows out to subscribers keyed by table and column value.
type Broker struct {
	rooms     map[string]map[*subscription]bool
	queueSize int
	mu        sync.RWMutex
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		rooms:     make(map[string]map[*subscription]bool),
		queueSize: defaultQueueSize,
	}
}

type subscription struct {
	broker  *Broker
	key     string
	handler Handler
	queue   chan Row
	done    chan struct{}
	once    sync.Once
}

// Subscribe registers h for rows matching f. The subscription ends on
// Unsubscribe or when ctx is cancelled.
func (b *Broker) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	sub := &subscription{
		broker:  b,
		key:     f.key(),
		handler: h,
		queue:   make(chan Row, b.queueSize),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if _, ok := b.rooms[sub.key]; !ok {
		b.rooms[sub.key] = make(map[*subscription]bool)
	}
	b.rooms[sub.key][sub] = true
	b.mu.Unlock()
	observability.IncFeedSubscriptions(f.Table)

	go sub.run(ctx, f.Table)
	return sub, nil
}

func (s *subscription) run(ctx context.Context, table string) {
	defer observability.DecFeedSubscriptions(table)
	for {
		select {
		case <-ctx.Done():
			s.Unsubscribe()
			return
		case <-s.done:
			return
		case row := <-s.queue:
			s.handler(row)
		}
	}
}

// Unsubscribe removes the subscription; queued rows are discarded.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.done)
	})
}

func (b *Broker) remove(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.rooms[sub.key]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.rooms, sub.key)
		}
	}
}

// Publish delivers an inserted row to every subscription whose filter matches
// one of the row's columns.
func (b *Broker) Publish(table string, row Row) {
	b.mu.RLock()
	var targets []*subscription
	for column := range row {
		value := row.String(column)
		if value == "" {
			continue
		}
		for sub := range b.rooms[filterKey(table, column, value)] {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.queue <- row:
		case <-sub.done:
		default:
			logging.Warn().Str("table", table).Str("row_id", row.ID()).Msg("realtime subscriber queue full, dropping row")
			observability.IncFeedDropped(table, "queue_full")
		}
	}
}

// Active returns the number of live subscriptions.
func (b *Broker) Active() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.rooms {
		n += len(subs)
	}
	return n
}
