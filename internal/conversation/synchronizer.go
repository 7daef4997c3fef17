// Package conversation keeps an ordered, live message list for one session or
// class conversation at a time.
//
// A Synchronizer merges a bulk read of the conversation's history with the
// realtime insert feed. Rows pushed by the feed carry only the inserted
// columns, so every pushed row is re-read to obtain the sender snapshot before
// it is appended. Sending never renders optimistically: a sent message shows up
// once the feed delivers it back.
//
// Live rows are appended at the tail in delivery order. No server sequence is
// checked, so two near-simultaneous inserts can end up in callback order rather
// than created_at order.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/models"
	"tutoring-service/internal/observability"
	"tutoring-service/internal/realtime"
)

// MessagesTable is the table the live feed is subscribed to.
const MessagesTable = "messages"

// State is the lifecycle position of a Synchronizer.
type State string

const (
	StateUnopened   State = "unopened"
	StateLoading    State = "loading"
	StateSubscribed State = "subscribed"
	StateClosed     State = "closed"
)

// Store is the slice of the data store a Synchronizer needs.
type Store interface {
	ListMessages(ctx context.Context, key models.ConversationKey) ([]models.MessageWithSender, error)
	GetMessage(ctx context.Context, messageID string) (models.MessageWithSender, error)
	CreateMessage(ctx context.Context, key models.ConversationKey, senderID string, content string) (models.Message, error)
}

// Snapshot is the observable state after a change.
type Snapshot struct {
	Key      models.ConversationKey
	State    State
	Messages []models.MessageWithSender
}

// Synchronizer owns the in-memory message list of the open conversation.
type Synchronizer struct {
	store    Store
	feed     realtime.Feed
	senderID string
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	key       models.ConversationKey
	gen       uint64
	messages  []models.MessageWithSender
	seen      map[string]struct{}
	sub       realtime.Subscription
	observers map[int]func(Snapshot)
	nextObs   int
}

// New builds a Synchronizer sending as senderID. An empty senderID makes Send a no-op.
func New(store Store, feed realtime.Feed, senderID string) *Synchronizer {
	return &Synchronizer{
		store:     store,
		feed:      feed,
		senderID:  senderID,
		log:       logging.With("conversation"),
		state:     StateUnopened,
		seen:      make(map[string]struct{}),
		observers: make(map[int]func(Snapshot)),
	}
}

// Observe registers fn to receive a snapshot after every change. fn runs with
// the synchronizer locked and must not call back into it.
func (s *Synchronizer) Observe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Open switches to key: the previous subscription is torn down, the history is
// read oldest first and replaces the list, then one insert subscription is
// established. A read error is logged and returned; the list is left as is and
// the subscription is still established.
func (s *Synchronizer) Open(ctx context.Context, key models.ConversationKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.teardownLocked()
	s.gen++
	gen := s.gen
	s.key = key
	s.state = StateLoading
	s.messages = nil
	s.seen = make(map[string]struct{})
	s.notifyLocked()
	s.mu.Unlock()

	history, readErr := s.store.ListMessages(ctx, key)

	s.mu.Lock()
	if s.gen != gen {
		// Another Open or a Close happened while the read was in flight.
		s.mu.Unlock()
		return nil
	}
	if readErr != nil {
		s.log.Error().Err(readErr).Str("conversation", key.String()).Msg("error fetching messages")
	} else {
		s.replaceLocked(history)
	}
	s.mu.Unlock()

	filter := realtime.Filter{Table: MessagesTable, Column: key.Column(), Value: key.ID}
	sub, err := s.feed.Subscribe(context.Background(), filter, func(row realtime.Row) {
		s.onLiveInsert(gen, row)
	})
	if err != nil {
		s.log.Error().Err(err).Str("conversation", key.String()).Msg("error subscribing to messages")
		return fmt.Errorf("subscribe %s: %w", key, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	s.sub = sub
	s.state = StateSubscribed
	s.notifyLocked()
	s.mu.Unlock()

	if readErr != nil {
		return fmt.Errorf("list messages %s: %w", key, readErr)
	}
	return nil
}

func (s *Synchronizer) replaceLocked(history []models.MessageWithSender) {
	s.messages = make([]models.MessageWithSender, 0, len(history))
	for _, m := range history {
		if _, dup := s.seen[m.ID]; dup {
			continue
		}
		s.seen[m.ID] = struct{}{}
		s.messages = append(s.messages, m)
	}
}

// OnLiveInsert handles a row pushed by the feed for the open conversation.
func (s *Synchronizer) OnLiveInsert(row realtime.Row) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.onLiveInsert(gen, row)
}

func (s *Synchronizer) onLiveInsert(gen uint64, row realtime.Row) {
	id := row.ID()
	if id == "" {
		observability.IncFeedDropped(MessagesTable, "missing_id")
		return
	}

	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		observability.IncFeedDropped(MessagesTable, "stale")
		return
	}

	msg, err := s.store.GetMessage(context.Background(), id)
	if err != nil {
		s.log.Debug().Err(err).Str("message_id", id).Msg("dropping live message, detail read failed")
		observability.IncFeedDropped(MessagesTable, "detail_read")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state == StateClosed || msg.Key() != s.key {
		observability.IncFeedDropped(MessagesTable, "stale")
		return
	}
	if _, dup := s.seen[msg.ID]; dup {
		observability.IncFeedDropped(MessagesTable, "duplicate")
		return
	}
	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
	s.notifyLocked()
}

// Send inserts text into the open conversation. Blank text, no open
// conversation or no sender makes it a no-op. The message appears only once the
// feed delivers it. Insert errors are logged and returned so the caller can keep
// the draft.
func (s *Synchronizer) Send(ctx context.Context, text string) error {
	content := strings.TrimSpace(text)
	if content == "" || s.senderID == "" {
		return nil
	}

	s.mu.Lock()
	key := s.key
	open := s.state == StateLoading || s.state == StateSubscribed
	s.mu.Unlock()
	if !open {
		return nil
	}

	if _, err := s.store.CreateMessage(ctx, key, s.senderID, content); err != nil {
		s.log.Error().Err(err).Str("conversation", key.String()).Msg("error sending message")
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Close tears down the live subscription. In-flight reads are discarded.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.teardownLocked()
	s.gen++
	s.state = StateClosed
	s.notifyLocked()
}

func (s *Synchronizer) teardownLocked() {
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
}

// Messages returns a copy of the current list.
func (s *Synchronizer) Messages() []models.MessageWithSender {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.MessageWithSender(nil), s.messages...)
}

// State returns the lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Key returns the open conversation key.
func (s *Synchronizer) Key() models.ConversationKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

func (s *Synchronizer) notifyLocked() {
	if len(s.observers) == 0 {
		return
	}
	snap := Snapshot{
		Key:      s.key,
		State:    s.state,
		Messages: append([]models.MessageWithSender(nil), s.messages...),
	}
	for _, fn := range s.observers {
		fn(snap)
	}
}
