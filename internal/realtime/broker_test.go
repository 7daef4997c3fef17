package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu   sync.Mutex
	rows []Row
}

func (c *collector) handle(r Row) {
	c.mu.Lock()
	c.rows = append(c.rows, r)
	c.mu.Unlock()
}

func (c *collector) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rows))
	for _, r := range c.rows {
		out = append(out, r.ID())
	}
	return out
}

func TestBrokerDeliversMatchingRows(t *testing.T) {
	b := NewBroker()
	got := &collector{}

	_, err := b.Subscribe(context.Background(), Filter{Table: "messages", Column: "class_id", Value: "c1"}, got.handle)
	require.NoError(t, err)

	b.Publish("messages", Row{"id": "1", "class_id": "c1", "session_id": nil})
	b.Publish("messages", Row{"id": "2", "class_id": "c2"})
	b.Publish("messages", Row{"id": "3", "session_id": "c1"})
	b.Publish("enrollments", Row{"id": "4", "class_id": "c1"})
	b.Publish("messages", Row{"id": "5", "class_id": "c1"})

	require.Eventually(t, func() bool { return len(got.ids()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"1", "5"}, got.ids())
}

func TestBrokerRejectsIncompleteFilter(t *testing.T) {
	b := NewBroker()

	_, err := b.Subscribe(context.Background(), Filter{Table: "messages", Column: "class_id"}, func(Row) {})
	require.ErrorIs(t, err, ErrInvalidFilter)
	assert.Equal(t, 0, b.Active())
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	got := &collector{}

	sub, err := b.Subscribe(context.Background(), Filter{Table: "messages", Column: "session_id", Value: "s1"}, got.handle)
	require.NoError(t, err)
	require.Equal(t, 1, b.Active())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, b.Active())

	b.Publish("messages", Row{"id": "1", "session_id": "s1"})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, got.ids())
}

func TestBrokerContextCancelEndsSubscription(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())

	_, err := b.Subscribe(ctx, Filter{Table: "messages", Column: "class_id", Value: "c1"}, func(Row) {})
	require.NoError(t, err)
	require.Equal(t, 1, b.Active())

	cancel()
	require.Eventually(t, func() bool { return b.Active() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBrokerFansOutToEverySubscriber(t *testing.T) {
	b := NewBroker()
	first, second := &collector{}, &collector{}
	f := Filter{Table: "messages", Column: "class_id", Value: "c1"}

	_, err := b.Subscribe(context.Background(), f, first.handle)
	require.NoError(t, err)
	_, err = b.Subscribe(context.Background(), f, second.handle)
	require.NoError(t, err)

	b.Publish("messages", Row{"id": "1", "class_id": "c1"})

	require.Eventually(t, func() bool {
		return len(first.ids()) == 1 && len(second.ids()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBrokerDropsWhenQueueFull(t *testing.T) {
	b := NewBroker()
	b.queueSize = 1
	release := make(chan struct{})
	got := &collector{}

	_, err := b.Subscribe(context.Background(), Filter{Table: "messages", Column: "class_id", Value: "c1"}, func(r Row) {
		<-release
		got.handle(r)
	})
	require.NoError(t, err)

	b.Publish("messages", Row{"id": "1", "class_id": "c1"})
	// Let the handler pick up the first row and block.
	time.Sleep(20 * time.Millisecond)
	b.Publish("messages", Row{"id": "2", "class_id": "c1"})
	b.Publish("messages", Row{"id": "3", "class_id": "c1"})
	close(release)

	require.Eventually(t, func() bool { return len(got.ids()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"1", "2"}, got.ids())
}

type recordingPublisher struct {
	tables []string
	rows   []Row
}

func (p *recordingPublisher) Publish(table string, row Row) {
	p.tables = append(p.tables, table)
	p.rows = append(p.rows, row)
}

func TestPGListenerDispatch(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewPGListener("", "row_inserts", pub)

	l.Dispatch(`{"table":"messages","row":{"id":"m1","class_id":"c1","session_id":null,"sender_id":"p1"}}`)
	l.Dispatch(`not json`)
	l.Dispatch(`{"table":"messages"}`)
	l.Dispatch(`{"row":{"id":"m2"}}`)

	require.Len(t, pub.rows, 1)
	assert.Equal(t, "messages", pub.tables[0])
	assert.Equal(t, "m1", pub.rows[0].ID())
	assert.Equal(t, "c1", pub.rows[0].String("class_id"))
	assert.Equal(t, "", pub.rows[0].String("session_id"))
}

func TestRowString(t *testing.T) {
	r := Row{"id": "a", "grade": float64(11), "gone": nil}

	assert.Equal(t, "a", r.ID())
	assert.Equal(t, "11", r.String("grade"))
	assert.Equal(t, "", r.String("gone"))
	assert.Equal(t, "", r.String("missing"))
}
