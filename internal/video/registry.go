package video

import (
	"errors"
	"sync"

	"tutoring-service/internal/observability"
)

var ErrNoCall = errors.New("video: no call for this class")

type callKey struct {
	classID string
	member  string
}

type entry struct {
	call   *Call
	cancel func()
}

// Registry holds the call each member has open per class. A call is
// dropped once it reaches left or error.
type Registry struct {
	mu    sync.Mutex
	calls map[callKey]entry
}

func NewRegistry() *Registry {
	return &Registry{calls: make(map[callKey]entry)}
}

// Start registers call for member in classID, replacing a previous one.
func (r *Registry) Start(classID, member string, call *Call) {
	key := callKey{classID: classID, member: member}
	observability.IncVideoCallState(string(call.State()))

	last := call.State()
	cancel := call.Observe(func(s Snapshot) {
		if s.State == last {
			return
		}
		last = s.State
		observability.IncVideoCallState(string(s.State))
		if s.State == StateLeft || s.State == StateError {
			r.remove(key, call)
		}
	})

	r.mu.Lock()
	prev, ok := r.calls[key]
	r.calls[key] = entry{call: call, cancel: cancel}
	r.mu.Unlock()

	// Outside r.mu: observers run under the call's lock and take r.mu.
	if ok {
		prev.cancel()
	}
}

// Get returns the open call of member in classID.
func (r *Registry) Get(classID, member string) (*Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.calls[callKey{classID: classID, member: member}]
	if !ok {
		return nil, ErrNoCall
	}
	return e.call, nil
}

// Apply feeds ev into the member's call and returns the resulting state.
// The snapshot is returned even when the call ends with the event.
func (r *Registry) Apply(classID, member string, ev Event) (Snapshot, error) {
	call, err := r.Get(classID, member)
	if err != nil {
		return Snapshot{}, err
	}
	if err := call.Apply(ev); err != nil {
		return call.Snapshot(), err
	}
	return call.Snapshot(), nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *Registry) remove(key callKey, call *Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.calls[key]; ok && e.call == call {
		delete(r.calls, key)
	}
}
