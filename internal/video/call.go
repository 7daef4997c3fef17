// Package video models a participant's side of a video call: the join
// lifecycle, the participant list and local media toggles. Media transport
// belongs to the provider's SDK; this package only tracks what it reports.
package video

import (
	"errors"
	"fmt"
	"sync"
)

type State string

const (
	StateJoining State = "joining"
	StateJoined  State = "joined"
	StateLeft    State = "left"
	StateError   State = "error"
)

var (
	ErrNoRoom             = errors.New("video: room url required")
	ErrNotJoined          = errors.New("video: call not joined")
	ErrInvalidTransition  = errors.New("video: invalid state transition")
	ErrLocalParticipant   = errors.New("video: local participant cannot be replaced or removed")
	ErrMissingParticipant = errors.New("video: participant id required")
)

var transitions = map[State][]State{
	StateJoining: {StateJoined, StateError, StateLeft},
	StateJoined:  {StateLeft, StateError},
}

func canMove(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Participant is one member of the call as reported by the provider.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Local  bool   `json:"local"`
	Video  bool   `json:"video"`
	Audio  bool   `json:"audio"`
	Screen bool   `json:"screen"`
}

type Snapshot struct {
	RoomURL      string        `json:"roomUrl"`
	Title        string        `json:"title"`
	State        State         `json:"state"`
	Error        string        `json:"error,omitempty"`
	Participants []Participant `json:"participants"`
}

// Call tracks one joined room. It is safe for concurrent use.
type Call struct {
	mu           sync.Mutex
	roomURL      string
	title        string
	state        State
	err          error
	localID      string
	participants map[string]Participant
	order        []string
	observers    map[int]func(Snapshot)
	nextObs      int
}

// NewCall starts joining roomURL as local, with camera and microphone on.
func NewCall(roomURL, title string, local Participant) (*Call, error) {
	if roomURL == "" {
		return nil, ErrNoRoom
	}
	if local.ID == "" {
		return nil, ErrMissingParticipant
	}
	if title == "" {
		title = "Live Session"
	}
	local.Local = true
	local.Audio = true
	local.Video = true
	local.Screen = false

	return &Call{
		roomURL:      roomURL,
		title:        title,
		state:        StateJoining,
		localID:      local.ID,
		participants: map[string]Participant{local.ID: local},
		order:        []string{local.ID},
		observers:    make(map[int]func(Snapshot)),
	}, nil
}

func (c *Call) Observe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Call) moveLocked(to State) error {
	if !canMove(c.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, to)
	}
	c.state = to
	return nil
}

// Joined records that the provider accepted the join.
func (c *Call) Joined() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.moveLocked(StateJoined); err != nil {
		return err
	}
	c.notifyLocked()
	return nil
}

// Fail records a provider error. The call cannot be used afterwards.
func (c *Call) Fail(cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.moveLocked(StateError); err != nil {
		return err
	}
	c.err = cause
	c.notifyLocked()
	return nil
}

// Leave ends the call and drops every remote participant.
func (c *Call) Leave() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.moveLocked(StateLeft); err != nil {
		return err
	}
	local := c.participants[c.localID]
	local.Screen = false
	c.participants = map[string]Participant{c.localID: local}
	c.order = []string{c.localID}
	c.notifyLocked()
	return nil
}

// UpsertParticipant adds or updates a remote participant.
func (c *Call) UpsertParticipant(p Participant) error {
	if p.ID == "" {
		return ErrMissingParticipant
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateJoined {
		return ErrNotJoined
	}
	if p.ID == c.localID {
		return ErrLocalParticipant
	}
	p.Local = false
	if _, ok := c.participants[p.ID]; !ok {
		c.order = append(c.order, p.ID)
	}
	c.participants[p.ID] = p
	c.notifyLocked()
	return nil
}

// RemoveParticipant drops a remote participant that left. Unknown ids are ignored.
func (c *Call) RemoveParticipant(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == c.localID {
		return ErrLocalParticipant
	}
	if _, ok := c.participants[id]; !ok {
		return nil
	}
	delete(c.participants, id)
	for i, pid := range c.order {
		if pid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.notifyLocked()
	return nil
}

// ToggleAudio flips the local microphone and returns the new setting.
func (c *Call) ToggleAudio() (bool, error) {
	return c.toggleLocal(func(p *Participant) *bool { return &p.Audio })
}

// ToggleVideo flips the local camera and returns the new setting.
func (c *Call) ToggleVideo() (bool, error) {
	return c.toggleLocal(func(p *Participant) *bool { return &p.Video })
}

// ToggleScreenShare starts or stops sharing the local screen.
func (c *Call) ToggleScreenShare() (bool, error) {
	return c.toggleLocal(func(p *Participant) *bool { return &p.Screen })
}

func (c *Call) toggleLocal(field func(*Participant) *bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateJoined {
		return false, ErrNotJoined
	}
	local := c.participants[c.localID]
	flag := field(&local)
	*flag = !*flag
	c.participants[c.localID] = local
	c.notifyLocked()
	return *flag, nil
}

func (c *Call) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Call) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Participants returns the local participant first, then remotes in join order.
func (c *Call) Participants() []Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participantsLocked()
}

func (c *Call) participantsLocked() []Participant {
	out := make([]Participant, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.participants[id])
	}
	return out
}

func (c *Call) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Call) snapshotLocked() Snapshot {
	snap := Snapshot{
		RoomURL:      c.roomURL,
		Title:        c.title,
		State:        c.state,
		Participants: c.participantsLocked(),
	}
	if c.err != nil {
		snap.Error = c.err.Error()
	}
	return snap
}

func (c *Call) notifyLocked() {
	if len(c.observers) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, fn := range c.observers {
		fn(snap)
	}
}
