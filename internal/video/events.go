package video

import (
	"errors"
	"fmt"
)

type EventType string

const (
	EventJoined             EventType = "joined"
	EventLeft               EventType = "left"
	EventError              EventType = "error"
	EventParticipantJoined  EventType = "participant-joined"
	EventParticipantUpdated EventType = "participant-updated"
	EventParticipantLeft    EventType = "participant-left"
	EventToggleAudio        EventType = "toggle-audio"
	EventToggleVideo        EventType = "toggle-video"
	EventToggleScreen       EventType = "toggle-screen"
)

var ErrUnknownEvent = errors.New("video: unknown call event")

// Event is something the provider SDK reported to the client, or a local
// control the client used.
type Event struct {
	Type        EventType    `json:"type" binding:"required"`
	Participant *Participant `json:"participant,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Apply feeds ev into the call. Participant events require ev.Participant.
func (c *Call) Apply(ev Event) error {
	switch ev.Type {
	case EventJoined:
		return c.Joined()
	case EventLeft:
		return c.Leave()
	case EventError:
		msg := ev.Error
		if msg == "" {
			msg = "call error"
		}
		return c.Fail(errors.New(msg))
	case EventParticipantJoined, EventParticipantUpdated:
		if ev.Participant == nil {
			return ErrMissingParticipant
		}
		return c.UpsertParticipant(*ev.Participant)
	case EventParticipantLeft:
		if ev.Participant == nil || ev.Participant.ID == "" {
			return ErrMissingParticipant
		}
		return c.RemoveParticipant(ev.Participant.ID)
	case EventToggleAudio:
		_, err := c.ToggleAudio()
		return err
	case EventToggleVideo:
		_, err := c.ToggleVideo()
		return err
	case EventToggleScreen:
		_, err := c.ToggleScreenShare()
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}
