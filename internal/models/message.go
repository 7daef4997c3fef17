package models

import (
	"errors"
	"time"
)

// ErrInvalidKey is returned for a conversation key that does not name exactly one conversation.
var ErrInvalidKey = errors.New("invalid conversation key")

// ConversationKind selects which foreign key a conversation is identified by.
type ConversationKind string

const (
	KindSession ConversationKind = "session"
	KindClass   ConversationKind = "class"
)

// ConversationKey identifies a session-scoped or class-scoped message thread.
type ConversationKey struct {
	Kind ConversationKind `json:"kind"`
	ID   string           `json:"id"`
}

func SessionKey(id string) ConversationKey { return ConversationKey{Kind: KindSession, ID: id} }
func ClassKey(id string) ConversationKey   { return ConversationKey{Kind: KindClass, ID: id} }

// Validate checks that the key resolves to exactly one non-empty identifier.
func (k ConversationKey) Validate() error {
	if k.ID == "" {
		return ErrInvalidKey
	}
	if k.Kind != KindSession && k.Kind != KindClass {
		return ErrInvalidKey
	}
	return nil
}

// Column is the messages column holding this key.
func (k ConversationKey) Column() string {
	if k.Kind == KindClass {
		return "class_id"
	}
	return "session_id"
}

func (k ConversationKey) String() string { return string(k.Kind) + ":" + k.ID }

// Message is an immutable chat message in exactly one conversation.
type Message struct {
	ID        string    `db:"id" json:"id"`
	SessionID *string   `db:"session_id" json:"session_id,omitempty"`
	ClassID   *string   `db:"class_id" json:"class_id,omitempty"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Key returns the conversation the message belongs to.
func (m Message) Key() ConversationKey {
	if m.ClassID != nil {
		return ClassKey(*m.ClassID)
	}
	if m.SessionID != nil {
		return SessionKey(*m.SessionID)
	}
	return ConversationKey{}
}

// Sender is the profile snapshot joined onto a message at read time.
type Sender struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// MessageWithSender is a message row together with its joined sender snapshot.
// Sender is nil when the sender profile no longer exists.
type MessageWithSender struct {
	Message
	Sender *Sender `json:"sender,omitempty"`
}

// ConversationEvent is pushed to WebSocket clients viewing a conversation.
type ConversationEvent struct {
	Type     string              `json:"type"`
	Key      ConversationKey     `json:"key"`
	State    string              `json:"state,omitempty"`
	Messages []MessageWithSender `json:"messages,omitempty"`
	Error    string              `json:"error,omitempty"`
}
