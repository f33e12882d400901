package core

import (
	"time"

	"github.com/google/uuid"
)

// Message roles recognized by the engine.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single conversational record. Messages are append-only: once
// persisted in a checkpoint they are never edited or deleted; a correction is
// a new message.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID and UTC timestamp.
func NewMessage(role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) Message { return NewMessage(RoleUser, content) }

// NewAssistantMessage creates an assistant-authored message.
func NewAssistantMessage(content string) Message { return NewMessage(RoleAssistant, content) }

// NewID generates a new unique identifier for messages, threads and
// interrupts.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
