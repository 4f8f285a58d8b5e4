package models

import (
	"time"

	"sheetchat/domain/core"
)

// Sender identifies who authored a chat message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one chat turn. Messages are append-only and never edited.
type Message struct {
	ID        core.MessageID `json:"id"`
	Content   string         `json:"content"`
	Sender    Sender         `json:"sender"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewMessage stamps a message with a fresh ID and the current time
func NewMessage(sender Sender, content string) Message {
	return Message{
		ID:        core.NewMessageID(),
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now().UTC(),
	}
}

// IsUser reports whether the message was typed by the user
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}
