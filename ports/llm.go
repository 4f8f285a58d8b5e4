package ports

import (
	"context"

	"sheetchat/models"
)

// ChatClient sends one user message, with an optional dataset as context,
// to a hosted conversational model and returns its reply.
// Each call is independent: no history, no retries.
type ChatClient interface {
	Chat(ctx context.Context, message string, data models.Dataset) (*models.ChatReply, error)
}
