package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	SessionID ID
	MessageID ID
)

func (id SessionID) String() string { return ID(id).String() }
func (id MessageID) String() string { return ID(id).String() }

// NewSessionID mints a browser session identifier
func NewSessionID() SessionID { return SessionID(NewID()) }

// NewMessageID mints a chat message identifier
func NewMessageID() MessageID { return MessageID(NewID()) }

// ParseSessionID parses a cookie value into a SessionID. Only well-formed
// UUIDs are accepted so clients cannot pick arbitrary registry keys.
func ParseSessionID(s string) (SessionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("session ID is not a UUID: %w", err)
	}
	return SessionID(parsed.String()), nil
}
