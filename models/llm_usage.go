package models

import (
	"time"

	"github.com/google/uuid"
)

// LLMUsage represents a single model call's token usage as stored in the ledger
type LLMUsage struct {
	ID               uuid.UUID `json:"id" db:"id"`
	SessionID        string    `json:"session_id" db:"session_id"`
	Provider         string    `json:"provider" db:"provider"`             // 'gemini'
	Model            string    `json:"model" db:"model"`                   // 'gemini-2.0-flash', ...
	OperationType    string    `json:"operation_type" db:"operation_type"` // 'chat'
	PromptTokens     int       `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens" db:"total_tokens"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// UsageData represents raw usage data reported by the provider
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// ChatReply is the text of a model reply plus whatever usage the provider reported
type ChatReply struct {
	Text  string
	Usage *UsageData
}

// UsageSummary aggregates ledger rows over a period
type UsageSummary struct {
	PeriodStart           time.Time `json:"period_start" db:"-"`
	PeriodEnd             time.Time `json:"period_end" db:"-"`
	RequestCount          int       `json:"request_count" db:"request_count"`
	TotalTokens           int       `json:"total_tokens" db:"total_tokens"`
	TotalPromptTokens     int       `json:"total_prompt_tokens" db:"total_prompt_tokens"`
	TotalCompletionTokens int       `json:"total_completion_tokens" db:"total_completion_tokens"`
}

// Operation types for categorization
const (
	OpChat = "chat"
)
