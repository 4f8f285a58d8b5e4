package ports

import (
	"context"
	"time"

	"sheetchat/models"
)

// LLMUsageRepository defines the interface for LLM usage ledger operations
type LLMUsageRepository interface {
	// Record usage for a model call
	RecordUsage(ctx context.Context, usage *models.LLMUsage) error

	// Get usage rows for one browser session, newest first
	GetSessionUsage(ctx context.Context, sessionID string) ([]*models.LLMUsage, error)

	// Get aggregated usage within a date range
	GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error)
}
