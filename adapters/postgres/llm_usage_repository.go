package postgres

import (
	"context"
	"time"

	"sheetchat/models"
	"sheetchat/ports"

	"github.com/jmoiron/sqlx"
)

// LLMUsageRepositoryImpl implements LLMUsageRepository for PostgreSQL
type LLMUsageRepositoryImpl struct {
	db *sqlx.DB
}

// NewLLMUsageRepository creates a new PostgreSQL LLM usage repository
func NewLLMUsageRepository(db *sqlx.DB) ports.LLMUsageRepository {
	return &LLMUsageRepositoryImpl{db: db}
}

const insertUsageSQL = `
		INSERT INTO llm_usage (
			session_id, provider, model, operation_type,
			prompt_tokens, completion_tokens, total_tokens, created_at
		) VALUES (
			:session_id, :provider, :model, :operation_type,
			:prompt_tokens, :completion_tokens, :total_tokens, :created_at
		)`

// RecordUsage records usage for a model call
func (r *LLMUsageRepositoryImpl) RecordUsage(ctx context.Context, usage *models.LLMUsage) error {
	_, err := r.db.NamedExecContext(ctx, insertUsageSQL, usage)
	return err
}

// GetSessionUsage retrieves usage rows for one session
func (r *LLMUsageRepositoryImpl) GetSessionUsage(ctx context.Context, sessionID string) ([]*models.LLMUsage, error) {
	var usages []*models.LLMUsage
	err := r.db.SelectContext(ctx, &usages, `
		SELECT id, session_id, provider, model, operation_type,
		       prompt_tokens, completion_tokens, total_tokens, created_at
		FROM llm_usage
		WHERE session_id = $1
		ORDER BY created_at DESC
	`, sessionID)
	return usages, err
}

// GetUsageSummary returns aggregated usage within a date range
func (r *LLMUsageRepositoryImpl) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	summary := &models.UsageSummary{}
	err := r.db.GetContext(ctx, summary, `
		SELECT
			COUNT(*) AS request_count,
			COALESCE(SUM(total_tokens), 0) AS total_tokens,
			COALESCE(SUM(prompt_tokens), 0) AS total_prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) AS total_completion_tokens
		FROM llm_usage
		WHERE created_at >= $1 AND created_at <= $2
	`, start, end)
	if err != nil {
		return nil, err
	}
	summary.PeriodStart = start
	summary.PeriodEnd = end
	return summary, nil
}
