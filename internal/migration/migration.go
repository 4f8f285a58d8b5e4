package migration

import (
	"context"

	"sheetchat/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles the usage ledger schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is
// idempotent so the runner is safe to call on each boot.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range Statements() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.Wrapf(err, "failed to %s", step.Name)
		}
	}
	return nil
}

// Step is one named schema statement
type Step struct {
	Name string
	SQL  string
}

// Statements lists the schema statements in the order they run
func Statements() []Step {
	return []Step{
		{
			Name: "create llm_usage table",
			SQL: `
		CREATE TABLE IF NOT EXISTS llm_usage (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id VARCHAR(64) NOT NULL,
			provider VARCHAR(50) NOT NULL,
			model VARCHAR(100) NOT NULL,
			operation_type VARCHAR(50) NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		},
		{
			Name: "index llm_usage by session",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_llm_usage_session ON llm_usage(session_id, created_at DESC)`,
		},
		{
			Name: "index llm_usage by time",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_llm_usage_created ON llm_usage(created_at)`,
		},
	}
}
