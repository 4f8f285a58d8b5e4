package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"sheetchat/internal/migration"
	"sheetchat/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLLMUsageRepositoryLive runs against a real PostgreSQL instance.
func TestLLMUsageRepositoryLive(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping live test: TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	repo := NewLLMUsageRepository(db)
	sessionID := uuid.NewString()
	start := time.Now().Add(-time.Minute)

	for _, tokens := range []int{10, 32} {
		require.NoError(t, repo.RecordUsage(ctx, &models.LLMUsage{
			SessionID:        sessionID,
			Provider:         "gemini",
			Model:            "gemini-2.0-flash",
			OperationType:    models.OpChat,
			PromptTokens:     tokens / 2,
			CompletionTokens: tokens / 2,
			TotalTokens:      tokens,
			CreatedAt:        time.Now(),
		}))
	}

	rows, err := repo.GetSessionUsage(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	summary, err := repo.GetUsageSummary(ctx, start, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.RequestCount, 2)
	assert.GreaterOrEqual(t, summary.TotalTokens, 42)
}
