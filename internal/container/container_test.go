package container

import (
	"context"
	"testing"
	"time"

	"sheetchat/adapters/llm"
	"sheetchat/internal"
	"sheetchat/internal/config"
	"sheetchat/internal/usage"
	"sheetchat/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledRepo holds every write until release is closed
type stalledRepo struct {
	release chan struct{}
}

func (r *stalledRepo) RecordUsage(_ context.Context, _ *models.LLMUsage) error {
	<-r.release
	return nil
}

func (r *stalledRepo) GetSessionUsage(context.Context, string) ([]*models.LLMUsage, error) {
	return nil, nil
}

func (r *stalledRepo) GetUsageSummary(_ context.Context, start, end time.Time) (*models.UsageSummary, error) {
	return &models.UsageSummary{PeriodStart: start, PeriodEnd: end}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{GeminiModel: config.DefaultGeminiModel, RequestTimeout: time.Second},
		Session: config.SessionConfig{
			UploadStepDelay: time.Millisecond,
			TTL:             time.Hour,
			JanitorInterval: time.Minute,
		},
	}
}

func TestNewWithoutDatabase(t *testing.T) {
	c, err := New(testConfig(), internal.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, c.Connect(context.Background()))
	assert.Nil(t, c.DB)
	assert.Nil(t, c.Usage)
	require.NotNil(t, c.Sessions)
	require.NotNil(t, c.SSEHub)
	require.NotNil(t, c.Exporter)

	gemini, ok := c.Chat.(*llm.GeminiClient)
	require.True(t, ok)
	assert.Equal(t, config.DefaultGeminiModel, gemini.Model())

	c.Sessions.Create()
	require.NoError(t, c.Shutdown(context.Background()))
	assert.Zero(t, c.Sessions.Len())
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestInitWithDatabaseRejectsNil(t *testing.T) {
	c, err := New(testConfig(), internal.NewNopLogger())
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}

func TestShutdownTimeoutKeepsDatabaseOpen(t *testing.T) {
	c, err := New(testConfig(), internal.NewNopLogger())
	require.NoError(t, err)

	// sqlx.Open does not dial, so no server is needed.
	db, err := sqlx.Open("postgres", "postgres://sheetchat@127.0.0.1:1/sheetchat?sslmode=disable&connect_timeout=1")
	require.NoError(t, err)
	repo := &stalledRepo{release: make(chan struct{})}
	c.DB = db
	c.Usage = usage.NewService(repo, internal.NewNopLogger())
	c.Usage.RecordUsage("session-1", "chat", &models.UsageData{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = c.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	pingErr := db.Ping()
	require.Error(t, pingErr)
	assert.NotContains(t, pingErr.Error(), "database is closed")

	close(repo.release)
	c.Usage.Wait()
	require.NoError(t, db.Close())
}
