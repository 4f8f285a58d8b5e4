package usage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"sheetchat/internal"
	"sheetchat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type memoryRepo struct {
	mu       sync.Mutex
	rows     []*models.LLMUsage
	failures int
	attempts int
}

func (r *memoryRepo) RecordUsage(_ context.Context, usage *models.LLMUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.failures > 0 {
		r.failures--
		return fmt.Errorf("database unavailable")
	}
	r.rows = append(r.rows, usage)
	return nil
}

func (r *memoryRepo) GetSessionUsage(_ context.Context, sessionID string) ([]*models.LLMUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LLMUsage
	for _, row := range r.rows {
		if row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetUsageSummary(_ context.Context, start, end time.Time) (*models.UsageSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := &models.UsageSummary{PeriodStart: start, PeriodEnd: end}
	for _, row := range r.rows {
		sum.RequestCount++
		sum.TotalTokens += row.TotalTokens
	}
	return sum, nil
}

func newTestService(repo *memoryRepo) *Service {
	svc := NewService(repo, internal.NewNopLogger())
	svc.baseDelay = time.Millisecond
	return svc
}

func TestRecordUsagePersists(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryRepo{}
	svc := newTestService(repo)

	svc.RecordUsage("session-1", models.OpChat, &models.UsageData{
		PromptTokens: 12, CompletionTokens: 30, TotalTokens: 42, Model: "gemini-2.0-flash", Provider: "gemini",
	})
	svc.Wait()

	rows, err := svc.SessionUsage(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 42, rows[0].TotalTokens)
	assert.Equal(t, models.OpChat, rows[0].OperationType)
	assert.Equal(t, "gemini", rows[0].Provider)
}

func TestRecordUsageRetries(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryRepo{failures: 2}
	svc := newTestService(repo)

	svc.RecordUsage("session-1", models.OpChat, &models.UsageData{TotalTokens: 5})
	svc.Wait()

	assert.Equal(t, 3, repo.attempts)
	assert.Len(t, repo.rows, 1)
}

func TestRecordUsageGivesUpQuietly(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryRepo{failures: 10}
	svc := newTestService(repo)

	svc.RecordUsage("session-1", models.OpChat, &models.UsageData{TotalTokens: 5})
	svc.Wait()

	assert.Equal(t, 3, repo.attempts)
	assert.Empty(t, repo.rows)
}

func TestRecordUsageIgnoresBadInput(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)

	svc.RecordUsage("session-1", models.OpChat, nil)
	svc.RecordUsage("session-1", models.OpChat, &models.UsageData{PromptTokens: -1})
	svc.Wait()

	assert.Zero(t, repo.attempts)
}

func TestRecordUsageManyWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryRepo{}
	svc := newTestService(repo)

	for i := 0; i < 20; i++ {
		svc.RecordUsage("session-1", models.OpChat, &models.UsageData{TotalTokens: i + 1})
	}
	svc.Wait()

	rows, err := svc.SessionUsage(context.Background(), "session-1")
	assert.NoError(t, err)
	assert.Len(t, rows, 20)
}
