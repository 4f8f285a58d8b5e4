package usage

import (
	"context"
	"sync"
	"time"

	"sheetchat/internal"
	"sheetchat/models"
	"sheetchat/ports"

	"golang.org/x/sync/semaphore"
)

// maxConcurrentWrites bounds ledger writes in flight at once
const maxConcurrentWrites = 4

// Service records model token usage to the ledger without blocking chat replies
type Service struct {
	repo   ports.LLMUsageRepository
	logger *internal.Logger

	wg     sync.WaitGroup
	writes *semaphore.Weighted

	// retry pacing, shortened by tests
	baseDelay time.Duration
}

// NewService creates a new usage service
func NewService(repo ports.LLMUsageRepository, logger *internal.Logger) *Service {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Service{
		repo:      repo,
		logger:    logger,
		writes:    semaphore.NewWeighted(maxConcurrentWrites),
		baseDelay: 100 * time.Millisecond,
	}
}

// RecordUsage asynchronously records usage for one session's chat call.
// Tracking problems are logged and never reported to the caller.
func (s *Service) RecordUsage(sessionID, operationType string, usage *models.UsageData) {
	if usage == nil {
		s.logger.Debug("[UsageService] no usage data reported for session %s", sessionID)
		return
	}
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		s.logger.Error("[UsageService] invalid token counts: %+v", usage)
		return
	}

	row := &models.LLMUsage{
		SessionID:        sessionID,
		Provider:         usage.Provider,
		Model:            usage.Model,
		OperationType:    operationType,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CreatedAt:        time.Now().UTC(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.writes.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer s.writes.Release(1)
		if err := s.persistWithRetry(row); err != nil {
			s.logger.Error("[UsageService] failed to persist usage after retries: %v", err)
		}
	}()
}

// persistWithRetry attempts to persist usage with linear backoff
func (s *Service) persistWithRetry(row *models.LLMUsage) error {
	const maxAttempts = 3

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = s.repo.RecordUsage(context.Background(), row); err == nil {
			return nil
		}
		if attempt < maxAttempts-1 {
			time.Sleep(time.Duration(attempt+1) * s.baseDelay)
		}
	}
	return err
}

// SessionUsage returns the ledger rows of one session
func (s *Service) SessionUsage(ctx context.Context, sessionID string) ([]*models.LLMUsage, error) {
	return s.repo.GetSessionUsage(ctx, sessionID)
}

// Summary returns aggregated usage over a period
func (s *Service) Summary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	return s.repo.GetUsageSummary(ctx, start, end)
}

// Wait blocks until every pending write has finished
func (s *Service) Wait() {
	s.wg.Wait()
}
