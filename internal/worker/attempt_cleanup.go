package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/oncallhq/pager-api/internal/repository"
)

// AttemptCleanupWorker prunes paging attempts past the retention window.
// Attempts are the audit trail of every page, so retention is generous by
// default and configured in days.
type AttemptCleanupWorker struct {
	repo            repository.AttemptRepository
	retentionDays   int
	cleanupInterval time.Duration
	logger          zerolog.Logger
}

func NewAttemptCleanupWorker(repo repository.AttemptRepository, retentionDays int, cleanupInterval time.Duration, logger zerolog.Logger) *AttemptCleanupWorker {
	return &AttemptCleanupWorker{
		repo:            repo,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		logger:          logger.With().Str("component", "attempt_cleanup").Logger(),
	}
}

func (w *AttemptCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error().Err(err).Msg("attempt cleanup failed")
			}
		}
	}
}

func (w *AttemptCleanupWorker) cleanup(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete expired attempts: %w", err)
	}

	if rows > 0 {
		w.logger.Info().Int64("rows", rows).Time("cutoff", cutoff).Msg("pruned expired paging attempts")
	}
	return nil
}
