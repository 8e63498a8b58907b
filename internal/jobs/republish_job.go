package jobs

import (
	"context"
	"log/slog"
	"time"

	"ingestion/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds a single sweep run so a hung store or broker call
// cannot stall the cron entry past the following ticks.
const sweepTimeout = 30 * time.Second

// RepublishJob periodically re-emits hand-off events for orders stuck in
// Pending. It closes the gap left when an ingestion persisted an order but
// the publish was never confirmed.
type RepublishJob struct {
	handler    commands.RepublishPendingOrdersCommandHandler
	staleAfter time.Duration
	cron       *cron.Cron
	schedule   string
	logger     *slog.Logger
}

// NewRepublishJob creates a sweep job. schedule is a cron expression with
// seconds; staleAfter is the Pending age threshold passed to each sweep.
func NewRepublishJob(
	handler commands.RepublishPendingOrdersCommandHandler,
	schedule string,
	staleAfter time.Duration,
	logger *slog.Logger,
) *RepublishJob {
	return &RepublishJob{
		handler:    handler,
		staleAfter: staleAfter,
		cron:       cron.New(cron.WithSeconds()),
		schedule:   schedule,
		logger:     logger.With("component", "republish_job"),
	}
}

// Start schedules the sweep.
func (j *RepublishJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		cmd, cmdErr := commands.NewRepublishPendingOrdersCommand(j.staleAfter)
		if cmdErr != nil {
			j.logger.ErrorContext(ctx, "invalid republish sweep configuration", "error", cmdErr)
			return
		}

		if handleErr := j.handler.Handle(ctx, cmd); handleErr != nil {
			j.logger.ErrorContext(ctx, "republish sweep failed", "error", handleErr)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "republish job started",
		"schedule", j.schedule, "staleAfter", j.staleAfter)
	return nil
}

// Stop stops the sweep.
func (j *RepublishJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "republish job stopped")
}
