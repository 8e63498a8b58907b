// Package jobs provides the scheduled background tasks of the ingestion
// service, built on github.com/robfig/cron/v3.
//
// The only job today is the republish sweep: it re-emits hand-off events
// for orders left Pending past a cutoff, so a lost publish confirmation
// never strands an order. Jobs are managed through JobManager:
//
//	jobManager := jobs.NewJobManager(republishHandler, schedule, staleAfter, logger)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"ingestion/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	republishJob *RepublishJob
}

// NewJobManager creates a job manager with all required jobs.
func NewJobManager(
	republishHandler commands.RepublishPendingOrdersCommandHandler,
	schedule string,
	staleAfter time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		republishJob: NewRepublishJob(republishHandler, schedule, staleAfter, logger),
	}
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	if err := jm.republishJob.Start(); err != nil {
		return fmt.Errorf("failed to start republish job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.republishJob.Stop()
}
