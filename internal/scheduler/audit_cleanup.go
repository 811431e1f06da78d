// Package scheduler runs periodic maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/tasks"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := scheduleParser.Parse(schedule)
	return err
}

// TaskEnqueuer puts a cleanup task on the background queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// AuditCleanupScheduler purges old audit events on a schedule. With a
// queue the purge runs as a retried background task, otherwise inline.
type AuditCleanupScheduler struct {
	schedule      string
	retentionDays int
	queue         TaskEnqueuer
	cleaner       tasks.AuditEventCleaner
	logger        *zap.Logger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewAuditCleanupScheduler needs either queue or cleaner; queue wins when
// both are set.
func NewAuditCleanupScheduler(schedule string, retentionDays int, queue TaskEnqueuer, cleaner tasks.AuditEventCleaner, logger *zap.Logger) *AuditCleanupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditCleanupScheduler{
		schedule:      schedule,
		retentionDays: retentionDays,
		queue:         queue,
		cleaner:       cleaner,
		logger:        logger.Named("scheduler"),
		cron:          cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start registers the job and starts the cron loop. An empty schedule
// disables the scheduler. The loop stops when ctx is cancelled.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" {
		s.logger.Info("audit cleanup disabled")
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() { s.RunNow(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("audit cleanup scheduled",
		zap.String("schedule", s.schedule),
		zap.Int("retention_days", s.retentionDays),
		zap.Timep("next_run", s.nextRunLocked()),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running job to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("audit cleanup stopped")
}

// RunNow performs one cleanup immediately.
func (s *AuditCleanupScheduler) RunNow(ctx context.Context) {
	task := tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}

	if s.queue != nil {
		id, err := s.queue.Enqueue(ctx, task)
		if err != nil {
			s.logger.Error("failed to enqueue audit cleanup", zap.Error(err))
			return
		}
		s.logger.Debug("audit cleanup enqueued", zap.String("task_id", id))
		return
	}

	if s.cleaner == nil {
		s.logger.Warn("audit cleanup skipped: no cleaner configured")
		return
	}
	process := tasks.CleanupAuditEventsProcessor(s.cleaner, s.logger)
	if err := process(ctx, task); err != nil {
		s.logger.Error("audit cleanup failed", zap.Error(err))
	}
}

func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the job fires next, or nil when not running.
func (s *AuditCleanupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return nil
	}
	return s.nextRunLocked()
}

func (s *AuditCleanupScheduler) nextRunLocked() *time.Time {
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}
