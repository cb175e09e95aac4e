package cron

import (
	"context"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/logging"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var log = logging.Component("Cron")

// StaleTimerAge is how long a segment may stay open before it is reported.
const StaleTimerAge = 12 * time.Hour

// Repos are the storage calls the housekeeping jobs need.
type Repos struct {
	Notifications interface {
		DeleteReadOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
	}
	RefreshTokens interface {
		DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
	}
	TimeLogs interface {
		FindOpenStartedBefore(ctx context.Context, before time.Time) ([]*repository.TimeLog, error)
	}
}

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron      *cron.Cron
	repos     Repos
	retention time.Duration
	now       func() time.Time
}

// NewScheduler creates a scheduler. Read notifications older than
// retentionDays are purged.
func NewScheduler(repos Repos, retentionDays int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		repos:     repos,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every day at 3 AM - Cleanup
	s.cron.AddFunc("0 3 * * *", func() {
		log.Info("[Cron] Running daily cleanup...")
		s.cleanup()
	})

	// Run every hour - Stale timer report
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[Cron] Running stale timer check...")
		s.reportStaleTimers()
	})

	s.cron.Start()
	log.Info("[Cron] ✅ Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("[Cron] Scheduler stopped")
}

// cleanup removes old read notifications and expired refresh tokens
func (s *Scheduler) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	now := s.now()

	if s.retention > 0 {
		n, err := s.repos.Notifications.DeleteReadOlderThan(ctx, now.Add(-s.retention))
		if err != nil {
			log.WithError(err).Error("[Cron] ❌ Notification cleanup failed")
		} else if n > 0 {
			log.WithField("deleted", n).Info("[Cron] 🧹 Removed old read notifications")
		}
	}

	n, err := s.repos.RefreshTokens.DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		log.WithError(err).Error("[Cron] ❌ Refresh token cleanup failed")
	} else if n > 0 {
		log.WithField("deleted", n).Info("[Cron] 🧹 Removed expired refresh tokens")
	}
}

// reportStaleTimers logs segments left open too long. It never closes them.
func (s *Scheduler) reportStaleTimers() []*repository.TimeLog {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	now := s.now()

	stale, err := s.repos.TimeLogs.FindOpenStartedBefore(ctx, now.Add(-StaleTimerAge))
	if err != nil {
		log.WithError(err).Error("[Cron] ❌ Stale timer check failed")
		return nil
	}

	for _, l := range stale {
		log.WithFields(logrus.Fields{
			"user_id":  l.UserID,
			"task_id":  l.TaskID,
			"log_id":   l.ID,
			"open_for": now.Sub(l.StartTime).Truncate(time.Minute).String(),
		}).Warn("[Cron] ⚠️ Timer open for more than 12 hours")
	}
	return stale
}

// ManualTrigger allows manual triggering of housekeeping jobs (for testing)
func (s *Scheduler) ManualTrigger(checkType string) {
	switch checkType {
	case "cleanup":
		s.cleanup()
	case "stale_timers":
		s.reportStaleTimers()
	case "all":
		s.cleanup()
		s.reportStaleTimers()
	}
}
