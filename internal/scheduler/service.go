package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Monitor is the pipeline surface the scheduler drives. The scheduler only
// controls the loop; closing the pipeline's resources is the caller's job,
// so a stopped scheduler can be started again.
type Monitor interface {
	RunCycle(ctx context.Context) error
	SendDailySummary() error
	RunRetentionCleanup() error
}

const (
	defaultErrorCooldown = 60 * time.Second
	defaultStopWait      = 10 * time.Second

	// Weekly retention cleanup, Sundays at 03:00.
	cleanupSpec = "0 3 * * 0"
)

// Service owns the monitoring loop. One goroutine runs collection cycles at
// the configured interval and evaluates the periodic jobs (daily summary,
// weekly cleanup) once per pass, so a single loop drives everything and
// nothing fires while the service is stopped.
type Service struct {
	config  *config.Config
	monitor Monitor

	// mu serializes Start/Stop so the channel handoff is ordered even when
	// they race from different goroutines. running stays atomic for
	// lock-free IsRunning reads.
	mu      sync.Mutex
	running atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}

	summarySchedule cron.Schedule
	cleanupSchedule cron.Schedule
	nextSummary     time.Time
	nextCleanup     time.Time

	errorCooldown time.Duration
	stopWait      time.Duration
}

// NewService creates the scheduler. It fails when the configured daily
// summary time cannot be turned into a schedule.
func NewService(cfg *config.Config, monitor Monitor) (*Service, error) {
	hour, minute, err := config.ParseTimeOfDay(cfg.DailySummaryTime)
	if err != nil {
		return nil, fmt.Errorf("invalid daily summary time: %w", err)
	}

	summarySchedule, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return nil, fmt.Errorf("failed to build summary schedule: %w", err)
	}

	cleanupSchedule, err := cron.ParseStandard(cleanupSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to build cleanup schedule: %w", err)
	}

	return &Service{
		config:          cfg,
		monitor:         monitor,
		summarySchedule: summarySchedule,
		cleanupSchedule: cleanupSchedule,
		errorCooldown:   defaultErrorCooldown,
		stopWait:        defaultStopWait,
	}, nil
}

// Start launches the monitoring loop. Calling Start on a running service is
// a logged no-op; at most one loop goroutine ever exists.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		logrus.Warn("Scheduler already running, ignoring Start")
		return
	}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	now := time.Now()
	s.nextSummary = s.summarySchedule.Next(now)
	s.nextCleanup = s.cleanupSchedule.Next(now)

	s.running.Store(true)

	logrus.Infof("Scheduler started: interval %v, next summary %v, next cleanup %v",
		s.config.MonitoringInterval, s.nextSummary.Format(time.RFC3339), s.nextCleanup.Format(time.RFC3339))

	go s.loop(s.stopCh, s.done)
}

// Stop signals the loop and waits a bounded time for the in-flight cycle to
// finish. Calling Stop on a stopped service is a logged no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		logrus.Warn("Scheduler not running, ignoring Stop")
		return
	}
	s.running.Store(false)

	close(s.stopCh)

	select {
	case <-s.done:
	case <-time.After(s.stopWait):
		logrus.Warn("Timed out waiting for monitoring loop to finish")
	}

	logrus.Info("Scheduler stopped")
}

// IsRunning reports whether the monitoring loop is active.
func (s *Service) IsRunning() bool {
	return s.running.Load()
}

func (s *Service) loop(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		if err := s.monitor.RunCycle(context.Background()); err != nil {
			// Periodic jobs are skipped on a failed cycle; they fire on
			// the next clean pass.
			logrus.Errorf("Monitoring cycle failed, retrying after %v: %v", s.errorCooldown, err)
			if !s.sleep(stopCh, s.errorCooldown) {
				return
			}
			continue
		}

		s.runDueJobs(time.Now())

		if !s.sleep(stopCh, s.config.MonitoringInterval) {
			return
		}
	}
}

// runDueJobs fires each periodic job whose scheduled time has passed, then
// advances its schedule. A failing job is logged and retried at its next
// scheduled time, not immediately.
func (s *Service) runDueJobs(now time.Time) {
	if !now.Before(s.nextSummary) {
		if err := s.monitor.SendDailySummary(); err != nil {
			logrus.Errorf("Daily summary failed: %v", err)
		}
		s.nextSummary = s.summarySchedule.Next(now)
	}

	if !now.Before(s.nextCleanup) {
		if err := s.monitor.RunRetentionCleanup(); err != nil {
			logrus.Errorf("Retention cleanup failed: %v", err)
		}
		s.nextCleanup = s.cleanupSchedule.Next(now)
	}
}

// sleep waits for the given duration, returning false when Stop interrupts
// the wait.
func (s *Service) sleep(stopCh <-chan struct{}, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-stopCh:
		return false
	}
}
