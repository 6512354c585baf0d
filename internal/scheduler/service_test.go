package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonitor struct {
	mu        sync.Mutex
	cycles    int
	summaries int
	cleanups  int
	cycleErr  error
	cycleRan  chan struct{}
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{cycleRan: make(chan struct{}, 16)}
}

func (m *fakeMonitor) RunCycle(ctx context.Context) error {
	m.mu.Lock()
	m.cycles++
	err := m.cycleErr
	m.mu.Unlock()

	select {
	case m.cycleRan <- struct{}{}:
	default:
	}
	return err
}

func (m *fakeMonitor) SendDailySummary() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries++
	return nil
}

func (m *fakeMonitor) RunRetentionCleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups++
	return nil
}

func (m *fakeMonitor) counts() (cycles, summaries, cleanups int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycles, m.summaries, m.cleanups
}

func waitForCycle(t *testing.T, m *fakeMonitor) {
	t.Helper()
	select {
	case <-m.cycleRan:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a monitoring cycle")
	}
}

func schedulerConfig() *config.Config {
	return &config.Config{
		MonitoringInterval: time.Hour,
		DailySummaryTime:   "09:00",
	}
}

func TestNewServiceRejectsBadSummaryTime(t *testing.T) {
	cfg := schedulerConfig()
	cfg.DailySummaryTime = "25:00"

	_, err := NewService(cfg, newFakeMonitor())
	assert.Error(t, err)
}

func TestStartIsIdempotent(t *testing.T) {
	monitor := newFakeMonitor()
	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)
	service.stopWait = 2 * time.Second

	service.Start()
	waitForCycle(t, monitor)

	// The second Start must not spawn a second loop.
	service.Start()
	assert.True(t, service.IsRunning())

	service.Stop()
	assert.False(t, service.IsRunning())

	cycles, _, _ := monitor.counts()
	assert.Equal(t, 1, cycles)
}

func TestStopInterruptsSleep(t *testing.T) {
	monitor := newFakeMonitor()
	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)
	service.stopWait = 2 * time.Second

	service.Start()
	waitForCycle(t, monitor)

	// The loop is now in its hour-long sleep; Stop must not wait it out.
	start := time.Now()
	service.Stop()
	assert.Less(t, time.Since(start), service.stopWait)
}

func TestStopWhileStoppedIsNoOp(t *testing.T) {
	monitor := newFakeMonitor()
	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)

	service.Stop()
	assert.False(t, service.IsRunning())
}

func TestRestartAfterStop(t *testing.T) {
	monitor := newFakeMonitor()
	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)
	service.stopWait = 2 * time.Second

	service.Start()
	waitForCycle(t, monitor)
	service.Stop()

	service.Start()
	waitForCycle(t, monitor)
	assert.True(t, service.IsRunning())
	service.Stop()

	cycles, _, _ := monitor.counts()
	assert.Equal(t, 2, cycles)
}

func TestConcurrentStartStop(t *testing.T) {
	monitor := newFakeMonitor()
	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)
	service.stopWait = 2 * time.Second

	// Start and Stop racing from separate goroutines must never panic or
	// leak a loop, whichever order they land in.
	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			service.Start()
		}()
		go func() {
			defer wg.Done()
			service.Stop()
		}()
		wg.Wait()
	}

	service.Stop()
	assert.False(t, service.IsRunning())
}

func TestCycleErrorShortensRetryDelay(t *testing.T) {
	monitor := newFakeMonitor()
	monitor.cycleErr = errors.New("sources down")

	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)
	service.errorCooldown = 10 * time.Millisecond
	service.stopWait = 2 * time.Second

	service.Start()
	// With an hour-long interval, a second cycle this soon proves the
	// failure path used the cooldown instead.
	waitForCycle(t, monitor)
	waitForCycle(t, monitor)
	service.Stop()
}

func TestFailedCycleSkipsDueJobs(t *testing.T) {
	monitor := newFakeMonitor()
	monitor.cycleErr = errors.New("sources down")

	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)
	service.errorCooldown = 5 * time.Millisecond

	// Both jobs overdue, but every cycle fails: neither may fire.
	service.nextSummary = time.Now().Add(-time.Minute)
	service.nextCleanup = time.Now().Add(-time.Minute)

	stopCh := make(chan struct{})
	done := make(chan struct{})
	go service.loop(stopCh, done)

	waitForCycle(t, monitor)
	waitForCycle(t, monitor)
	close(stopCh)
	<-done

	_, summaries, cleanups := monitor.counts()
	assert.Equal(t, 0, summaries)
	assert.Equal(t, 0, cleanups)
}

func TestRunDueJobsFiresAndAdvances(t *testing.T) {
	monitor := newFakeMonitor()
	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)

	now := time.Now()
	service.nextSummary = now.Add(-time.Minute)
	service.nextCleanup = now.Add(time.Hour)

	service.runDueJobs(now)

	_, summaries, cleanups := monitor.counts()
	assert.Equal(t, 1, summaries)
	assert.Equal(t, 0, cleanups)
	assert.True(t, service.nextSummary.After(now))

	// Not due again until the schedule comes around.
	service.runDueJobs(now)
	_, summaries, _ = monitor.counts()
	assert.Equal(t, 1, summaries)
}

func TestRunDueJobsFiresCleanup(t *testing.T) {
	monitor := newFakeMonitor()
	service, err := NewService(schedulerConfig(), monitor)
	require.NoError(t, err)

	now := time.Now()
	service.nextSummary = now.Add(time.Hour)
	service.nextCleanup = now.Add(-time.Minute)

	service.runDueJobs(now)

	_, summaries, cleanups := monitor.counts()
	assert.Equal(t, 0, summaries)
	assert.Equal(t, 1, cleanups)
	assert.True(t, service.nextCleanup.After(now))
}
