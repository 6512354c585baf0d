package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/alerting"
	"github.com/brandsentry/sentiment-bot/internal/config"
	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/brandsentry/sentiment-bot/internal/notifications"
	"github.com/brandsentry/sentiment-bot/internal/sentiment"
	"github.com/brandsentry/sentiment-bot/internal/sources"
	"github.com/brandsentry/sentiment-bot/internal/storage"
	"github.com/sirupsen/logrus"
)

// Service runs the scoring-and-alerting pipeline: collect mentions, score
// them, persist results, create and deliver alerts, and serve the periodic
// summary and retention jobs.
type Service struct {
	config   *config.Config
	store    storage.StoreInterface
	archive  storage.ArchiveInterface // nil when no archive is configured
	notifier notifications.NotificationInterface
	analyzer *sentiment.Analyzer
	policy   *alerting.Policy
	sources  []sources.Source
	metrics  *Metrics
	mu       sync.RWMutex
}

// Metrics holds pipeline observability counters. ConsecutiveFailures lets an
// operator detect a loop that is stuck in its retry-forever cycle.
type Metrics struct {
	CyclesCompleted     int            `json:"cycles_completed"`
	LastRun             time.Time      `json:"last_run"`
	LastRunDuration     string         `json:"last_run_duration"`
	MentionsCollected   int            `json:"mentions_collected"`
	ResultsStored       int            `json:"results_stored"`
	AlertsCreated       int            `json:"alerts_created"`
	SourceMetrics       map[string]int `json:"source_metrics"`
	SentimentBreakdown  map[string]int `json:"sentiment_breakdown"`
	ErrorCount          int            `json:"error_count"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
}

// ScanResult summarizes a manual scan triggered from the API.
type ScanResult struct {
	Success       bool     `json:"success"`
	Brands        []string `json:"brands_scanned"`
	ItemsFound    int      `json:"items_found"`
	ItemsAnalyzed int      `json:"items_analyzed"`
	NegativeItems int      `json:"negative_items"`
	AlertsCreated int      `json:"alerts_created"`
	Error         string   `json:"error,omitempty"`
}

// NewService creates a new monitoring service
func NewService(cfg *config.Config, store storage.StoreInterface, archive storage.ArchiveInterface, notifier notifications.NotificationInterface) *Service {
	service := &Service{
		config:   cfg,
		store:    store,
		archive:  archive,
		notifier: notifier,
		analyzer: sentiment.NewAnalyzer(cfg.ClassifierModelPath),
		policy:   alerting.NewPolicy(cfg.SentimentThreshold),
		metrics: &Metrics{
			SourceMetrics:      make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
	}

	service.initializeSources()
	return service
}

func (s *Service) initializeSources() {
	s.sources = []sources.Source{
		sources.NewReviewsSource(s.config.ReviewsAPIURL, s.config.ReviewsAPIKey),
		sources.NewRedditSource(s.config.RedditClientID, s.config.RedditClientSecret),
		sources.NewTwitterSource(s.config.TwitterBearerToken),
		sources.NewHackerNewsSource(),
	}
}

// RunCycle performs one full collect -> score -> decide -> notify pass.
// Individual source, persistence and notification failures are logged and
// isolated; the returned error is non-nil only when the cycle produced
// nothing because every enabled source failed.
func (s *Service) RunCycle(ctx context.Context) error {
	start := time.Now()
	logrus.Info("Starting monitoring cycle")

	mentions, enabled, failed := s.collectMentions(ctx, s.config.Brands)

	if enabled > 0 && failed == enabled {
		s.recordCycleFailure(failed)
		return fmt.Errorf("all %d enabled sources failed", enabled)
	}

	results := s.scoreAndStore(mentions)
	alertsCreated := s.processAlerts(results)

	s.updateMetrics(mentions, results, alertsCreated, time.Since(start), failed)

	logrus.Infof("Monitoring cycle completed in %v: %d mentions, %d results stored, %d alerts",
		time.Since(start), len(mentions), len(results), alertsCreated)
	return nil
}

// collectMentions fans out to every enabled source concurrently. A failing
// source is counted and skipped; its mentions are simply absent this cycle.
func (s *Service) collectMentions(ctx context.Context, brands []string) (mentions []models.Mention, enabled, failed int) {
	var wg sync.WaitGroup
	mentionsChan := make(chan []models.Mention, len(s.sources))
	errorsChan := make(chan error, len(s.sources))

	window := s.config.MonitoringInterval
	// Look back at least an hour so a long outage does not lose mentions
	// published while cycles were failing.
	if window < time.Hour {
		window = time.Hour
	}

	for _, source := range s.sources {
		if !source.IsEnabled() {
			continue
		}
		enabled++

		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()

			logrus.Debugf("Fetching mentions from %s (window: %v)", src.GetName(), window)
			found, err := src.FetchMentions(ctx, brands, s.config.Keywords, window)
			if err != nil {
				logrus.Errorf("Error fetching from %s: %v", src.GetName(), err)
				errorsChan <- err
				return
			}

			logrus.Debugf("Found %d mentions from %s", len(found), src.GetName())
			mentionsChan <- found
		}(source)
	}

	go func() {
		wg.Wait()
		close(mentionsChan)
		close(errorsChan)
	}()

	for found := range mentionsChan {
		mentions = append(mentions, found...)
	}
	for range errorsChan {
		failed++
	}

	logrus.Infof("Collected %d mentions from %d sources (%d failed)", len(mentions), enabled, failed)
	return mentions, enabled, failed
}

// scoreAndStore scores every mention in collection order and persists each
// result. A persistence failure skips that item only.
func (s *Service) scoreAndStore(mentions []models.Mention) []models.SentimentResult {
	var results []models.SentimentResult

	for _, mention := range mentions {
		if mention.Timestamp.IsZero() {
			mention.Timestamp = time.Now()
		}

		result := s.analyzer.Analyze(mention)

		id, err := s.store.SaveResult(&result)
		if err != nil {
			logrus.Errorf("Failed to store sentiment result from %s: %v", mention.Source, err)
			continue
		}
		result.ID = id
		results = append(results, result)
	}

	return results
}

// processAlerts evaluates the alert policy for every negative result and
// delivers the alerts it creates. A notification failure leaves the alert
// active with notified=false; alerts are never lost because delivery failed.
func (s *Service) processAlerts(results []models.SentimentResult) int {
	created := 0

	for i := range results {
		result := &results[i]
		if !result.IsNegative {
			continue
		}

		intent := s.policy.Decide(*result)
		if intent == nil {
			continue
		}

		alert := models.Alert{
			ResultID:               result.ID,
			Type:                   models.AlertTypeNegativeSentiment,
			Urgency:                intent.Urgency,
			Message:                intent.Message,
			ResponseRecommendation: s.notifier.GenerateResponseRecommendation(result),
			Status:                 models.AlertStatusActive,
			CreatedAt:              time.Now(),
		}

		id, err := s.store.SaveAlert(&alert)
		if err != nil {
			logrus.Errorf("Failed to save alert for result %d: %v", result.ID, err)
			continue
		}
		alert.ID = id
		created++

		if err := s.notifier.SendAlert(&alert, result); err != nil {
			logrus.Errorf("Failed to send alert %d, it remains active and unnotified: %v", id, err)
			continue
		}

		if err := s.store.MarkNotified(id); err != nil {
			logrus.Errorf("Failed to mark alert %d notified: %v", id, err)
		}
	}

	return created
}

// SendDailySummary aggregates the last 24 hours and delivers the summary.
func (s *Service) SendDailySummary() error {
	stats, err := s.store.Statistics(1)
	if err != nil {
		return fmt.Errorf("failed to load summary statistics: %w", err)
	}

	critical, err := s.store.ActiveAlerts(models.UrgencyCritical)
	if err != nil {
		return fmt.Errorf("failed to load critical alerts: %w", err)
	}

	high, err := s.store.ActiveAlerts(models.UrgencyHigh)
	if err != nil {
		return fmt.Errorf("failed to load high alerts: %w", err)
	}

	summary := &models.SummaryData{
		GeneratedAt:      time.Now(),
		TotalMentions:    stats.TotalMentions,
		NegativeMentions: stats.CategoryCounts[models.CategoryNegative] + stats.CategoryCounts[models.CategoryVeryNegative],
		TotalAlerts:      stats.TotalAlerts,
		CriticalAlerts:   len(critical),
		HighAlerts:       len(high),
		SourceCounts:     stats.SourceCounts,
		RecentCritical:   append(critical, high...),
	}

	if err := s.notifier.SendSummary(summary); err != nil {
		return fmt.Errorf("failed to send daily summary: %w", err)
	}

	logrus.Info("Daily summary sent")
	return nil
}

// RunRetentionCleanup archives aged results (when an archive is configured)
// and purges them from the store. When the archive upload fails the purge is
// skipped so no history is lost.
func (s *Service) RunRetentionCleanup() error {
	retention := time.Duration(s.config.RetentionDays) * 24 * time.Hour
	cutoff := time.Now().Add(-retention)

	if s.archive != nil {
		aged, err := s.store.ResultsOlderThan(cutoff, 10000)
		if err != nil {
			return fmt.Errorf("failed to load aged results: %w", err)
		}

		if len(aged) > 0 {
			data, err := json.Marshal(aged)
			if err != nil {
				return fmt.Errorf("failed to marshal archive snapshot: %w", err)
			}

			name := fmt.Sprintf("purged/%s-results.json", time.Now().Format("2006-01-02-15-04-05"))
			if err := s.archive.Store(name, data); err != nil {
				return fmt.Errorf("archive upload failed, skipping purge: %w", err)
			}
		}
	}

	purged, err := s.store.PurgeOlderThan(retention)
	if err != nil {
		return fmt.Errorf("failed to purge aged results: %w", err)
	}

	logrus.Infof("Retention cleanup completed: %d results purged", purged)
	return nil
}

// ManualScan runs a one-off collection cycle, optionally restricted to a
// single brand. Used by the API trigger endpoint.
func (s *Service) ManualScan(ctx context.Context, brand string) *ScanResult {
	brands := s.config.Brands
	if brand != "" {
		brands = []string{brand}
	}

	logrus.Infof("Starting manual scan for %v", brands)

	mentions, enabled, failed := s.collectMentions(ctx, brands)
	if enabled > 0 && failed == enabled {
		return &ScanResult{
			Success: false,
			Brands:  brands,
			Error:   fmt.Sprintf("all %d enabled sources failed", enabled),
		}
	}

	results := s.scoreAndStore(mentions)
	alertsCreated := s.processAlerts(results)

	negative := 0
	for _, result := range results {
		if result.IsNegative {
			negative++
		}
	}

	return &ScanResult{
		Success:       true,
		Brands:        brands,
		ItemsFound:    len(mentions),
		ItemsAnalyzed: len(results),
		NegativeItems: negative,
		AlertsCreated: alertsCreated,
	}
}

func (s *Service) updateMetrics(mentions []models.Mention, results []models.SentimentResult, alertsCreated int, duration time.Duration, sourceFailures int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.CyclesCompleted++
	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.MentionsCollected = len(mentions)
	s.metrics.ResultsStored = len(results)
	s.metrics.AlertsCreated = alertsCreated
	s.metrics.ErrorCount += sourceFailures
	s.metrics.ConsecutiveFailures = 0

	s.metrics.SourceMetrics = make(map[string]int)
	s.metrics.SentimentBreakdown = make(map[string]int)
	for _, result := range results {
		s.metrics.SourceMetrics[result.Source]++
		s.metrics.SentimentBreakdown[result.Category]++
	}
}

func (s *Service) recordCycleFailure(sourceFailures int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.ErrorCount += sourceFailures
	s.metrics.ConsecutiveFailures++
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

// ActiveAlerts exposes the store's active alert listing to the API layer.
func (s *Service) ActiveAlerts(urgency string) ([]models.Alert, error) {
	return s.store.ActiveAlerts(urgency)
}

// ResolveAlert exposes alert resolution to the API layer.
func (s *Service) ResolveAlert(alertID int64) error {
	return s.store.ResolveAlert(alertID)
}

// Statistics exposes aggregate statistics to the API layer.
func (s *Service) Statistics(days int) (*models.Statistics, error) {
	return s.store.Statistics(days)
}

// RecentNegative exposes recent negative results to the API layer.
func (s *Service) RecentNegative(since time.Time, limit int) ([]models.SentimentResult, error) {
	return s.store.RecentNegative(since, limit)
}

// Close releases the store held by the pipeline.
func (s *Service) Close() error {
	return s.store.Close()
}
