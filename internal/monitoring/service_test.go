package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/alerting"
	"github.com/brandsentry/sentiment-bot/internal/config"
	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/brandsentry/sentiment-bot/internal/sentiment"
	"github.com/brandsentry/sentiment-bot/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveResult(result *models.SentimentResult) (int64, error) {
	args := m.Called(result)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) SaveAlert(alert *models.Alert) (int64, error) {
	args := m.Called(alert)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) MarkNotified(alertID int64) error {
	args := m.Called(alertID)
	return args.Error(0)
}

func (m *MockStore) ResolveAlert(alertID int64) error {
	args := m.Called(alertID)
	return args.Error(0)
}

func (m *MockStore) ActiveAlerts(urgency string) ([]models.Alert, error) {
	args := m.Called(urgency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Alert), args.Error(1)
}

func (m *MockStore) RecentNegative(since time.Time, limit int) ([]models.SentimentResult, error) {
	args := m.Called(since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SentimentResult), args.Error(1)
}

func (m *MockStore) Statistics(days int) (*models.Statistics, error) {
	args := m.Called(days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Statistics), args.Error(1)
}

func (m *MockStore) ResultsOlderThan(cutoff time.Time, limit int) ([]models.SentimentResult, error) {
	args := m.Called(cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SentimentResult), args.Error(1)
}

func (m *MockStore) PurgeOlderThan(age time.Duration) (int64, error) {
	args := m.Called(age)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendAlert(alert *models.Alert, result *models.SentimentResult) error {
	args := m.Called(alert, result)
	return args.Error(0)
}

func (m *MockNotifier) SendSummary(summary *models.SummaryData) error {
	args := m.Called(summary)
	return args.Error(0)
}

func (m *MockNotifier) GenerateResponseRecommendation(result *models.SentimentResult) string {
	args := m.Called(result)
	return args.String(0)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Store(name string, data []byte) error {
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockArchive) Retrieve(name string) ([]byte, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArchive) List(prefix string) ([]string, error) {
	args := m.Called(prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type fakeSource struct {
	name     string
	enabled  bool
	mentions []models.Mention
	err      error
}

func (f *fakeSource) GetName() string { return f.name }
func (f *fakeSource) IsEnabled() bool { return f.enabled }
func (f *fakeSource) FetchMentions(ctx context.Context, brands, keywords []string, window time.Duration) ([]models.Mention, error) {
	return f.mentions, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		MonitoringInterval: 5 * time.Minute,
		SentimentThreshold: -0.3,
		RetentionDays:      30,
		Brands:             []string{"TestBrand"},
	}
}

func newTestService(store *MockStore, notifier *MockNotifier, srcs ...sources.Source) *Service {
	cfg := testConfig()
	return &Service{
		config:   cfg,
		store:    store,
		notifier: notifier,
		analyzer: sentiment.NewAnalyzer(""),
		policy:   alerting.NewPolicy(cfg.SentimentThreshold),
		sources:  srcs,
		metrics: &Metrics{
			SourceMetrics:      make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
	}
}

func TestCollectMentionsIsolatesSourceFailure(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)

	healthy := &fakeSource{
		name:    "reddit",
		enabled: true,
		mentions: []models.Mention{
			{Text: "TestBrand works well", Source: "reddit", URL: "https://example.com/1"},
			{Text: "TestBrand support was slow", Source: "reddit", URL: "https://example.com/2"},
		},
	}
	broken := &fakeSource{name: "twitter", enabled: true, err: errors.New("rate limited")}
	disabled := &fakeSource{name: "reviews", enabled: false, err: errors.New("must never run")}

	service := newTestService(store, notifier, healthy, broken, disabled)

	mentions, enabled, failed := service.collectMentions(context.Background(), []string{"TestBrand"})

	assert.Len(t, mentions, 2)
	assert.Equal(t, 2, enabled)
	assert.Equal(t, 1, failed)
}

func TestRunCycleAllSourcesFailed(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)

	service := newTestService(store, notifier,
		&fakeSource{name: "reddit", enabled: true, err: errors.New("auth failed")},
		&fakeSource{name: "twitter", enabled: true, err: errors.New("rate limited")},
	)

	err := service.RunCycle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, service.metrics.ConsecutiveFailures)
	assert.Equal(t, 2, service.metrics.ErrorCount)
	store.AssertNotCalled(t, "SaveResult", mock.Anything)
}

func TestRunCycleRecoversFailureCounter(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)

	service := newTestService(store, notifier,
		&fakeSource{name: "reddit", enabled: true, err: errors.New("down")},
	)

	assert.Error(t, service.RunCycle(context.Background()))
	assert.Error(t, service.RunCycle(context.Background()))
	assert.Equal(t, 2, service.metrics.ConsecutiveFailures)

	service.sources = []sources.Source{&fakeSource{name: "reddit", enabled: true}}
	assert.NoError(t, service.RunCycle(context.Background()))
	assert.Equal(t, 0, service.metrics.ConsecutiveFailures)
	assert.Equal(t, 1, service.metrics.CyclesCompleted)
}

func TestScoreAndStoreSkipsFailedPersist(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	service := newTestService(store, notifier)

	store.On("SaveResult", mock.MatchedBy(func(r *models.SentimentResult) bool {
		return r.Source == "reddit"
	})).Return(int64(0), errors.New("disk full"))
	store.On("SaveResult", mock.MatchedBy(func(r *models.SentimentResult) bool {
		return r.Source == "hackernews"
	})).Return(int64(7), nil)

	results := service.scoreAndStore([]models.Mention{
		{Text: "first mention", Source: "reddit"},
		{Text: "second mention", Source: "hackernews"},
	})

	assert.Len(t, results, 1)
	assert.Equal(t, int64(7), results[0].ID)
	assert.Equal(t, "hackernews", results[0].Source)
	store.AssertNumberOfCalls(t, "SaveResult", 2)
}

func TestProcessAlertsCreatesAndNotifies(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	service := newTestService(store, notifier)

	result := models.SentimentResult{
		ID:         42,
		Text:       "this is terrible, I want a refund",
		Score:      -0.75,
		Confidence: 0.9,
		Category:   models.CategoryNegative,
		IsNegative: true,
		Urgency:    models.UrgencyCritical,
		Source:     "reddit",
	}

	notifier.On("GenerateResponseRecommendation", mock.Anything).Return("Respond within 1 hour.")
	store.On("SaveAlert", mock.MatchedBy(func(a *models.Alert) bool {
		return a.ResultID == 42 &&
			a.Type == models.AlertTypeNegativeSentiment &&
			a.Urgency == models.UrgencyCritical &&
			a.Status == models.AlertStatusActive
	})).Return(int64(5), nil)
	notifier.On("SendAlert", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkNotified", int64(5)).Return(nil)

	created := service.processAlerts([]models.SentimentResult{result})

	assert.Equal(t, 1, created)
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestProcessAlertsNotifierFailureLeavesAlertActive(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	service := newTestService(store, notifier)

	result := models.SentimentResult{
		ID:         9,
		Score:      -0.5,
		Confidence: 0.8,
		IsNegative: true,
		Urgency:    models.UrgencyMedium,
		Source:     "twitter",
	}

	notifier.On("GenerateResponseRecommendation", mock.Anything).Return("Respond within 24 hours.")
	store.On("SaveAlert", mock.Anything).Return(int64(3), nil)
	notifier.On("SendAlert", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	created := service.processAlerts([]models.SentimentResult{result})

	// The alert exists and stays active; delivery failure never drops it.
	assert.Equal(t, 1, created)
	store.AssertNotCalled(t, "MarkNotified", mock.Anything)
}

func TestProcessAlertsSkipsNonQualifyingResults(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	service := newTestService(store, notifier)

	results := []models.SentimentResult{
		{ID: 1, Score: 0.5, Confidence: 0.9, IsNegative: false, Urgency: models.UrgencyLow},
		// Negative but below the confidence floor and only low urgency.
		{ID: 2, Score: -0.4, Confidence: 0.3, IsNegative: true, Urgency: models.UrgencyLow},
	}

	created := service.processAlerts(results)

	assert.Equal(t, 0, created)
	store.AssertNotCalled(t, "SaveAlert", mock.Anything)
	notifier.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
}

func TestSendDailySummary(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	service := newTestService(store, notifier)

	store.On("Statistics", 1).Return(&models.Statistics{
		TotalMentions: 40,
		TotalAlerts:   6,
		CategoryCounts: map[string]int{
			models.CategoryNegative:     5,
			models.CategoryVeryNegative: 2,
			models.CategoryPositive:     20,
		},
		SourceCounts: map[string]int{"reddit": 30, "twitter": 10},
	}, nil)
	store.On("ActiveAlerts", models.UrgencyCritical).Return([]models.Alert{{ID: 1}}, nil)
	store.On("ActiveAlerts", models.UrgencyHigh).Return([]models.Alert{{ID: 2}, {ID: 3}}, nil)

	var captured *models.SummaryData
	notifier.On("SendSummary", mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*models.SummaryData)
	}).Return(nil)

	assert.NoError(t, service.SendDailySummary())
	assert.NotNil(t, captured)
	assert.Equal(t, 40, captured.TotalMentions)
	assert.Equal(t, 7, captured.NegativeMentions)
	assert.Equal(t, 1, captured.CriticalAlerts)
	assert.Equal(t, 2, captured.HighAlerts)
	assert.Len(t, captured.RecentCritical, 3)
}

func TestRunRetentionCleanupArchiveFailureSkipsPurge(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	archive := new(MockArchive)
	service := newTestService(store, notifier)
	service.archive = archive

	store.On("ResultsOlderThan", mock.Anything, mock.Anything).Return([]models.SentimentResult{{ID: 1}}, nil)
	archive.On("Store", mock.Anything, mock.Anything).Return(errors.New("blob unreachable"))

	assert.Error(t, service.RunRetentionCleanup())
	store.AssertNotCalled(t, "PurgeOlderThan", mock.Anything)
}

func TestRunRetentionCleanupWithoutArchive(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	service := newTestService(store, notifier)

	store.On("PurgeOlderThan", 30*24*time.Hour).Return(int64(12), nil)

	assert.NoError(t, service.RunRetentionCleanup())
	store.AssertNotCalled(t, "ResultsOlderThan", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestManualScanSingleBrand(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)

	var seenBrands []string
	source := &brandRecordingSource{fakeSource: fakeSource{
		name:    "reddit",
		enabled: true,
		mentions: []models.Mention{
			{Text: "OtherBrand is great and I love it", Source: "reddit"},
		},
	}, brands: &seenBrands}

	service := newTestService(store, notifier, source)
	store.On("SaveResult", mock.Anything).Return(int64(1), nil)

	scan := service.ManualScan(context.Background(), "OtherBrand")

	assert.True(t, scan.Success)
	assert.Equal(t, []string{"OtherBrand"}, scan.Brands)
	assert.Equal(t, []string{"OtherBrand"}, seenBrands)
	assert.Equal(t, 1, scan.ItemsFound)
	assert.Equal(t, 1, scan.ItemsAnalyzed)
}

type brandRecordingSource struct {
	fakeSource
	brands *[]string
}

func (b *brandRecordingSource) FetchMentions(ctx context.Context, brands, keywords []string, window time.Duration) ([]models.Mention, error) {
	*b.brands = brands
	return b.fakeSource.FetchMentions(ctx, brands, keywords, window)
}
