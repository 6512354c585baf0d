package models

import "time"

// Sentiment categories, derived from the ensemble score via fixed breakpoints.
const (
	CategoryVeryNegative = "very_negative"
	CategoryNegative     = "negative"
	CategoryNeutral      = "neutral"
	CategoryPositive     = "positive"
	CategoryVeryPositive = "very_positive"
)

// Urgency levels driving alerting and response speed.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Alert status values. The transition is one-way: active -> resolved.
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

// AlertTypeNegativeSentiment is the only alert type the pipeline creates today.
const AlertTypeNegativeSentiment = "negative_sentiment"

// Mention represents one observed piece of text about a monitored brand.
// Mentions are immutable once collected.
type Mention struct {
	Text      string                 `json:"text"`
	Source    string                 `json:"source"` // "reddit", "hackernews", "reviews", etc.
	URL       string                 `json:"url,omitempty"`
	Author    string                 `json:"author,omitempty"`
	Timestamp time.Time              `json:"timestamp"`          // collection time when the source omits it
	Metadata  map[string]interface{} `json:"metadata,omitempty"` // ratings, engagement counters; opaque to the core
}

// SentimentResult is the ensemble scoring output for a single mention.
type SentimentResult struct {
	ID         int64   `json:"id,omitempty"` // assigned by the store
	Text       string  `json:"text"`
	Score      float64 `json:"sentiment_score"` // [-1, 1], rounded to 3 decimals
	Category   string  `json:"sentiment_category"`
	Confidence float64 `json:"confidence"` // [0, 1]
	IsNegative bool    `json:"is_negative"`
	Urgency    string  `json:"urgency_level"`

	// Raw per-model sub-scores kept for audit. ClassifierScore is nil when
	// the optional classifier model is unavailable.
	LexiconScore    float64  `json:"lexicon_score"`
	PatternScore    float64  `json:"pattern_score"`
	ClassifierScore *float64 `json:"classifier_score,omitempty"`

	Source     string                 `json:"source"`
	URL        string                 `json:"url,omitempty"`
	Author     string                 `json:"author,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	AnalyzedAt time.Time              `json:"analysis_timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Alert is a persisted, actionable record created for a mention judged to
// need a human response. At most one alert exists per sentiment result.
type Alert struct {
	ID                     int64      `json:"id"`
	ResultID               int64      `json:"sentiment_id"`
	Type                   string     `json:"alert_type"`
	Urgency                string     `json:"urgency_level"` // copied from the result at creation, immutable afterward
	Message                string     `json:"message"`
	ResponseRecommendation string     `json:"response_recommendation,omitempty"`
	Status                 string     `json:"status"`
	Notified               bool       `json:"notified"`
	NotifiedAt             *time.Time `json:"notified_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`

	// Joined from the originating result for display; not columns of the
	// alerts table itself.
	Text   string  `json:"text,omitempty"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"sentiment_score,omitempty"`
}

// Statistics aggregates stored results and alerts over a period.
type Statistics struct {
	CategoryCounts map[string]int `json:"category_counts"`
	SourceCounts   map[string]int `json:"source_counts"`
	UrgencyCounts  map[string]int `json:"urgency_counts"` // negative results only
	TotalMentions  int            `json:"total_mentions"`
	TotalAlerts    int            `json:"total_alerts"`
	AlertsNotified int            `json:"alerts_notified"`
	PeriodDays     int            `json:"period_days"`
}

// SummaryData is the payload of the daily summary notification.
type SummaryData struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	TotalMentions    int            `json:"total_mentions"`
	NegativeMentions int            `json:"negative_mentions"`
	TotalAlerts      int            `json:"total_alerts"`
	CriticalAlerts   int            `json:"critical_alerts"`
	HighAlerts       int            `json:"high_alerts"`
	SourceCounts     map[string]int `json:"source_counts"`
	RecentCritical   []Alert        `json:"recent_critical"`
}
