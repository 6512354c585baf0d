package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO required
)

// SQLiteStore persists sentiment results and alerts in SQLite.
// All methods are safe for concurrent use via an internal mutex.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Ensure SQLiteStore implements StoreInterface
var _ StoreInterface = (*SQLiteStore)(nil)

// Timestamps are stored as RFC3339 text with a fixed-width fraction so range
// comparisons stay lexicographic, matching column ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// OpenSQLite opens (and if needed creates) the database at path.
// ":memory:" opens a shared in-memory database for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	store := &SQLiteStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logrus.Infof("SQLite store opened at %s", path)
	return store, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sentiment_analysis (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		sentiment_score REAL NOT NULL,
		sentiment_category TEXT NOT NULL,
		confidence REAL NOT NULL,
		is_negative INTEGER NOT NULL,
		urgency_level TEXT NOT NULL,
		source TEXT NOT NULL,
		source_url TEXT,
		author TEXT,
		timestamp TEXT NOT NULL,
		analysis_timestamp TEXT NOT NULL,
		lexicon_score REAL,
		pattern_score REAL,
		classifier_score REAL,
		metadata TEXT
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sentiment_id INTEGER NOT NULL,
		alert_type TEXT NOT NULL,
		urgency_level TEXT NOT NULL,
		message TEXT NOT NULL,
		response_recommendation TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		notified INTEGER NOT NULL DEFAULT 0,
		notified_at TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (sentiment_id) REFERENCES sentiment_analysis (id)
	);

	CREATE INDEX IF NOT EXISTS idx_sentiment_timestamp ON sentiment_analysis(timestamp);
	CREATE INDEX IF NOT EXISTS idx_sentiment_score ON sentiment_analysis(sentiment_score);
	CREATE INDEX IF NOT EXISTS idx_sentiment_source ON sentiment_analysis(source);
	CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
	CREATE INDEX IF NOT EXISTS idx_alerts_urgency ON alerts(urgency_level);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SaveResult inserts a sentiment result and returns its assigned id.
func (s *SQLiteStore) SaveResult(result *models.SentimentResult) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadata, err := json.Marshal(result.Metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var classifierScore interface{}
	if result.ClassifierScore != nil {
		classifierScore = *result.ClassifierScore
	}

	res, err := s.db.Exec(`
		INSERT INTO sentiment_analysis (
			text, sentiment_score, sentiment_category, confidence,
			is_negative, urgency_level, source, source_url, author,
			timestamp, analysis_timestamp, lexicon_score, pattern_score,
			classifier_score, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Text, result.Score, result.Category, result.Confidence,
		result.IsNegative, result.Urgency, result.Source, result.URL,
		result.Author, result.Timestamp.UTC().Format(timeFormat),
		result.AnalyzedAt.UTC().Format(timeFormat),
		result.LexiconScore, result.PatternScore, classifierScore,
		string(metadata),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sentiment result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}

	logrus.Debugf("Stored sentiment result %d from %s", id, result.Source)
	return id, nil
}

// SaveAlert inserts an alert and returns its assigned id.
func (s *SQLiteStore) SaveAlert(alert *models.Alert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := alert.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.Exec(`
		INSERT INTO alerts (
			sentiment_id, alert_type, urgency_level, message,
			response_recommendation, status, notified, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ResultID, alert.Type, alert.Urgency, alert.Message,
		alert.ResponseRecommendation, models.AlertStatusActive, false,
		createdAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}

	logrus.Infof("Created alert %d for sentiment result %d", id, alert.ResultID)
	return id, nil
}

// MarkNotified records a successful notification delivery for an alert.
func (s *SQLiteStore) MarkNotified(alertID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE alerts SET notified = 1, notified_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat), alertID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark alert %d notified: %w", alertID, err)
	}
	return nil
}

// ResolveAlert transitions an alert from active to resolved.
func (s *SQLiteStore) ResolveAlert(alertID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE alerts SET status = ? WHERE id = ? AND status = ?`,
		models.AlertStatusResolved, alertID, models.AlertStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve alert %d: %w", alertID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert %d not found or not active", alertID)
	}

	logrus.Infof("Resolved alert %d", alertID)
	return nil
}

// ActiveAlerts returns active alerts newest first, joined with the
// originating result's text, source and score. An empty urgency matches all.
func (s *SQLiteStore) ActiveAlerts(urgency string) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT a.id, a.sentiment_id, a.alert_type, a.urgency_level, a.message,
		       a.response_recommendation, a.status, a.notified, a.notified_at,
		       a.created_at, s.text, s.source, s.sentiment_score
		FROM alerts a
		JOIN sentiment_analysis s ON a.sentiment_id = s.id
		WHERE a.status = ?`
	args := []interface{}{models.AlertStatusActive}

	if urgency != "" {
		query += " AND a.urgency_level = ?"
		args = append(args, urgency)
	}
	query += " ORDER BY a.created_at DESC, a.id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var alert models.Alert
		var recommendation, notifiedAt sql.NullString
		var createdAt string

		if err := rows.Scan(
			&alert.ID, &alert.ResultID, &alert.Type, &alert.Urgency,
			&alert.Message, &recommendation, &alert.Status, &alert.Notified,
			&notifiedAt, &createdAt, &alert.Text, &alert.Source, &alert.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		alert.ResponseRecommendation = recommendation.String
		alert.CreatedAt = parseTime(createdAt)
		if notifiedAt.Valid {
			t := parseTime(notifiedAt.String)
			alert.NotifiedAt = &t
		}

		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// RecentNegative returns negative results since the cutoff, most negative
// first, newest breaking ties.
func (s *SQLiteStore) RecentNegative(since time.Time, limit int) ([]models.SentimentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(resultColumns+`
		FROM sentiment_analysis
		WHERE is_negative = 1 AND timestamp >= ?
		ORDER BY sentiment_score ASC, timestamp DESC
		LIMIT ?`,
		since.UTC().Format(timeFormat), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent negative results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// ResultsOlderThan returns stored results with timestamps before the cutoff,
// oldest first. Used by the retention job to archive before purging.
func (s *SQLiteStore) ResultsOlderThan(cutoff time.Time, limit int) ([]models.SentimentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(resultColumns+`
		FROM sentiment_analysis
		WHERE timestamp < ?
		ORDER BY timestamp ASC
		LIMIT ?`,
		cutoff.UTC().Format(timeFormat), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query aged results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// Statistics aggregates stored results and alerts over the trailing period.
func (s *SQLiteStore) Statistics(days int) (*models.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().AddDate(0, 0, -days).UTC().Format(timeFormat)
	stats := &models.Statistics{
		CategoryCounts: make(map[string]int),
		SourceCounts:   make(map[string]int),
		UrgencyCounts:  make(map[string]int),
		PeriodDays:     days,
	}

	if err := s.countGroups(`
		SELECT sentiment_category, COUNT(*) FROM sentiment_analysis
		WHERE timestamp >= ? GROUP BY sentiment_category`,
		cutoff, stats.CategoryCounts); err != nil {
		return nil, err
	}

	if err := s.countGroups(`
		SELECT source, COUNT(*) FROM sentiment_analysis
		WHERE timestamp >= ? GROUP BY source`,
		cutoff, stats.SourceCounts); err != nil {
		return nil, err
	}

	if err := s.countGroups(`
		SELECT urgency_level, COUNT(*) FROM sentiment_analysis
		WHERE timestamp >= ? AND is_negative = 1 GROUP BY urgency_level`,
		cutoff, stats.UrgencyCounts); err != nil {
		return nil, err
	}

	for _, count := range stats.CategoryCounts {
		stats.TotalMentions += count
	}

	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(notified), 0) FROM alerts
		WHERE created_at >= ?`, cutoff,
	).Scan(&stats.TotalAlerts, &stats.AlertsNotified)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert statistics: %w", err)
	}

	return stats, nil
}

// PurgeOlderThan deletes results older than age, together with the alerts
// that reference them. Results still referenced by an active alert are kept
// so no alert is left dangling; their purge happens after resolution.
// Returns the number of results deleted.
func (s *SQLiteStore) PurgeOlderThan(age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-age).UTC().Format(timeFormat)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin purge transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM alerts WHERE status != ? AND sentiment_id IN (
			SELECT id FROM sentiment_analysis WHERE timestamp < ?
		)`, models.AlertStatusActive, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge resolved alerts: %w", err)
	}

	res, err := tx.Exec(`
		DELETE FROM sentiment_analysis WHERE timestamp < ? AND id NOT IN (
			SELECT sentiment_id FROM alerts WHERE status = ?
		)`, cutoff, models.AlertStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to purge aged results: %w", err)
	}

	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}

	logrus.Infof("Purged %d sentiment results older than %v", purged, age)
	return purged, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

const resultColumns = `
	SELECT id, text, sentiment_score, sentiment_category, confidence,
	       is_negative, urgency_level, source, source_url, author,
	       timestamp, analysis_timestamp, lexicon_score, pattern_score,
	       classifier_score, metadata`

func scanResults(rows *sql.Rows) ([]models.SentimentResult, error) {
	var results []models.SentimentResult

	for rows.Next() {
		var result models.SentimentResult
		var url, author, metadata sql.NullString
		var classifierScore sql.NullFloat64
		var timestamp, analyzedAt string

		if err := rows.Scan(
			&result.ID, &result.Text, &result.Score, &result.Category,
			&result.Confidence, &result.IsNegative, &result.Urgency,
			&result.Source, &url, &author, &timestamp, &analyzedAt,
			&result.LexiconScore, &result.PatternScore, &classifierScore,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment result: %w", err)
		}

		result.URL = url.String
		result.Author = author.String
		result.Timestamp = parseTime(timestamp)
		result.AnalyzedAt = parseTime(analyzedAt)

		if classifierScore.Valid {
			score := classifierScore.Float64
			result.ClassifierScore = &score
		}

		if metadata.Valid && metadata.String != "" && metadata.String != "null" {
			if err := json.Unmarshal([]byte(metadata.String), &result.Metadata); err != nil {
				logrus.Warnf("Failed to unmarshal metadata for result %d: %v", result.ID, err)
			}
		}

		results = append(results, result)
	}

	return results, rows.Err()
}

func (s *SQLiteStore) countGroups(query, cutoff string, into map[string]int) error {
	rows, err := s.db.Query(query, cutoff)
	if err != nil {
		return fmt.Errorf("failed to query group counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan group count: %w", err)
		}
		into[key] = count
	}
	return rows.Err()
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
