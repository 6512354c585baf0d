package storage

import (
	"time"

	"github.com/brandsentry/sentiment-bot/internal/models"
)

// StoreInterface defines the persistence contract for sentiment results and
// alerts. Implementations must be safe for concurrent use: the monitoring
// loop writes while the HTTP layer reads.
type StoreInterface interface {
	SaveResult(result *models.SentimentResult) (int64, error)
	SaveAlert(alert *models.Alert) (int64, error)
	MarkNotified(alertID int64) error
	ResolveAlert(alertID int64) error
	ActiveAlerts(urgency string) ([]models.Alert, error)
	RecentNegative(since time.Time, limit int) ([]models.SentimentResult, error)
	Statistics(days int) (*models.Statistics, error)
	ResultsOlderThan(cutoff time.Time, limit int) ([]models.SentimentResult, error)
	PurgeOlderThan(age time.Duration) (int64, error)
	Close() error
}

// ArchiveInterface is the contract for the optional long-term archive that
// receives purged history and generated summaries.
type ArchiveInterface interface {
	Store(name string, data []byte) error
	Retrieve(name string) ([]byte, error)
	List(prefix string) ([]string, error)
}
