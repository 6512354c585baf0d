package notifications

import "github.com/brandsentry/sentiment-bot/internal/models"

// NotificationInterface defines the contract for delivering alerts and
// summaries to human channels.
type NotificationInterface interface {
	SendAlert(alert *models.Alert, result *models.SentimentResult) error
	SendSummary(summary *models.SummaryData) error
	GenerateResponseRecommendation(result *models.SentimentResult) string
}
