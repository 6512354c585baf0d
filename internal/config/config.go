package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Monitoring configuration
	MonitoringInterval time.Duration // between collection cycles
	SentimentThreshold float64       // alert below this score
	DailySummaryTime   string        // "HH:MM", local time of the daily summary
	RetentionDays      int           // purge stored results older than this

	// Database configuration
	DatabasePath string

	// Optional classifier model. Empty path disables the third ensemble model.
	ClassifierModelPath string

	// Brands and keywords to monitor
	Brands   []string
	Keywords []string

	// Source credentials
	RedditClientID     string
	RedditClientSecret string
	TwitterBearerToken string
	ReviewsAPIURL      string
	ReviewsAPIKey      string

	// Notification configuration
	TeamsWebhookURL string
	AlertEmail      string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string

	// Azure Blob archive for purged history (optional)
	StorageAccount   string
	StorageContainer string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		MonitoringInterval: time.Duration(getIntEnv("MONITORING_INTERVAL", 300)) * time.Second,
		SentimentThreshold: getFloatEnv("SENTIMENT_THRESHOLD", -0.3),
		DailySummaryTime:   getEnv("DAILY_SUMMARY_TIME", "09:00"),
		RetentionDays:      getIntEnv("RETENTION_DAYS", 30),

		DatabasePath:        getEnv("DATABASE_PATH", "sentiment_alerts.db"),
		ClassifierModelPath: getEnv("CLASSIFIER_MODEL_PATH", ""),

		Brands: getSliceEnv("BRAND_NAMES", []string{"YourCompany"}),
		Keywords: getSliceEnv("MONITOR_KEYWORDS", []string{
			"customer service", "support", "complaint", "issue", "problem",
			"refund", "cancel", "dissatisfied", "terrible", "awful", "horrible",
			"worst", "hate", "disappointed", "frustrated", "angry",
		}),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		ReviewsAPIURL:      getEnv("REVIEWS_API_URL", ""),
		ReviewsAPIKey:      getEnv("REVIEWS_API_KEY", ""),

		TeamsWebhookURL: getEnv("TEAMS_WEBHOOK_URL", ""),
		AlertEmail:      getEnv("ALERT_EMAIL", ""),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getIntEnv("SMTP_PORT", 587),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "sentiment-archive"),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.MonitoringInterval <= 0 {
		return fmt.Errorf("MONITORING_INTERVAL must be positive")
	}

	if c.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive")
	}

	if _, _, err := ParseTimeOfDay(c.DailySummaryTime); err != nil {
		return fmt.Errorf("DAILY_SUMMARY_TIME must be HH:MM: %w", err)
	}

	if len(c.Brands) == 0 {
		return fmt.Errorf("at least one brand name must be configured (BRAND_NAMES)")
	}

	if c.TeamsWebhookURL == "" && c.AlertEmail == "" {
		return fmt.Errorf("at least one notification method must be configured (TEAMS_WEBHOOK_URL or ALERT_EMAIL)")
	}

	if c.AlertEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when ALERT_EMAIL is set")
		}
	}

	return nil
}

// ParseTimeOfDay parses an "HH:MM" clock time into hour and minute.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q", value)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}

	return hour, minute, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
