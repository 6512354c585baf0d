package main

import (
	"fmt"
	"os"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/alerting"
	"github.com/brandsentry/sentiment-bot/internal/config"
	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/brandsentry/sentiment-bot/internal/sentiment"
	"github.com/brandsentry/sentiment-bot/internal/sources"
	"github.com/brandsentry/sentiment-bot/internal/storage"
	"github.com/joho/godotenv"
)

// Standalone system check: verifies the configured components (database,
// sources, notification channels), then runs the ensemble over the given
// texts (or a built-in sample set) and prints scores and alert decisions.
// Nothing is persisted and no notification is sent.
func main() {
	godotenv.Load()

	threshold := -0.3
	classifierPath := os.Getenv("CLASSIFIER_MODEL_PATH")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Configuration: FAIL (%v)\n", err)
		fmt.Println("Continuing with analyzer defaults.")
	} else {
		fmt.Println("Configuration: OK")
		threshold = cfg.SentimentThreshold
		classifierPath = cfg.ClassifierModelPath
		checkComponents(cfg)
	}
	fmt.Println()

	analyzer := sentiment.NewAnalyzer(classifierPath)
	policy := alerting.NewPolicy(threshold)

	fmt.Printf("Classifier model loaded: %v\n\n", analyzer.ClassifierAvailable())

	texts := os.Args[1:]
	if len(texts) == 0 {
		texts = []string{
			"This product is amazing, best purchase I've made all year!",
			"The service was okay, nothing special.",
			"Terrible experience, I want a refund immediately. Worst support ever.",
			"Having issues with my account, can someone help?",
			"Absolutely horrible. I'm going to talk to my lawyer about this.",
		}
	}

	for i, text := range texts {
		result := analyzer.Analyze(models.Mention{
			Text:      text,
			Source:    "test-scan",
			Timestamp: time.Now(),
		})

		fmt.Printf("[%d] %q\n", i+1, text)
		fmt.Printf("    score=%.3f category=%s confidence=%.3f urgency=%s\n",
			result.Score, result.Category, result.Confidence, result.Urgency)
		fmt.Printf("    lexicon=%.3f pattern=%.3f", result.LexiconScore, result.PatternScore)
		if result.ClassifierScore != nil {
			fmt.Printf(" classifier=%.3f", *result.ClassifierScore)
		}
		fmt.Println()

		if intent := policy.Decide(result); intent != nil {
			fmt.Printf("    ALERT (%s): %s\n", intent.Urgency, intent.Message)
		} else {
			fmt.Println("    no alert")
		}
		fmt.Println()
	}
}

func checkComponents(cfg *config.Config) {
	store, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		fmt.Printf("Database (%s): FAIL (%v)\n", cfg.DatabasePath, err)
	} else {
		fmt.Printf("Database (%s): OK\n", cfg.DatabasePath)
		store.Close()
	}

	srcs := []sources.Source{
		sources.NewReviewsSource(cfg.ReviewsAPIURL, cfg.ReviewsAPIKey),
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret),
		sources.NewTwitterSource(cfg.TwitterBearerToken),
		sources.NewHackerNewsSource(),
	}
	for _, src := range srcs {
		state := "disabled (missing credentials)"
		if src.IsEnabled() {
			state = "enabled"
		}
		fmt.Printf("Source %s: %s\n", src.GetName(), state)
	}

	if cfg.TeamsWebhookURL != "" {
		fmt.Println("Notifications: Teams webhook configured")
	}
	if cfg.AlertEmail != "" {
		fmt.Printf("Notifications: email to %s via %s:%d\n", cfg.AlertEmail, cfg.SMTPHost, cfg.SMTPPort)
	}

	if cfg.StorageAccount != "" {
		fmt.Printf("Archive: Azure account %s, container %s\n", cfg.StorageAccount, cfg.StorageContainer)
	} else {
		fmt.Println("Archive: not configured, purged history is discarded")
	}
}
