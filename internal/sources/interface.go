package sources

import (
	"context"
	"strings"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/models"
)

// Source defines the contract for all mention collectors. Implementations
// must tolerate partial failure internally (skip a failed query, keep the
// rest); a returned error marks the whole source as failed for the cycle.
type Source interface {
	GetName() string
	IsEnabled() bool
	FetchMentions(ctx context.Context, brands, keywords []string, window time.Duration) ([]models.Mention, error)
}

// deduplicateByURL drops mentions whose URL was already seen. Mentions
// without a URL are always kept.
func deduplicateByURL(mentions []models.Mention) []models.Mention {
	seen := make(map[string]bool)
	var unique []models.Mention

	for _, mention := range mentions {
		if mention.URL != "" && seen[mention.URL] {
			continue
		}
		seen[mention.URL] = true
		unique = append(unique, mention)
	}

	return unique
}

// containsAny reports whether text contains any of the terms,
// case-insensitively.
func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
