package sources

import (
	"testing"

	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSourceEnablement(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		enabled bool
	}{
		{"Reddit with credentials", NewRedditSource("id", "secret"), true},
		{"Reddit without credentials", NewRedditSource("", ""), false},
		{"Hacker News always enabled", NewHackerNewsSource(), true},
		{"Twitter with token", NewTwitterSource("token"), true},
		{"Twitter without token", NewTwitterSource(""), false},
		{"Reviews with URL", NewReviewsSource("https://api.example.com", "key"), true},
		{"Reviews without URL", NewReviewsSource("", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.enabled, tt.source.IsEnabled())
		})
	}
}

func TestSourceNames(t *testing.T) {
	assert.Equal(t, "reddit", NewRedditSource("", "").GetName())
	assert.Equal(t, "hackernews", NewHackerNewsSource().GetName())
	assert.Equal(t, "twitter", NewTwitterSource("").GetName())
	assert.Equal(t, "reviews", NewReviewsSource("", "").GetName())
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		terms    []string
		expected bool
	}{
		{"case insensitive match", "Acme Widgets broke again", []string{"acme widgets"}, true},
		{"no match", "totally unrelated post", []string{"acme"}, false},
		{"second term matches", "the support team never replied", []string{"acme", "support"}, true},
		{"empty terms never match", "anything", []string{""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, containsAny(tt.text, tt.terms))
		})
	}
}

func TestDeduplicateByURL(t *testing.T) {
	mentions := []models.Mention{
		{Text: "first", URL: "https://example.com/a"},
		{Text: "duplicate", URL: "https://example.com/a"},
		{Text: "second", URL: "https://example.com/b"},
		{Text: "no url kept"},
		{Text: "another no url kept"},
	}

	unique := deduplicateByURL(mentions)
	assert.Len(t, unique, 4)
	assert.Equal(t, "first", unique[0].Text)
	assert.Equal(t, "second", unique[1].Text)
}
