package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"encoding/json"

	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// TwitterSource searches recent tweets for brand mentions.
type TwitterSource struct {
	bearerToken string
	client      *resty.Client
}

type twitterSearchResponse struct {
	Data []twitterTweet `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

type twitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		LikeCount    int `json:"like_count"`
		ReplyCount   int `json:"reply_count"`
	} `json:"public_metrics"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

// NewTwitterSource creates a new Twitter source
func NewTwitterSource(bearerToken string) *TwitterSource {
	return &TwitterSource{
		bearerToken: bearerToken,
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "sentiment-bot/1.0"),
	}
}

func (t *TwitterSource) GetName() string {
	return "twitter"
}

func (t *TwitterSource) IsEnabled() bool {
	return t.bearerToken != ""
}

func (t *TwitterSource) FetchMentions(ctx context.Context, brands, keywords []string, window time.Duration) ([]models.Mention, error) {
	if !t.IsEnabled() {
		logrus.Debug("Twitter source disabled - missing bearer token")
		return nil, nil
	}

	var allMentions []models.Mention

	for i, brand := range brands {
		// Space out searches to stay under the rate limit.
		if i > 0 {
			select {
			case <-ctx.Done():
				return allMentions, ctx.Err()
			case <-time.After(3 * time.Second):
			}
		}

		mentions, err := t.searchBrand(ctx, brand, window)
		if err != nil {
			logrus.Errorf("Failed to search Twitter for brand '%s': %v", brand, err)
			continue
		}

		allMentions = append(allMentions, mentions...)
	}

	return deduplicateByURL(allMentions), nil
}

func (t *TwitterSource) searchBrand(ctx context.Context, brand string, window time.Duration) ([]models.Mention, error) {
	startTime := time.Now().Add(-window).Format(time.RFC3339)
	query := url.QueryEscape(fmt.Sprintf("%q -is:retweet", brand))

	searchURL := fmt.Sprintf(
		"https://api.twitter.com/2/tweets/search/recent?query=%s&start_time=%s&max_results=100&tweet.fields=created_at,author_id,public_metrics,referenced_tweets",
		query, startTime)

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.bearerToken).
		Get(searchURL)

	if err != nil {
		return nil, err
	}

	// Rate limited: return nothing for this brand rather than blocking the
	// cycle; other brands and sources still proceed.
	if resp.StatusCode() == 429 {
		logrus.Warnf("Twitter API rate limit hit for brand '%s' - skipping this cycle", brand)
		return nil, nil
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("twitter API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Twitter response: %w", err)
	}

	var mentions []models.Mention

	for _, tweet := range searchResp.Data {
		if t.isRetweet(tweet) {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			logrus.Debugf("Failed to parse Twitter timestamp: %v", err)
			createdAt = time.Now()
		}

		mentions = append(mentions, models.Mention{
			Text:      tweet.Text,
			Source:    "twitter",
			URL:       fmt.Sprintf("https://twitter.com/i/status/%s", tweet.ID),
			Author:    tweet.AuthorID,
			Timestamp: createdAt,
			Metadata: map[string]interface{}{
				"retweet_count":  tweet.PublicMetrics.RetweetCount,
				"favorite_count": tweet.PublicMetrics.LikeCount,
				"reply_count":    tweet.PublicMetrics.ReplyCount,
			},
		})
	}

	return mentions, nil
}

func (t *TwitterSource) isRetweet(tweet twitterTweet) bool {
	for _, ref := range tweet.ReferencedTweets {
		if ref.Type == "retweeted" {
			return true
		}
	}
	return false
}
