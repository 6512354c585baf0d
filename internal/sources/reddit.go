package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// RedditSource searches Reddit for brand mentions via the OAuth API.
type RedditSource struct {
	clientID     string
	clientSecret string
	client       *resty.Client
	accessToken  string
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(clientID, clientSecret string) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       resty.New().SetTimeout(30 * time.Second),
	}
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

// FetchMentions searches site-wide for each brand name and keeps posts that
// also mention one of the monitored keywords (or the brand alone when no
// keywords are configured). A failed brand search is skipped, not fatal.
func (r *RedditSource) FetchMentions(ctx context.Context, brands, keywords []string, window time.Duration) ([]models.Mention, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials")
		return nil, nil
	}

	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var allMentions []models.Mention

	for _, brand := range brands {
		mentions, err := r.searchBrand(ctx, brand, keywords, window)
		if err != nil {
			logrus.Errorf("Failed to search Reddit for brand '%s': %v", brand, err)
			continue
		}
		allMentions = append(allMentions, mentions...)
	}

	return deduplicateByURL(allMentions), nil
}

func (r *RedditSource) authenticate(ctx context.Context) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", "sentiment-bot/1.0").
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post("https://www.reddit.com/api/v1/access_token")

	if err != nil {
		return err
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return err
	}

	if authResp.AccessToken == "" {
		return fmt.Errorf("reddit returned no access token")
	}

	r.accessToken = authResp.AccessToken
	return nil
}

func (r *RedditSource) searchBrand(ctx context.Context, brand string, keywords []string, window time.Duration) ([]models.Mention, error) {
	searchURL := fmt.Sprintf(
		"https://oauth.reddit.com/search.json?q=%s&sort=new&limit=100&t=week",
		url.QueryEscape(fmt.Sprintf("%q", brand)),
	)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", "sentiment-bot/1.0").
		SetHeader("Authorization", "Bearer "+r.accessToken).
		Get(searchURL)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Reddit response: %w", err)
	}

	cutoff := time.Now().Add(-window)
	var mentions []models.Mention

	for _, child := range searchResp.Data.Children {
		post := child.Data

		createdAt := time.Unix(int64(post.Created), 0)
		if createdAt.Before(cutoff) {
			continue
		}

		text := post.Title
		if post.Selftext != "" {
			text += " " + post.Selftext
		}

		if !containsAny(text, []string{brand}) {
			continue
		}
		if len(keywords) > 0 && !containsAny(text, keywords) {
			continue
		}

		mentions = append(mentions, models.Mention{
			Text:      text,
			Source:    "reddit",
			URL:       "https://www.reddit.com" + post.Permalink,
			Author:    post.Author,
			Timestamp: createdAt,
			Metadata: map[string]interface{}{
				"subreddit":     post.Subreddit,
				"score":         post.Score,
				"comment_count": post.NumComments,
			},
		})
	}

	return mentions, nil
}
