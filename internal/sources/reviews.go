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

// ReviewsSource pulls customer reviews from a review aggregation API
// (Trustpilot-style). The API base URL and key come from configuration so the
// same collector serves whichever aggregator the deployment uses.
type ReviewsSource struct {
	baseURL string
	apiKey  string
	client  *resty.Client
}

type reviewsResponse struct {
	Reviews []reviewItem `json:"reviews"`
}

type reviewItem struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Rating    float64 `json:"rating"` // 1-5 stars
	Author    string  `json:"author"`
	URL       string  `json:"url"`
	CreatedAt string  `json:"created_at"`
}

// NewReviewsSource creates a new review-site source
func NewReviewsSource(baseURL, apiKey string) *ReviewsSource {
	return &ReviewsSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "sentiment-bot/1.0"),
	}
}

func (r *ReviewsSource) GetName() string {
	return "reviews"
}

func (r *ReviewsSource) IsEnabled() bool {
	return r.baseURL != ""
}

func (r *ReviewsSource) FetchMentions(ctx context.Context, brands, keywords []string, window time.Duration) ([]models.Mention, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reviews source disabled - missing API URL")
		return nil, nil
	}

	var allMentions []models.Mention

	for _, brand := range brands {
		mentions, err := r.fetchBrandReviews(ctx, brand, window)
		if err != nil {
			logrus.Errorf("Failed to fetch reviews for brand '%s': %v", brand, err)
			continue
		}
		allMentions = append(allMentions, mentions...)
	}

	return deduplicateByURL(allMentions), nil
}

func (r *ReviewsSource) fetchBrandReviews(ctx context.Context, brand string, window time.Duration) ([]models.Mention, error) {
	since := time.Now().Add(-window).UTC().Format(time.RFC3339)
	requestURL := fmt.Sprintf("%s/v1/reviews?business=%s&since=%s&per_page=100",
		r.baseURL, url.QueryEscape(brand), url.QueryEscape(since))

	req := r.client.R().SetContext(ctx)
	if r.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := req.Get(requestURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reviews API returned status %d", resp.StatusCode())
	}

	var reviews reviewsResponse
	if err := json.Unmarshal(resp.Body(), &reviews); err != nil {
		return nil, fmt.Errorf("failed to parse reviews response: %w", err)
	}

	cutoff := time.Now().Add(-window)
	var mentions []models.Mention

	for _, review := range reviews.Reviews {
		createdAt, err := time.Parse(time.RFC3339, review.CreatedAt)
		if err != nil {
			// The aggregator omits timestamps on some feeds; fall back
			// to collection time.
			createdAt = time.Now()
		}
		if createdAt.Before(cutoff) {
			continue
		}

		mentions = append(mentions, models.Mention{
			Text:      review.Text,
			Source:    "reviews",
			URL:       review.URL,
			Author:    review.Author,
			Timestamp: createdAt,
			Metadata: map[string]interface{}{
				"rating": review.Rating,
				"brand":  brand,
			},
		})
	}

	return mentions, nil
}
