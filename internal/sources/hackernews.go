package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// HackerNewsSource scans recent Hacker News items for brand mentions.
type HackerNewsSource struct {
	client *resty.Client
}

type hackerNewsItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
}

// Cap on per-cycle item fetches; the firehose returns far more than the
// window needs.
const hackerNewsItemLimit = 500

// NewHackerNewsSource creates a new Hacker News source
func NewHackerNewsSource() *HackerNewsSource {
	return &HackerNewsSource{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "sentiment-bot/1.0"),
	}
}

func (h *HackerNewsSource) GetName() string {
	return "hackernews"
}

func (h *HackerNewsSource) IsEnabled() bool {
	return true // public API, no authentication
}

func (h *HackerNewsSource) FetchMentions(ctx context.Context, brands, keywords []string, window time.Duration) ([]models.Mention, error) {
	itemIDs, err := h.getRecentItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent items: %w", err)
	}

	if len(itemIDs) > hackerNewsItemLimit {
		itemIDs = itemIDs[:hackerNewsItemLimit]
	}

	cutoff := time.Now().Add(-window)
	var mentions []models.Mention

	for _, itemID := range itemIDs {
		select {
		case <-ctx.Done():
			return mentions, ctx.Err()
		default:
		}

		item, err := h.getItem(ctx, itemID)
		if err != nil {
			logrus.Debugf("Failed to get HN item %d: %v", itemID, err)
			continue
		}

		if item == nil || item.Time == 0 {
			continue
		}

		createdAt := time.Unix(item.Time, 0)
		if createdAt.Before(cutoff) {
			continue
		}

		text := item.Title
		if item.Text != "" {
			text += " " + item.Text
		}

		if !containsAny(text, brands) {
			continue
		}

		url := fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)
		if item.Type == "story" && item.URL != "" {
			url = item.URL
		}

		mentions = append(mentions, models.Mention{
			Text:      text,
			Source:    "hackernews",
			URL:       url,
			Author:    item.By,
			Timestamp: createdAt,
			Metadata: map[string]interface{}{
				"score":         item.Score,
				"comment_count": item.Descendants,
			},
		})
	}

	return mentions, nil
}

func (h *HackerNewsSource) getRecentItems(ctx context.Context) ([]int, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("https://hacker-news.firebaseio.com/v0/newstories.json")

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d", resp.StatusCode())
	}

	var itemIDs []int
	if err := json.Unmarshal(resp.Body(), &itemIDs); err != nil {
		return nil, err
	}

	return itemIDs, nil
}

func (h *HackerNewsSource) getItem(ctx context.Context, itemID int) (*hackerNewsItem, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("https://hacker-news.firebaseio.com/v0/item/%d.json", itemID))

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d for item %d", resp.StatusCode(), itemID)
	}

	var item hackerNewsItem
	if err := json.Unmarshal(resp.Body(), &item); err != nil {
		return nil, err
	}

	return &item, nil
}
