// Package alerting decides which sentiment results warrant a human-facing
// alert. The policy is pure: the decision depends only on the result and the
// configured threshold, so it can be unit tested directly.
package alerting

import (
	"fmt"

	"github.com/brandsentry/sentiment-bot/internal/models"
)

// MinimumConfidence is the confidence floor for threshold-based alerts.
// Urgency-based alerts bypass it.
const MinimumConfidence = 0.6

// Intent describes an alert the policy wants created. The response
// recommendation is authored by the notifier; the policy only decides
// whether an alert is needed.
type Intent struct {
	Urgency string
	Message string
}

// Policy turns a sentiment result into a yes/no alert decision.
type Policy struct {
	threshold float64 // alert when score falls below this
}

// NewPolicy creates a policy with the given sentiment threshold.
func NewPolicy(threshold float64) *Policy {
	return &Policy{threshold: threshold}
}

// Decide returns an alert intent for the result, or nil when no alert is
// warranted. Either condition triggers: score below the threshold with
// sufficient confidence, or high/critical urgency regardless of score.
func (p *Policy) Decide(result models.SentimentResult) *Intent {
	shouldAlert := false

	if result.Score < p.threshold && result.Confidence > MinimumConfidence {
		shouldAlert = true
	}

	if result.Urgency == models.UrgencyCritical || result.Urgency == models.UrgencyHigh {
		shouldAlert = true
	}

	if !shouldAlert {
		return nil
	}

	source := result.Source
	if source == "" {
		source = "unknown"
	}

	return &Intent{
		Urgency: result.Urgency,
		Message: fmt.Sprintf("Negative sentiment detected from %s", source),
	}
}
