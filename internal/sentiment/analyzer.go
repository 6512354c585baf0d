package sentiment

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/sirupsen/logrus"
)

// Ensemble weights. The classifier gets the largest share when available;
// without it the two baseline models split the weight evenly.
var (
	fullWeights     = []float64{0.3, 0.3, 0.4}
	fallbackWeights = []float64{0.5, 0.5}
)

// Category breakpoints, checked in ascending order. score <= breakpoint wins.
var categoryBreakpoints = []struct {
	limit    float64
	category string
}{
	{-0.8, models.CategoryVeryNegative},
	{-0.3, models.CategoryNegative},
	{0.1, models.CategoryNeutral},
	{0.3, models.CategoryPositive},
}

// Keywords that escalate urgency regardless of model confidence.
var urgencyKeywords = []string{
	"urgent", "emergency", "immediately", "asap", "critical",
	"terrible", "awful", "horrible", "worst", "hate", "sue",
	"legal", "lawyer", "complaint", "refund", "cancel",
}

var (
	urlPattern        = regexp.MustCompile(`http\S+|www\S+|https\S+`)
	nonTextPattern    = regexp.MustCompile(`[^\w\s.!?]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Analyzer scores mention text with an ensemble of independent models. The
// lexicon and pattern models are always available; the classifier is loaded
// once at construction and its availability is fixed for the process lifetime.
type Analyzer struct {
	lexicon    *LexiconModel
	pattern    *PatternModel
	classifier *Classifier // nil when unavailable
}

// NewAnalyzer creates an analyzer. An empty model path or a model that fails
// to load disables the classifier; the remaining weights are redistributed
// per call.
func NewAnalyzer(classifierModelPath string) *Analyzer {
	a := &Analyzer{
		lexicon: NewLexiconModel(),
		pattern: NewPatternModel(),
	}

	if classifierModelPath == "" {
		logrus.Info("No classifier model configured, using lexicon and pattern models only")
		return a
	}

	classifier, err := LoadClassifier(classifierModelPath)
	if err != nil {
		logrus.Warnf("Could not load classifier model from %s: %v", classifierModelPath, err)
		return a
	}

	a.classifier = classifier
	logrus.Infof("Classifier model loaded from %s (%d terms)", classifierModelPath, len(classifier.Vocab))
	return a
}

// ClassifierAvailable reports whether the optional third model is active.
func (a *Analyzer) ClassifierAvailable() bool {
	return a.classifier != nil
}

// Analyze scores a single mention. It is a total function: it never fails,
// and empty or whitespace-only text yields the neutral zero-confidence result.
func (a *Analyzer) Analyze(mention models.Mention) models.SentimentResult {
	result := models.SentimentResult{
		Text:       mention.Text,
		Source:     mention.Source,
		URL:        mention.URL,
		Author:     mention.Author,
		Timestamp:  mention.Timestamp,
		Metadata:   mention.Metadata,
		AnalyzedAt: time.Now(),
		Category:   models.CategoryNeutral,
		Urgency:    models.UrgencyLow,
	}

	if strings.TrimSpace(mention.Text) == "" {
		return result
	}

	cleaned := cleanText(mention.Text)

	scores := []float64{
		a.lexicon.Score(cleaned),
		a.pattern.Score(cleaned),
	}
	weights := fullWeights

	result.LexiconScore = scores[0]
	result.PatternScore = scores[1]

	if a.classifier != nil {
		// Truncation applies to the classifier input only.
		classifierScore := a.classifier.Score(truncateRunes(cleaned, MaxClassifierInput))
		scores = append(scores, classifierScore)
		result.ClassifierScore = &classifierScore
	} else {
		weights = fallbackWeights
	}

	var weightedSum, weightSum float64
	for i, s := range scores {
		weightedSum += s * weights[i]
		weightSum += weights[i]
	}
	final := weightedSum / weightSum

	// Confidence is agreement between models: population variance of the
	// individual scores around the ensemble score.
	var variance float64
	for _, s := range scores {
		variance += (s - final) * (s - final)
	}
	variance /= float64(len(scores))

	result.Score = round3(final)
	result.Confidence = round3(math.Max(0, 1-variance))
	result.Category = categorize(result.Score)
	result.IsNegative = result.Score < -0.1
	result.Urgency = classifyUrgency(result.Score, mention.Text, result.Confidence)

	logrus.Debugf("Sentiment analysis: %s (%.3f, confidence %.3f) - %s",
		result.Category, result.Score, result.Confidence, truncateRunes(mention.Text, 50))

	return result
}

// BatchAnalyze scores multiple mentions in input order.
func (a *Analyzer) BatchAnalyze(mentions []models.Mention) []models.SentimentResult {
	results := make([]models.SentimentResult, 0, len(mentions))
	for _, mention := range mentions {
		results = append(results, a.Analyze(mention))
	}
	return results
}

// cleanText normalizes text before scoring: lowercase, URLs removed, all
// characters except word characters, whitespace and basic punctuation
// stripped, whitespace collapsed.
func cleanText(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = nonTextPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func categorize(score float64) string {
	for _, bp := range categoryBreakpoints {
		if score <= bp.limit {
			return bp.category
		}
	}
	return models.CategoryVeryPositive
}

// classifyUrgency evaluates the urgency rules in order; the first match wins.
func classifyUrgency(score float64, text string, confidence float64) string {
	hasKeyword := false
	lower := strings.ToLower(text)
	for _, keyword := range urgencyKeywords {
		if strings.Contains(lower, keyword) {
			hasKeyword = true
			break
		}
	}

	switch {
	case score < -0.7 && confidence > 0.8:
		return models.UrgencyCritical
	case score < -0.5 && (confidence > 0.7 || hasKeyword):
		return models.UrgencyHigh
	case score < -0.2:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
