package sentiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_ScoreAndConfidenceRanges(t *testing.T) {
	analyzer := NewAnalyzer("")

	inputs := []string{
		"This product is absolutely terrible and I hate it!!!",
		"Great service, very helpful and friendly staff",
		"I ordered a blue one and received a blue one",
		"worst worst worst awful horrible nightmare disaster scam",
		"love love love amazing perfect excellent best wonderful",
		"Visit https://example.com for more info é ü 漢字 @#$%",
	}

	for _, text := range inputs {
		result := analyzer.Analyze(models.Mention{Text: text, Source: "test"})
		assert.GreaterOrEqual(t, result.Score, -1.0, "score below -1 for %q", text)
		assert.LessOrEqual(t, result.Score, 1.0, "score above 1 for %q", text)
		assert.GreaterOrEqual(t, result.Confidence, 0.0, "confidence below 0 for %q", text)
		assert.LessOrEqual(t, result.Confidence, 1.0, "confidence above 1 for %q", text)
	}
}

func TestAnalyzer_EmptyTextIsNeutral(t *testing.T) {
	analyzer := NewAnalyzer("")

	for _, text := range []string{"", "   ", "\t\n  "} {
		result := analyzer.Analyze(models.Mention{Text: text, Source: "test"})
		assert.Equal(t, 0.0, result.Score)
		assert.Equal(t, models.CategoryNeutral, result.Category)
		assert.Equal(t, 0.0, result.Confidence)
		assert.False(t, result.IsNegative)
		assert.Equal(t, models.UrgencyLow, result.Urgency)
	}
}

func TestCategorize_Breakpoints(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{-1.0, models.CategoryVeryNegative},
		{-0.8, models.CategoryVeryNegative},
		{-0.799, models.CategoryNegative},
		{-0.3, models.CategoryNegative},
		{-0.299, models.CategoryNeutral},
		{0.0, models.CategoryNeutral},
		{0.1, models.CategoryNeutral},
		{0.101, models.CategoryPositive},
		{0.3, models.CategoryPositive},
		{0.301, models.CategoryVeryPositive},
		{1.0, models.CategoryVeryPositive},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, categorize(tt.score), "score %v", tt.score)
	}
}

func TestClassifyUrgency_RulePrecedence(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		text       string
		confidence float64
		expected   string
	}{
		{
			name:       "critical on strong negative with high confidence, no keyword needed",
			score:      -0.75,
			text:       "it simply does not work at all",
			confidence: 0.85,
			expected:   models.UrgencyCritical,
		},
		{
			name:       "high on keyword even with low confidence",
			score:      -0.55,
			text:       "I want a refund right now",
			confidence: 0.5,
			expected:   models.UrgencyHigh,
		},
		{
			name:       "high on confidence without keyword",
			score:      -0.55,
			text:       "this does not do what was promised",
			confidence: 0.75,
			expected:   models.UrgencyHigh,
		},
		{
			name:       "medium on moderately negative score",
			score:      -0.25,
			text:       "not great",
			confidence: 0.9,
			expected:   models.UrgencyMedium,
		},
		{
			name:       "low on neutral score",
			score:      0.1,
			text:       "just a question",
			confidence: 0.9,
			expected:   models.UrgencyLow,
		},
		{
			name:       "strong negative without confidence falls through to high via keyword",
			score:      -0.75,
			text:       "this is terrible",
			confidence: 0.5,
			expected:   models.UrgencyHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyUrgency(tt.score, tt.text, tt.confidence))
		})
	}
}

func TestAnalyzer_WeightRedistribution(t *testing.T) {
	modelPath := writeClassifierModel(t)

	withClassifier := NewAnalyzer(modelPath)
	require.True(t, withClassifier.ClassifierAvailable())

	withoutClassifier := NewAnalyzer("")
	require.False(t, withoutClassifier.ClassifierAvailable())

	mention := models.Mention{Text: "This is a terrible awful product and I hate it", Source: "test"}

	full := withClassifier.Analyze(mention)
	require.NotNil(t, full.ClassifierScore)
	expectedFull := round3(0.3*full.LexiconScore + 0.3*full.PatternScore + 0.4**full.ClassifierScore)
	assert.Equal(t, expectedFull, full.Score)

	fallback := withoutClassifier.Analyze(mention)
	assert.Nil(t, fallback.ClassifierScore)
	expectedFallback := round3(0.5*fallback.LexiconScore + 0.5*fallback.PatternScore)
	assert.Equal(t, expectedFallback, fallback.Score)
}

func TestAnalyzer_IsNegativeThreshold(t *testing.T) {
	analyzer := NewAnalyzer("")

	negative := analyzer.Analyze(models.Mention{Text: "terrible awful horrible worst broken useless", Source: "test"})
	assert.True(t, negative.IsNegative)
	assert.Less(t, negative.Score, -0.1)

	positive := analyzer.Analyze(models.Mention{Text: "great excellent amazing wonderful perfect", Source: "test"})
	assert.False(t, positive.IsNegative)
	assert.Greater(t, positive.Score, 0.1)
}

func TestAnalyzer_Deterministic(t *testing.T) {
	analyzer := NewAnalyzer("")
	mention := models.Mention{Text: "The support was really helpful but the app keeps crashing", Source: "test"}

	first := analyzer.Analyze(mention)
	second := analyzer.Analyze(mention)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Urgency, second.Urgency)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and collapses whitespace",
			input:    "This  IS\t a   Test",
			expected: "this is a test",
		},
		{
			name:     "strips URLs",
			input:    "check https://example.com/page and www.example.org now",
			expected: "check and now",
		},
		{
			name:     "keeps word characters and basic punctuation",
			input:    "What?! A #great@ (deal)...",
			expected: "what?! a great deal...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanText(tt.input))
		})
	}
}

func TestLoadClassifier_Errors(t *testing.T) {
	_, err := LoadClassifier(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"vocab":{},"bias":0}`), 0o644))
	_, err = LoadClassifier(empty)
	assert.Error(t, err)
}

func TestBatchAnalyze_PreservesOrder(t *testing.T) {
	analyzer := NewAnalyzer("")
	mentions := []models.Mention{
		{Text: "terrible experience", Source: "reviews"},
		{Text: "", Source: "reviews"},
		{Text: "great experience", Source: "reviews"},
	}

	results := analyzer.BatchAnalyze(mentions)
	require.Len(t, results, 3)
	assert.True(t, results[0].IsNegative)
	assert.Equal(t, 0.0, results[1].Score)
	assert.False(t, results[2].IsNegative)
}

func writeClassifierModel(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "classifier.json")
	model := `{"vocab":{"terrible":-2.0,"awful":-2.0,"hate":-1.5,"great":2.0,"love":1.5},"bias":0}`
	require.NoError(t, os.WriteFile(path, []byte(model), 0o644))
	return path
}
