package sentiment

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// MaxClassifierInput is the maximum input length (in runes) the classifier
// accepts. Longer text is truncated before scoring; the other models see the
// full text.
const MaxClassifierInput = 512

// Classifier is the optional high-accuracy model: a logistic scorer over
// token weights exported from an offline-trained model. Loaded once at
// startup; when the weights file is missing the analyzer runs without it.
type Classifier struct {
	Vocab map[string]float64 `json:"vocab"`
	Bias  float64            `json:"bias"`
}

// LoadClassifier reads classifier weights from a JSON file.
func LoadClassifier(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier model: %w", err)
	}

	var classifier Classifier
	if err := json.Unmarshal(data, &classifier); err != nil {
		return nil, fmt.Errorf("failed to parse classifier model: %w", err)
	}

	if len(classifier.Vocab) == 0 {
		return nil, fmt.Errorf("classifier model has an empty vocabulary")
	}

	return &classifier, nil
}

// Score maps text to a coarse polarity: 0.8 positive, -0.8 negative, 0
// neutral. The coarse labels mirror the three-class model the weights were
// exported from.
func (c *Classifier) Score(text string) float64 {
	z := c.Bias
	for _, token := range strings.Fields(text) {
		z += c.Vocab[strings.Trim(token, ".!?")]
	}

	probability := 1 / (1 + math.Exp(-z))
	switch {
	case probability >= 0.6:
		return 0.8
	case probability <= 0.4:
		return -0.8
	default:
		return 0
	}
}
