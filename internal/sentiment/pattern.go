package sentiment

import "strings"

// PatternModel is the statistical polarity scorer. It averages the polarity
// of known terms, with intensifiers scaling and negations inverting the term
// that follows them. Complements the lexicon model on general prose.
type PatternModel struct{}

// NewPatternModel creates the polarity-pattern scorer.
func NewPatternModel() *PatternModel {
	return &PatternModel{}
}

const (
	intensifierFactor = 1.3
	negationFactor    = -0.5
)

var patternPolarity = map[string]float64{
	"good": 0.7, "great": 0.8, "excellent": 1.0, "amazing": 0.8,
	"awesome": 1.0, "fantastic": 0.9, "wonderful": 1.0, "love": 0.5,
	"best": 1.0, "perfect": 1.0, "happy": 0.8, "helpful": 0.6,
	"friendly": 0.6, "satisfied": 0.5, "impressed": 0.7, "reliable": 0.6,
	"easy": 0.4, "nice": 0.6, "fast": 0.2, "smooth": 0.4,
	"quality": 0.3, "recommend": 0.4, "works": 0.2, "fine": 0.4,

	"bad": -0.7, "terrible": -1.0, "awful": -1.0, "horrible": -1.0,
	"worst": -1.0, "hate": -0.8, "disappointed": -0.75, "disappointing": -0.75,
	"frustrating": -0.7, "frustrated": -0.7, "angry": -0.8, "useless": -0.8,
	"broken": -0.6, "rude": -0.75, "slow": -0.3, "poor": -0.6,
	"problem": -0.4, "issue": -0.3, "error": -0.4, "fail": -0.6,
	"failed": -0.6, "wrong": -0.5, "unacceptable": -0.9, "unhappy": -0.7,
	"dissatisfied": -0.7, "nightmare": -0.9, "disaster": -0.9,
	"unusable": -0.8, "scam": -0.9, "cheap": -0.4, "confusing": -0.5,
}

var patternIntensifiers = map[string]bool{
	"very": true, "really": true, "extremely": true, "incredibly": true,
	"absolutely": true, "totally": true, "completely": true, "so": true,
}

var patternNegations = map[string]bool{
	"not": true, "never": true, "no": true, "hardly": true,
	"dont": true, "doesnt": true, "didnt": true, "isnt": true,
	"wasnt": true, "wont": true, "cant": true, "cannot": true,
}

// Score returns the average polarity of recognized terms in [-1, 1],
// or 0 when no term matches.
func (m *PatternModel) Score(text string) float64 {
	if text == "" {
		return 0
	}

	tokens := strings.Fields(text)
	var sum float64
	var matched int

	for i, token := range tokens {
		word := strings.Trim(token, ".!?")
		polarity, ok := patternPolarity[word]
		if !ok {
			continue
		}

		if i > 0 {
			prev := strings.Trim(tokens[i-1], ".!?")
			if patternIntensifiers[prev] {
				polarity *= intensifierFactor
			} else if patternNegations[prev] {
				polarity *= negationFactor
			}
		}

		sum += clamp(polarity, -1, 1)
		matched++
	}

	if matched == 0 {
		return 0
	}
	return sum / float64(matched)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
