package sentiment

import (
	"math"
	"strings"
)

// LexiconModel is the rule-based scorer. Each lexicon term carries a valence;
// boosters and negations in the preceding three tokens adjust it, exclamation
// marks amplify the total, and the sum is normalized into (-1, 1).
type LexiconModel struct{}

// NewLexiconModel creates the rule-based scorer.
func NewLexiconModel() *LexiconModel {
	return &LexiconModel{}
}

// normalizationAlpha dampens the raw valence sum into (-1, 1).
const normalizationAlpha = 15.0

const (
	negationDampening   = -0.74
	exclamationBoost    = 0.292
	maxExclamationCount = 4
	boosterLookback     = 3
)

var lexiconValence = map[string]float64{
	// Positive
	"good": 1.9, "great": 3.1, "excellent": 2.7, "amazing": 2.8,
	"awesome": 3.1, "fantastic": 2.6, "wonderful": 2.7, "love": 3.2,
	"loved": 2.9, "best": 3.2, "perfect": 2.7, "happy": 2.7,
	"pleased": 1.9, "helpful": 1.8, "friendly": 2.2, "recommend": 1.6,
	"recommended": 1.6, "satisfied": 1.8, "impressed": 2.2, "thanks": 1.9,
	"thank": 1.7, "works": 1.2, "solved": 1.6, "fast": 1.1,
	"reliable": 1.8, "smooth": 1.5, "easy": 1.4, "nice": 1.8,
	"professional": 1.6, "quality": 1.3,

	// Negative
	"bad": -2.5, "terrible": -3.1, "awful": -3.0, "horrible": -3.0,
	"worst": -3.1, "hate": -2.7, "hated": -2.6, "disappointed": -2.2,
	"disappointing": -2.2, "frustrated": -2.3, "frustrating": -2.3,
	"angry": -2.7, "furious": -2.9, "useless": -2.3, "broken": -2.1,
	"scam": -2.8, "fraud": -2.9, "lie": -2.4, "lied": -2.4,
	"rude": -2.4, "slow": -1.4, "poor": -2.0, "problem": -1.7,
	"problems": -1.7, "issue": -1.4, "issues": -1.4, "error": -1.6,
	"errors": -1.6, "fail": -2.2, "failed": -2.2, "failure": -2.3,
	"refund": -1.2, "cancel": -1.3, "cancelled": -1.3, "complaint": -1.8,
	"unacceptable": -2.6, "ignored": -1.9, "waiting": -0.9, "wrong": -1.8,
	"never": -1.1, "nightmare": -2.8, "disaster": -2.8, "sue": -2.2,
	"lawyer": -1.5, "unhappy": -2.1, "dissatisfied": -2.1, "crash": -1.9,
	"crashes": -1.9, "bug": -1.5, "bugs": -1.5, "unusable": -2.4,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true, "nobody": true,
	"none": true, "nowhere": true, "nothing": true, "cant": true,
	"cannot": true, "dont": true, "doesnt": true, "didnt": true,
	"wont": true, "wouldnt": true, "isnt": true, "wasnt": true,
	"shouldnt": true, "hardly": true, "barely": true,
}

var boosters = map[string]float64{
	"absolutely": 0.293, "completely": 0.293, "extremely": 0.293,
	"incredibly": 0.293, "really": 0.267, "remarkably": 0.267,
	"so": 0.293, "totally": 0.293, "utterly": 0.293, "very": 0.293,
	"quite": 0.18, "pretty": 0.18, "highly": 0.267,
	"almost": -0.293, "barely": -0.293, "kind": -0.15, "kinda": -0.293,
	"less": -0.293, "little": -0.293, "marginally": -0.293,
	"slightly": -0.293, "somewhat": -0.293, "sort": -0.15,
}

// Score returns a polarity in (-1, 1) for cleaned text.
func (m *LexiconModel) Score(text string) float64 {
	if text == "" {
		return 0
	}

	tokens := strings.Fields(text)
	var sum float64

	for i, token := range tokens {
		word := strings.Trim(token, ".!?")
		valence, ok := lexiconValence[word]
		if !ok {
			continue
		}

		// Boosters and negations look back up to three tokens.
		for j := i - 1; j >= 0 && j >= i-boosterLookback; j-- {
			prev := strings.Trim(tokens[j], ".!?")
			if boost, ok := boosters[prev]; ok {
				if valence < 0 {
					valence -= boost
				} else {
					valence += boost
				}
			}
			if negations[prev] {
				valence *= negationDampening
			}
		}

		sum += valence
	}

	if sum != 0 {
		exclamations := strings.Count(text, "!")
		if exclamations > maxExclamationCount {
			exclamations = maxExclamationCount
		}
		emphasis := float64(exclamations) * exclamationBoost
		if sum < 0 {
			sum -= emphasis
		} else {
			sum += emphasis
		}
	}

	return sum / math.Sqrt(sum*sum+normalizationAlpha)
}
