package emotion

import (
	"strings"
)

var keywordBuckets = map[Label][]string{
	Anger: {
		"angry", "furious", "rage", "mad", "annoyed", "pissed", "outrage", "hate", "irritated",
		"frustrated", "fed up", "sick of", "livid", "resent", "unfair",
	},
	Disgust: {
		"disgust", "disgusting", "gross", "revolting", "repulsive", "nasty", "vile", "sickening",
		"can't stand", "ew",
	},
	Fear: {
		"afraid", "scared", "fear", "anxious", "anxiety", "nervous", "worried", "worry", "panic",
		"terrified", "dread", "overwhelmed", "uneasy", "tense", "on edge",
	},
	Joy: {
		"happy", "glad", "great", "awesome", "amazing", "love", "excited", "thanks", "thank you",
		"grateful", "wonderful", "proud", "relieved", "lol", "yay",
	},
	Sadness: {
		"sad", "unhappy", "cry", "crying", "depressed", "down", "lonely", "alone", "hurt", "upset",
		"hopeless", "miserable", "empty", "grief", "heartbroken", "tired of",
	},
	Surprise: {
		"surprised", "shocked", "unexpected", "can't believe", "wow", "suddenly", "no way",
		"unbelievable", "astonished",
	},
}

// neutralWeight keeps neutral in the running so that text with no signal resolves to it.
const neutralWeight = 2

var punctuationBoost = map[Label]int{
	Surprise: 1,
	Joy:      1,
}

// Analyze scores text against the keyword lexicon and returns a normalised
// distribution over DefaultLabelSpace in native order.
func Analyze(text string) Classification {
	counts := scoreText(text)

	total := 0
	for _, l := range DefaultLabelSpace {
		total += counts[l]
	}

	result := make(Classification, 0, len(DefaultLabelSpace))
	for _, l := range DefaultLabelSpace {
		result = append(result, Score{Label: l, Score: float64(counts[l]) / float64(total)})
	}
	return result
}

func scoreText(text string) map[Label]int {
	scores := map[Label]int{Neutral: neutralWeight}

	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return scores
	}

	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if containsWord(normalized, word) {
				scores[label] += 3
			}
		}
	}

	exclamations := strings.Count(text, "!")
	if exclamations > 0 && (scores[Joy] > 0 || scores[Surprise] > 0) {
		for label, boost := range punctuationBoost {
			if scores[label] > 0 {
				scores[label] += exclamations * boost
			}
		}
	}

	return scores
}

// containsWord matches whole words so that "mad" does not fire on "made".
func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		if isBoundary(text, start-1) && isBoundary(text, end) {
			return true
		}
		idx = start + 1
	}
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '\'')
}
