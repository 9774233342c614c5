package emotion

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Label is one category from the classifier's output vocabulary.
type Label string

// Labels produced by the default distilroberta emotion model.
const (
	Anger    Label = "anger"
	Disgust  Label = "disgust"
	Fear     Label = "fear"
	Joy      Label = "joy"
	Neutral  Label = "neutral"
	Sadness  Label = "sadness"
	Surprise Label = "surprise"
)

// Anxiety is not emitted by the default model but is understood by the response table.
const Anxiety Label = "anxiety"

// DefaultLabelSpace lists the default model's labels in its native output order.
var DefaultLabelSpace = []Label{Anger, Disgust, Fear, Joy, Neutral, Sadness, Surprise}

// ErrInvalidClassification marks classifier output that cannot be used for selection.
var ErrInvalidClassification = errors.New("invalid classification")

// Score pairs a label with the classifier's confidence for it.
type Score struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Classification is the classifier output in its native order.
type Classification []Score

// Normalize lower-cases and trims a raw label.
func Normalize(raw string) Label {
	return Label(strings.ToLower(strings.TrimSpace(raw)))
}

// Validate rejects empty and malformed results.
func Validate(c Classification) error {
	if len(c) == 0 {
		return fmt.Errorf("%w: empty result", ErrInvalidClassification)
	}

	seen := make(map[Label]struct{}, len(c))
	for i, s := range c {
		if strings.TrimSpace(string(s.Label)) == "" {
			return fmt.Errorf("%w: entry %d has no label", ErrInvalidClassification, i)
		}
		if math.IsNaN(s.Score) || math.IsInf(s.Score, 0) {
			return fmt.Errorf("%w: label %q has non-finite score", ErrInvalidClassification, s.Label)
		}
		if s.Score < 0 || s.Score > 1 {
			return fmt.Errorf("%w: label %q score %v outside [0,1]", ErrInvalidClassification, s.Label, s.Score)
		}
		if _, dup := seen[s.Label]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidClassification, s.Label)
		}
		seen[s.Label] = struct{}{}
	}
	return nil
}

// ValidateSpace additionally requires the result to cover exactly the given label space.
func ValidateSpace(c Classification, space []Label) error {
	if err := Validate(c); err != nil {
		return err
	}
	if len(space) == 0 {
		return nil
	}

	allowed := make(map[Label]struct{}, len(space))
	for _, l := range space {
		allowed[l] = struct{}{}
	}
	for _, s := range c {
		if _, ok := allowed[s.Label]; !ok {
			return fmt.Errorf("%w: label %q outside label space", ErrInvalidClassification, s.Label)
		}
	}
	if len(c) != len(allowed) {
		return fmt.Errorf("%w: got %d labels, want %d", ErrInvalidClassification, len(c), len(allowed))
	}
	return nil
}

// Select returns the label with the highest score. Ties go to the label that
// appears first in the classifier's native order.
func Select(c Classification) (Label, error) {
	if err := Validate(c); err != nil {
		return "", err
	}

	best := 0
	for i := 1; i < len(c); i++ {
		if c[i].Score > c[best].Score {
			best = i
		}
	}
	return c[best].Label, nil
}

// Ranked returns a copy sorted by descending score, keeping native order for ties.
func (c Classification) Ranked() Classification {
	ranked := make(Classification, len(c))
	copy(ranked, c)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top returns the first n entries of the ranked result.
func (c Classification) Top(n int) Classification {
	ranked := c.Ranked()
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// ParseLabels splits a comma separated label list.
func ParseLabels(raw string) []Label {
	parts := strings.Split(raw, ",")
	labels := make([]Label, 0, len(parts))
	for _, p := range parts {
		l := Normalize(p)
		if l == "" {
			continue
		}
		labels = append(labels, l)
	}
	return labels
}
