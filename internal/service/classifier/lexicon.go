package classifier

import (
	"context"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
)

// Lexicon classifies offline with the keyword scorer. It never calls out of
// process, which makes it suitable for local development.
type Lexicon struct{}

// NewLexicon returns the keyword classifier.
func NewLexicon() *Lexicon {
	return &Lexicon{}
}

// Classify implements Classifier.
func (l *Lexicon) Classify(ctx context.Context, text string) (emotion.Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return emotion.Analyze(text), nil
}
