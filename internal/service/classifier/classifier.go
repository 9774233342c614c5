package classifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindease/backend/internal/config"
)

var (
	// ErrClassifierUnavailable means the model could not be constructed.
	ErrClassifierUnavailable = errors.New("emotion classifier unavailable")
	// ErrClassificationFailed means a single classification call failed.
	ErrClassificationFailed = errors.New("emotion classification failed")
)

// warmupText is classified once at startup to prove the model answers.
const warmupText = "Hello, I just wanted to check in."

// Classifier maps text to a score for every label in its label space.
type Classifier interface {
	Classify(ctx context.Context, text string) (emotion.Classification, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, text string) (emotion.Classification, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, text string) (emotion.Classification, error) {
	return f(ctx, text)
}

// Factory constructs a Classifier. It is expensive and must run at most once.
type Factory func(ctx context.Context) (Classifier, error)

// Lazy builds its classifier on first use and shares it afterwards. A
// construction error is remembered and returned to every caller.
type Lazy struct {
	factory Factory

	once sync.Once
	clf  Classifier
	err  error
}

// NewLazy wraps factory with a construct-once guard.
func NewLazy(factory Factory) *Lazy {
	return &Lazy{factory: factory}
}

// Get returns the shared classifier, constructing it on the first call.
func (l *Lazy) Get(ctx context.Context) (Classifier, error) {
	l.once.Do(func() {
		clf, err := l.factory(context.WithoutCancel(ctx))
		if err == nil && clf == nil {
			err = errors.New("factory returned no classifier")
		}
		if err != nil {
			l.err = fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
			return
		}
		l.clf = clf
	})
	return l.clf, l.err
}

// Classify implements Classifier on top of the shared instance.
func (l *Lazy) Classify(ctx context.Context, text string) (emotion.Classification, error) {
	clf, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return clf.Classify(ctx, text)
}

// Warmup constructs the classifier and runs one probe classification.
func Warmup(ctx context.Context, clf Classifier) error {
	result, err := clf.Classify(ctx, warmupText)
	if err != nil {
		return fmt.Errorf("%w: warmup: %v", ErrClassifierUnavailable, err)
	}
	label, err := emotion.Select(result)
	if err != nil {
		return fmt.Errorf("%w: warmup: %v", ErrClassifierUnavailable, err)
	}
	log.Printf("[classifier] warmup ok, probe classified as %s", label)
	return nil
}

// NewFactory returns the factory for the configured backend.
func NewFactory(cfg config.ClassifierConfig) Factory {
	return func(ctx context.Context) (Classifier, error) {
		log.Printf("[classifier] loading backend=%s model=%s", cfg.Backend, cfg.Model)

		switch cfg.Backend {
		case config.BackendHuggingFace:
			return NewHuggingFace(cfg.HF, cfg.Model, nil)
		case config.BackendArk:
			return NewArk(ctx, cfg.Ark, cfg.Labels)
		case config.BackendOpenAI:
			return NewOpenAI(cfg.OpenAI, cfg.Labels)
		case config.BackendLexicon:
			return NewLexicon(), nil
		default:
			return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
		}
	}
}
