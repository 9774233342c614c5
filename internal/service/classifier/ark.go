package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindease/backend/internal/config"
)

// Ark classifies with an Ark chat model through an eino prompt chain.
type Ark struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	labels []emotion.Label
}

// NewArk creates the chat model and compiles the classification chain.
func NewArk(ctx context.Context, cfg config.ArkConfig, labels []emotion.Label) (*Ark, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newChainClassifier(ctx, chatModel, labels)
}

func newChainClassifier(ctx context.Context, chatModel model.ChatModel, labels []emotion.Label) (*Ark, error) {
	if len(labels) == 0 {
		labels = emotion.DefaultLabelSpace
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(fmt.Sprintf(classifierInstructions, joinLabels(labels))),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	return &Ark{chain: runnable, labels: labels}, nil
}

// Classify implements Classifier.
func (a *Ark) Classify(ctx context.Context, text string) (emotion.Classification, error) {
	msg, err := a.chain.Invoke(ctx, map[string]any{"text": strings.TrimSpace(text)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("%w: empty model output", emotion.ErrInvalidClassification)
	}
	return parseModelScores(msg.Content, a.labels)
}
