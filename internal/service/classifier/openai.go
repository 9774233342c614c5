package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindease/backend/internal/config"
)

// OpenAI classifies with the Responses API under a strict JSON schema.
type OpenAI struct {
	client       *openai.Client
	model        string
	labels       []emotion.Label
	instructions string
	format       responses.ResponseFormatTextConfigUnionParam
}

// NewOpenAI builds the client and the response schema.
func NewOpenAI(cfg config.OpenAIConfig, labels []emotion.Label) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("OPENAI_MODEL is required for the openai backend")
	}
	if len(labels) == 0 {
		labels = emotion.DefaultLabelSpace
	}

	schemaObj, err := generateSchema[scoresPayload]()
	if err != nil {
		return nil, fmt.Errorf("build response schema: %w", err)
	}

	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &OpenAI{
		client:       &client,
		model:        cfg.Model,
		labels:       labels,
		instructions: fmt.Sprintf(classifierInstructions, joinLabels(labels)),
		format: responses.ResponseFormatTextConfigUnionParam{
			OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
				Name:        "EmotionScores",
				Schema:      schemaObj,
				Strict:      openai.Bool(true),
				Description: openai.String("Emotion scores JSON"),
				Type:        "json_schema",
			},
		},
	}, nil
}

// Classify implements Classifier.
func (o *OpenAI) Classify(ctx context.Context, text string) (emotion.Classification, error) {
	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(400),
		Instructions:    openai.String(o.instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: o.format,
		},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}
	return parseModelScores(resp.OutputText(), o.labels)
}

// generateSchema reflects T into a schema the strict mode accepts.
func generateSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	ensureStrictCompliance(m)
	return m, nil
}

// ensureStrictCompliance marks every object closed with all properties required.
func ensureStrictCompliance(schema map[string]any) {
	if schemaType, ok := schema["type"].(string); ok && schemaType == "object" {
		schema["additionalProperties"] = false

		if properties, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(properties))
			for name := range properties {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}

	if properties, ok := schema["properties"].(map[string]any); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]any); ok {
				ensureStrictCompliance(propMap)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrictCompliance(items)
	}
}
