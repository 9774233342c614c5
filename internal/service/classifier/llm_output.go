package classifier

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
)

// scoresPayload is the JSON object chat models are asked to return.
type scoresPayload struct {
	Scores []labelScore `json:"scores" jsonschema_description:"One entry for every label in the label space"`
}

type labelScore struct {
	Label string  `json:"label" jsonschema_description:"Emotion label, exactly as listed"`
	Score float64 `json:"score" jsonschema_description:"Probability between 0 and 1"`
}

// decodeModelJSON unmarshals the first JSON object found in a model response.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

// parseModelScores turns a chat model answer into a classification ordered
// by the label space, so that ties follow the configured order.
func parseModelScores(content string, labels []emotion.Label) (emotion.Classification, error) {
	var payload scoresPayload
	if err := decodeModelJSON(content, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", emotion.ErrInvalidClassification, err)
	}

	byLabel := make(map[emotion.Label]float64, len(payload.Scores))
	unordered := make(emotion.Classification, 0, len(payload.Scores))
	for _, s := range payload.Scores {
		label := emotion.Normalize(s.Label)
		unordered = append(unordered, emotion.Score{Label: label, Score: s.Score})
		byLabel[label] = s.Score
	}
	if err := emotion.ValidateSpace(unordered, labels); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return unordered, nil
	}

	result := make(emotion.Classification, 0, len(labels))
	for _, l := range labels {
		result = append(result, emotion.Score{Label: l, Score: byLabel[l]})
	}
	return result, nil
}

func joinLabels(labels []emotion.Label) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, string(l))
	}
	return strings.Join(parts, ", ")
}

const classifierInstructions = "You are an emotion classifier for a wellness companion. Read the user's message and " +
	"estimate how strongly it expresses each emotion in this label space: %s. " +
	"Return only a JSON object with a single field named scores. scores is an array with exactly one entry per label, " +
	"in the order listed; each entry has a label string copied from the label space and a score between 0 and 1. " +
	"Scores should sum to 1. Do not add any other text."
