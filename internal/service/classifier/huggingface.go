package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindease/backend/internal/config"
)

const maxResponseBytes = 1 << 20

// HuggingFace calls a hosted text-classification pipeline.
type HuggingFace struct {
	client   *http.Client
	endpoint string
	token    string
	topK     int
}

type hfRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters *hfParameters `json:"parameters,omitempty"`
	Options    hfOptions     `json:"options"`
}

type hfParameters struct {
	TopK int `json:"top_k"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type hfError struct {
	Error string `json:"error"`
}

// NewHuggingFace builds a client for model. A nil client uses a default one.
func NewHuggingFace(cfg config.HuggingFaceConfig, model string, client *http.Client) (*HuggingFace, error) {
	model = strings.Trim(strings.TrimSpace(model), "/")
	if model == "" {
		return nil, fmt.Errorf("hugging face model is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("hugging face base url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	return &HuggingFace{
		client:   client,
		endpoint: base + "/" + model,
		token:    cfg.APIToken,
		topK:     cfg.TopK,
	}, nil
}

// Classify implements Classifier.
func (h *HuggingFace) Classify(ctx context.Context, text string) (emotion.Classification, error) {
	payload := hfRequest{
		Inputs:  text,
		Options: hfOptions{WaitForModel: true},
	}
	if h.topK > 0 {
		payload.Parameters = &hfParameters{TopK: h.topK}
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrClassificationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrClassificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrClassificationFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr hfError
		if err := sonic.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrClassificationFailed, resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrClassificationFailed, resp.StatusCode)
	}

	return decodeHFScores(raw)
}

// decodeHFScores accepts both the nested single-input shape and a flat list.
func decodeHFScores(raw []byte) (emotion.Classification, error) {
	var scores []hfScore

	var nested [][]hfScore
	if err := sonic.Unmarshal(raw, &nested); err == nil {
		if len(nested) != 1 {
			return nil, fmt.Errorf("%w: expected one result set, got %d", emotion.ErrInvalidClassification, len(nested))
		}
		scores = nested[0]
	} else if err := sonic.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("%w: unexpected response shape: %v", emotion.ErrInvalidClassification, err)
	}

	result := make(emotion.Classification, 0, len(scores))
	for _, s := range scores {
		result = append(result, emotion.Score{Label: emotion.Normalize(s.Label), Score: s.Score})
	}
	if err := emotion.Validate(result); err != nil {
		return nil, err
	}
	return result, nil
}
