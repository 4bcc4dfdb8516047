package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vecindex/internal/domain"
)

// HuggingFaceEmbedder calls the HuggingFace inference API's
// feature-extraction pipeline for sentence-transformers models.
type HuggingFaceEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	batchSize int
	client    *http.Client
}

type hfRequest struct {
	Inputs  []string  `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

func NewHuggingFaceEmbedder(apiKey, model, baseURL string, dimension, batchSize int) *HuggingFaceEmbedder {
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if dimension <= 0 {
		dimension = 384
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	return &HuggingFaceEmbedder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   strings.TrimRight(baseURL, "/"),
		dimension: dimension,
		batchSize: batchSize,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *HuggingFaceEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text %d is empty", domain.ErrInvalidInput, i)
		}
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}
	return all, nil
}

func (e *HuggingFaceEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(hfRequest{Inputs: texts, Options: hfOptions{WaitForModel: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", e.baseURL, e.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrProviderUnavailable, err)
	}

	// 503 while the model container spins up is transient; the generic
	// classifier already treats it as provider-unavailable.
	if err := classifyStatus(resp.StatusCode, payload); err != nil {
		return nil, err
	}

	var vectors [][]float32
	if err := json.Unmarshal(payload, &vectors); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != e.dimension {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), e.dimension)
		}
	}
	return vectors, nil
}

func (e *HuggingFaceEmbedder) Dimension() int { return e.dimension }

func (e *HuggingFaceEmbedder) ProviderName() string { return "huggingface" }

func (e *HuggingFaceEmbedder) ModelName() string { return e.model }
