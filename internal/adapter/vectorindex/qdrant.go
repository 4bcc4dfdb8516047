package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"vecindex/internal/domain"
)

const defaultUpsertBatch = 128

// QdrantClient is a minimal REST client for Qdrant collections. Point IDs
// are version-5 UUIDs derived from (document identity, chunk ordinal), so
// re-indexing a document overwrites its points instead of duplicating them.
type QdrantClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewQdrantClient(baseURL, apiKey string, timeout time.Duration) *QdrantClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &QdrantClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// PointID returns the deterministic UUID for a chunk of a document.
func PointID(docID string, ordinal int) string {
	name := fmt.Sprintf("vecindex://%s#%d", docID, ordinal)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

func (c *QdrantClient) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	status, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", name), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	switch {
	case status == http.StatusOK:
		var info collectionInfo
		if err := json.Unmarshal(body, &info); err != nil {
			return fmt.Errorf("failed to parse collection info: %w", err)
		}
		if got := info.Result.Config.Params.Vectors.Size; got != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, embedder produces %d",
				domain.ErrDimensionMismatch, name, got, dimension)
		}
		return nil
	case status == http.StatusNotFound:
		create := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		status, body, err = c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", name), create)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		if status >= 300 {
			return fmt.Errorf("%w: creating collection %q: status %d: %s",
				domain.ErrStoreUnavailable, name, status, preview(body))
		}
		return nil
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrStoreUnavailable, status, preview(body))
	}
}

func (c *QdrantClient) Upsert(ctx context.Context, collection string, records []domain.IndexRecord) error {
	for start := 0; start < len(records); start += defaultUpsertBatch {
		end := start + defaultUpsertBatch
		if end > len(records) {
			end = len(records)
		}
		if err := c.upsertBatch(ctx, collection, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *QdrantClient) upsertBatch(ctx context.Context, collection string, records []domain.IndexRecord) error {
	points := make([]map[string]any, len(records))
	for i, rec := range records {
		points[i] = map[string]any{
			"id":     PointID(rec.DocID, rec.Ordinal),
			"vector": rec.Vector,
			"payload": map[string]any{
				"doc_id":   rec.DocID,
				"ordinal":  rec.Ordinal,
				"text":     rec.Text,
				"start":    rec.Start,
				"end":      rec.End,
				"provider": rec.Provider,
				"model":    rec.Model,
				"source":   rec.Source,
			},
		}
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	status, body, err := c.do(ctx, http.MethodPut, path, map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if status >= 300 {
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpsertFailed, status, preview(body))
	}
	return nil
}

func (c *QdrantClient) Delete(ctx context.Context, collection, docID string) error {
	filter := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "doc_id", "match": map[string]any{"value": docID}},
			},
		},
	}
	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", collection)
	status, body, err := c.do(ctx, http.MethodPost, path, filter)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if status >= 300 {
		return fmt.Errorf("%w: deleting %s: status %d: %s",
			domain.ErrStoreUnavailable, docID, status, preview(body))
	}
	return nil
}

func (c *QdrantClient) Count(ctx context.Context, collection string) (int, error) {
	path := fmt.Sprintf("/collections/%s/points/count", collection)
	status, body, err := c.do(ctx, http.MethodPost, path, map[string]any{"exact": true})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if status >= 300 {
		return 0, fmt.Errorf("%w: status %d: %s", domain.ErrStoreUnavailable, status, preview(body))
	}
	var out struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to parse count response: %w", err)
	}
	return out.Result.Count, nil
}

func (c *QdrantClient) Search(ctx context.Context, collection string, vector []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	path := fmt.Sprintf("/collections/%s/points/search", collection)
	status, body, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrStoreUnavailable, status, preview(body))
	}

	var out struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(out.Result))
	for _, r := range out.Result {
		hit := domain.SearchHit{Score: r.Score}
		if v, ok := r.Payload["doc_id"].(string); ok {
			hit.DocID = v
		}
		if v, ok := r.Payload["ordinal"].(float64); ok {
			hit.Ordinal = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			hit.Source = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (c *QdrantClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, buf.Bytes(), nil
}

func preview(body []byte) string {
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
