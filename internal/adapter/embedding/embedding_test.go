package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vecindex/internal/domain"
	"vecindex/internal/port"
)

func TestOpenAIEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)

		resp := embeddingResponse{Data: make([]embeddingData, len(req.Input))}
		// Deliberately answer in reverse order to exercise index handling.
		for i := range req.Input {
			idx := len(req.Input) - 1 - i
			resp.Data[i] = embeddingData{
				Index:     idx,
				Embedding: []float32{float32(idx), 1, 2},
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", "text-embedding-3-small", srv.URL, 3, 64)
	vectors, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0, 1, 2}, vectors[0])
	assert.Equal(t, []float32{1, 1, 2}, vectors[1])
}

func TestOpenAIBatching(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Input), 2)

		resp := embeddingResponse{Data: make([]embeddingData, len(req.Input))}
		for i := range req.Input {
			resp.Data[i] = embeddingData{Index: i, Embedding: []float32{1, 2}}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", "", srv.URL, 2, 2)
	vectors, err := e.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, 3, calls)
}

func TestOpenAIErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"bad request", http.StatusBadRequest, domain.ErrInvalidInput},
		{"server error", http.StatusBadGateway, domain.ErrProviderUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			e := NewOpenAIEmbedder("sk-test", "", srv.URL, 4, 64)
			_, err := e.Embed(context.Background(), []string{"text"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOpenAIRejectsEmptyInput(t *testing.T) {
	e := NewOpenAIEmbedder("sk-test", "", "http://unused", 4, 64)
	_, err := e.Embed(context.Background(), []string{"ok", "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpenAIDimensionCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{
			{Index: 0, Embedding: []float32{1, 2}},
		}})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", "", srv.URL, 3, 64)
	_, err := e.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestHuggingFaceEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pipeline/feature-extraction/sentence-transformers/all-MiniLM-L6-v2", r.URL.Path)
		assert.Equal(t, "Bearer hf-test", r.Header.Get("Authorization"))

		var req hfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Options.WaitForModel)

		out := make([][]float32, len(req.Inputs))
		for i := range req.Inputs {
			out[i] = []float32{float32(i), 0.5}
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e := NewHuggingFaceEmbedder("hf-test", "", srv.URL, 2, 64)
	vectors, err := e.Embed(context.Background(), []string{"uno", "dos"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0, 0.5}, vectors[0])
	assert.Equal(t, []float32{1, 0.5}, vectors[1])
	assert.Equal(t, 384, NewHuggingFaceEmbedder("k", "", "", 0, 0).Dimension())
}

func TestHuggingFaceModelLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer srv.Close()

	e := NewHuggingFaceEmbedder("hf-test", "", srv.URL, 2, 64)
	_, err := e.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(8)

	a, err := e.Embed(context.Background(), []string{"same text"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"same text"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a[0], 8)

	c, err := e.Embed(context.Background(), []string{"other text"})
	require.NoError(t, err)
	assert.NotEqual(t, a[0], c[0])
}

func TestPacedEmbedderDelays(t *testing.T) {
	inner := NewMockEmbedder(4)
	paced := NewPacedEmbedder(inner, 50)

	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := paced.Embed(context.Background(), []string{"text"})
		require.NoError(t, err)
	}
	// 5 requests at 50 rps with burst 1 need at least 4 refill periods.
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
	assert.Equal(t, 4, paced.Dimension())
	assert.Equal(t, "mock", paced.ProviderName())
}

func TestInterfaceCompliance(t *testing.T) {
	var _ port.Embedder = (*OpenAIEmbedder)(nil)
	var _ port.Embedder = (*HuggingFaceEmbedder)(nil)
	var _ port.Embedder = (*MockEmbedder)(nil)
	var _ port.Embedder = (*PacedEmbedder)(nil)
}
