package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ProviderName identifies the backing provider ("openai", "huggingface").
	ProviderName() string

	// ModelName returns the name of the embedding model.
	ModelName() string
}
