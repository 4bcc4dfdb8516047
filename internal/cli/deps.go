package cli

import (
	"fmt"
	"os"
	"time"

	"vecindex/config"
	"vecindex/internal/adapter/checksum"
	"vecindex/internal/adapter/chunker"
	"vecindex/internal/adapter/embedding"
	"vecindex/internal/adapter/extractor"
	"vecindex/internal/adapter/fs"
	"vecindex/internal/adapter/vectorindex"
	"vecindex/internal/domain"
	"vecindex/internal/port"
	"vecindex/internal/usecase"
)

const indexTimeout = 30 * time.Second

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	var emb port.Embedder
	switch cfg.Embedding.Provider {
	case "openai":
		emb = embedding.NewOpenAIEmbedder(key, cfg.Embedding.Model, cfg.Embedding.BaseURL,
			cfg.Embedding.Dimension, cfg.Embedding.BatchSize)
	case "huggingface":
		emb = embedding.NewHuggingFaceEmbedder(key, cfg.Embedding.Model, cfg.Embedding.BaseURL,
			cfg.Embedding.Dimension, cfg.Embedding.BatchSize)
	case "mock":
		emb = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidProvider, cfg.Embedding.Provider)
	}

	if cfg.Embedding.RequestsPerSecond > 0 {
		emb = embedding.NewPacedEmbedder(emb, cfg.Embedding.RequestsPerSecond)
	}
	return emb, nil
}

func buildIndex(cfg *config.Config) port.VectorIndex {
	return vectorindex.NewQdrantClient(cfg.Index.URL, os.Getenv(cfg.Index.APIKeyEnv), indexTimeout)
}

func openChecksums(cfg *config.Config) (port.ChecksumStore, error) {
	if err := cfg.EnsureStateDir(); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return checksum.NewBoltStore(cfg.ChecksumDBPath())
}

// buildPipeline assembles a ready-to-run pipeline from config. The
// caller closes the returned checksum store.
func buildPipeline(cfg *config.Config, onProgress func(domain.DocOutcome)) (*usecase.Pipeline, port.ChecksumStore, error) {
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := openChecksums(cfg)
	if err != nil {
		return nil, nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineParams{
		Source: fs.NewSource(cfg.Source.Dir, cfg.Source.Includes, cfg.Source.Excludes),
		Extractor: extractor.NewDefaultRegistry(
			extractor.WithDensityFloor(cfg.Extract.MinCharsPerPage),
			extractor.WithOCRLanguage(cfg.Extract.OCRLanguage),
			extractor.WithOCRDPI(cfg.Extract.OCRDPI),
		),
		Chunker:    chunker.NewTextChunker(cfg.Chunk.MaxChars, cfg.Chunk.Overlap),
		Embedder:   emb,
		Index:      buildIndex(cfg),
		Checksums:  store,
		Collection: cfg.Index.Collection,
		Workers:    cfg.Pipeline.Workers,
		MaxRetries: cfg.Pipeline.MaxRetries,
		Backoff:    time.Duration(cfg.Pipeline.BackoffMS) * time.Millisecond,
		OnProgress: onProgress,
	})
	return pipeline, store, nil
}
