package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"vecindex/internal/domain"
)

// Config holds all configuration for the indexing service. It is built
// once at startup and passed by reference; nothing mutates it afterwards.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Extract   ExtractConfig   `yaml:"extract"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// SourceConfig describes where candidate documents are discovered.
type SourceConfig struct {
	Dir      string   `yaml:"dir"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ExtractConfig tunes text extraction and the OCR fallback.
type ExtractConfig struct {
	// MinCharsPerPage is the density floor below which the direct text
	// layer is considered unusable and OCR is attempted instead.
	MinCharsPerPage int `yaml:"min_chars_per_page"`
	// OCRLanguage is passed to tesseract (-l).
	OCRLanguage string `yaml:"ocr_language"`
	// OCRDPI is the render resolution for pdftoppm.
	OCRDPI int `yaml:"ocr_dpi"`
}

// ChunkConfig tunes how extracted text is split.
type ChunkConfig struct {
	MaxChars int `yaml:"max_chars"`
	Overlap  int `yaml:"overlap"`
}

// EmbeddingConfig selects the provider, fixed for the process lifetime.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "huggingface", "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	// RequestsPerSecond paces calls to the provider; 0 disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// IndexConfig describes the target vector store collection.
type IndexConfig struct {
	URL        string `yaml:"url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Collection string `yaml:"collection"`
}

// PipelineConfig tunes orchestration.
type PipelineConfig struct {
	Workers    int    `yaml:"workers"`
	MaxRetries int    `yaml:"max_retries"`
	BackoffMS  int    `yaml:"backoff_ms"`
	ChecksumDB string `yaml:"checksum_db"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Dir:      "documents",
			Includes: []string{"**/*.pdf", "**/*.txt", "**/*.md"},
			Excludes: []string{"**/.*", "**/node_modules/**"},
		},
		Extract: ExtractConfig{
			MinCharsPerPage: 64,
			OCRLanguage:     "eng",
			OCRDPI:          300,
		},
		Chunk: ChunkConfig{
			MaxChars: 512,
			Overlap:  50,
		},
		Embedding: EmbeddingConfig{
			Provider:          "openai",
			Model:             "text-embedding-3-small",
			APIKeyEnv:         "OPENAI_API_KEY",
			Dimension:         1536,
			BatchSize:         64,
			RequestsPerSecond: 5,
		},
		Index: IndexConfig{
			URL:        "http://localhost:6333",
			APIKeyEnv:  "QDRANT_API_KEY",
			Collection: "documents",
		},
		Pipeline: PipelineConfig{
			Workers:    4,
			MaxRetries: 3,
			BackoffMS:  500,
			ChecksumDB: "",
		},
	}
}

// Load loads configuration from a YAML file, returning defaults when the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory, probing vecindex.yaml
// then .vecindex/config.yaml before falling back to defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "vecindex.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".vecindex", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks startup invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai", "huggingface", "mock":
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidProvider, c.Embedding.Provider)
	}
	if c.Chunk.Overlap >= c.Chunk.MaxChars {
		return fmt.Errorf("chunk overlap %d must be smaller than max_chars %d",
			c.Chunk.Overlap, c.Chunk.MaxChars)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Embedding.Dimension)
	}
	return nil
}

// APIKey resolves the embedding credential from the environment. The mock
// provider needs none.
func (c *Config) APIKey() (string, error) {
	if c.Embedding.Provider == "mock" {
		return "", nil
	}
	key := os.Getenv(c.Embedding.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: environment variable %s is empty",
			domain.ErrMissingCredential, c.Embedding.APIKeyEnv)
	}
	return key, nil
}

// ChecksumDBPath returns the path to the checksum database, defaulting to
// .vecindex/checksums.db under the source directory.
func (c *Config) ChecksumDBPath() string {
	if c.Pipeline.ChecksumDB != "" {
		return c.Pipeline.ChecksumDB
	}
	return filepath.Join(c.Source.Dir, ".vecindex", "checksums.db")
}

// EnsureStateDir ensures the .vecindex directory next to the checksum
// database exists.
func (c *Config) EnsureStateDir() error {
	return os.MkdirAll(filepath.Dir(c.ChecksumDBPath()), 0755)
}
