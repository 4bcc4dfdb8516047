package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vecindex/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "vecindex",
	Short: "Index documents into a vector store for semantic search",
	Long: `vecindex extracts text from PDF and plain-text documents, splits it
into overlapping chunks, embeds each chunk and upserts the vectors into
a Qdrant collection. Content checksums make re-runs cheap: a document
whose bytes have not changed is skipped.

Example usage:
  vecindex process ./docs        # Index every supported file under ./docs
  vecindex search -q "billing"   # Semantically search indexed chunks
  vecindex status                # Show what has been indexed`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// Credentials commonly live in a local .env file.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./vecindex.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// resolveSourceDir picks the directory to scan: an explicit positional
// argument wins over the configured source dir. The configured source
// dir is taken relative to the root directory. The returned config copy
// has Source.Dir rewritten so derived paths (checksum db) follow along.
func resolveSourceDir(args []string) (*config.Config, string, error) {
	dir := cfg.Source.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(GetRootDir(), dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, "", fmt.Errorf("source directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("source path is not a directory: %s", dir)
	}

	resolved := *cfg
	resolved.Source.Dir = dir
	return &resolved, dir, nil
}
