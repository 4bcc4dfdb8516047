package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var (
	searchQuery string
	searchTopK  int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Semantically search indexed chunks",
	Long: `Embed the query with the configured provider and return the nearest
chunks from the collection.

Example:
  vecindex search -q "refund policy for annual plans" -k 3`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "query text (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top", "k", 5, "number of results")
	searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	vectors, err := emb.Embed(cmd.Context(), []string{searchQuery})
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := buildIndex(cfg).Search(cmd.Context(), cfg.Index.Collection, vectors[0], searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, hit := range hits {
		fmt.Printf("%d. [%.3f] %s #%d\n", i+1, hit.Score, hit.DocID, hit.Ordinal)
		fmt.Printf("   %s\n", preview(hit.Text, 160))
	}
	return nil
}

func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
