package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusVerbose bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexed documents and collection size",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusVerbose, "verbose", "v", false, "list every indexed document")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	runCfg, dir, err := resolveSourceDir(nil)
	if err != nil {
		return err
	}

	store, err := openChecksums(runCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list checksums: %w", err)
	}

	totalChunks := 0
	var docIDs []string
	for _, rec := range records {
		totalChunks += rec.ChunkCount
		docIDs = append(docIDs, rec.DocID)
	}
	sort.Strings(docIDs)

	fmt.Printf("Source:     %s\n", dir)
	fmt.Printf("Collection: %s @ %s\n", runCfg.Index.Collection, runCfg.Index.URL)
	fmt.Printf("Documents:  %d\n", len(records))
	fmt.Printf("Chunks:     %d\n", totalChunks)

	if n, err := buildIndex(runCfg).Count(cmd.Context(), runCfg.Index.Collection); err == nil {
		fmt.Printf("Points:     %d\n", n)
	} else {
		fmt.Printf("Points:     unavailable (%v)\n", err)
	}

	if statusVerbose {
		fmt.Println()
		for _, id := range docIDs {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}
