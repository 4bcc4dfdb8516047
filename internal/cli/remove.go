package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <doc-id>",
	Short: "Remove a document's chunks from the index",
	Long: `Delete every vector belonging to the document from the collection and
drop its checksum record, so a later run re-indexes it from scratch.
The document ID is its path relative to the source directory, as shown
by "vecindex status".`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	docID := args[0]
	runCfg, _, err := resolveSourceDir(nil)
	if err != nil {
		return err
	}

	index := buildIndex(runCfg)
	if err := index.Delete(cmd.Context(), runCfg.Index.Collection, docID); err != nil {
		return fmt.Errorf("failed to delete from index: %w", err)
	}

	store, err := openChecksums(runCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dropped, err := store.DeleteByDoc(docID)
	if err != nil {
		return fmt.Errorf("failed to drop checksum: %w", err)
	}

	fmt.Printf("Removed %s (%d checksum record(s) dropped)\n", docID, dropped)
	return nil
}
