package cli

import (
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vecindex/internal/domain"
)

var processCmd = &cobra.Command{
	Use:   "process [path]",
	Short: "Index documents into the vector store",
	Long: `Discover documents under the source directory, extract their text,
chunk, embed and upsert into the configured collection. Documents whose
content checksum is already recorded are skipped.

Examples:
  vecindex process             # Use the configured source directory
  vecindex process ./reports   # Index a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	runCfg, dir, err := resolveSourceDir(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
	)
	var barMu sync.Mutex
	onProgress := func(outcome domain.DocOutcome) {
		barMu.Lock()
		defer barMu.Unlock()
		bar.Add(1)
		if outcome.State == domain.StateFailed {
			fmt.Printf("\n%s: %s\n", outcome.DocID, outcome.Err)
		}
	}

	pipeline, store, err := buildPipeline(runCfg, onProgress)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("Scanning %s...\n", dir)

	summary, err := pipeline.Run(ctx)
	bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printSummary(summary)
	return nil
}

func printSummary(summary domain.RunSummary) {
	fmt.Printf("Indexing complete:\n")
	fmt.Printf("  Documents indexed: %d\n", summary.Indexed)
	fmt.Printf("  Documents skipped: %d (unchanged)\n", summary.Skipped)
	fmt.Printf("  Documents failed:  %d\n", summary.Failed)
	fmt.Printf("  Chunks upserted:   %d\n", summary.Chunks)
}
