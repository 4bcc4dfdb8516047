package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-index whenever source files change",
	Long: `Run an initial indexing pass, then watch the source directory and
re-run the pipeline after files are added, changed or removed. Content
checksums keep the re-runs cheap: only changed documents are processed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before re-indexing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	runCfg, dir, err := resolveSourceDir(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, dir); err != nil {
		return err
	}

	runOnce := func() {
		pipeline, store, err := buildPipeline(runCfg, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build pipeline: %v\n", err)
			return
		}
		defer store.Close()

		summary, err := pipeline.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
			return
		}
		fmt.Printf("[%s] indexed=%d skipped=%d failed=%d\n",
			time.Now().Format("15:04:05"), summary.Indexed, summary.Skipped, summary.Failed)
	}

	fmt.Printf("Watching %s (debounce %s)...\n", dir, watchDebounce)
	runOnce()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.Contains(event.Name, string(filepath.Separator)+".") {
				continue // state and other dotfiles
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			if debounce == nil {
				debounce = time.AfterFunc(watchDebounce, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)

		case <-pending:
			debounce = nil
			runOnce()
		}
	}
}

// watchTree registers dir and every non-hidden subdirectory, since
// fsnotify watches are not recursive.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
