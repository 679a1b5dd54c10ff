package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"semindex/config"
	"semindex/internal/adapter/fs"
	"semindex/internal/domain"
	"semindex/internal/usecase"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index the text files of a directory",
	Long: `Chunk and embed every matching text file under the given path. Document
ids are file paths relative to that path. Files already in the index are
skipped unless --force is given.

Examples:
  semindex index .            # Index current directory
  semindex index ./docs -f    # Re-vectorize everything under ./docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "re-vectorize documents that are already indexed")
}

func runIndex(cmd *cobra.Command, args []string) error {
	// Determine path to index
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	cfg := GetConfig()
	progress := newBuildProgress()

	idx, closeIndex, err := openIndex(progress.update)
	if err != nil {
		return err
	}
	defer closeIndex()
	printFallback(idx)

	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	ingest := usecase.NewIngestUseCase(idx, walker, GetLogger())

	fmt.Printf("Scanning %s...\n", path)
	result, err := ingest.Ingest(path, cfg.Index.ChunkTokens, cfg.Index.ChunkOverlap, indexForce)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	report, err := idx.Build()
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if err := saveIndex(idx); err != nil {
		return err
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files added:    %d\n", result.FilesAdded)
	fmt.Printf("  Files skipped:  %d (already indexed)\n", result.FilesSkipped)
	fmt.Printf("  Files failed:   %d\n", result.FilesFailed)
	printReport(report)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	if cfg.Persistence.Enabled {
		fmt.Printf("\nIndex stored at: %s\n", config.IndexPath(GetRootDir(), cfg))
	}
	return nil
}

func printFallback(idx *usecase.Index) {
	if reason := idx.FallbackReason(); reason != "" {
		fmt.Printf("Using %s (%s)\n", idx.Method(), reason)
	}
}

func printReport(report *domain.BuildReport) {
	fmt.Printf("  Method:         %s\n", report.Method)
	fmt.Printf("  Chunks indexed: %d of %d pending\n", report.Indexed, report.Pending)
	fmt.Printf("  Index size:     %d chunks\n", report.Total)
	if len(report.Failures) > 0 {
		fmt.Printf("\nSkipped chunks:\n")
		for _, f := range report.Failures {
			fmt.Printf("  - %s\n", f.Error())
		}
	}
}

// buildProgress renders Build progress. The bar is created on the first
// update, once the chunk total is known.
type buildProgress struct {
	bar   *progressbar.ProgressBar
	start time.Time
}

func newBuildProgress() *buildProgress {
	return &buildProgress{}
}

func (p *buildProgress) update(done, total int) {
	if p.bar == nil {
		p.start = time.Now()
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	p.bar.Set(done)

	// Calculate and display ETA
	if done > 0 {
		elapsed := time.Since(p.start)
		rate := float64(done) / elapsed.Seconds()
		if rate > 0 {
			eta := time.Duration(float64(total-done)/rate) * time.Second
			p.bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
