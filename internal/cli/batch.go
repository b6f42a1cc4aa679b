package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ytverify/internal/model"
	"github.com/ppiankov/ytverify/internal/pipeline"
	"github.com/ppiankov/ytverify/internal/worker"
)

var (
	concurrency       int
	outputDir         string
	batchTimeout      time.Duration
	batchCheckTimeout time.Duration
	batchLanguages    []string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check multiple videos from a file in parallel",
	Long: `Batch checks many videos concurrently:
- Read video URLs from input file (one per line, # comments, "-" for stdin)
- Check them with a bounded number of workers
- Write one <video_id>.json report per successful check

Example:
  ytverify batch urls.txt
  ytverify batch urls.txt --concurrency 4 --output-dir ./reports
  ytverify batch urls.txt --timeout 1h --check-timeout 5m`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"concurrency": "concurrency.workers",
			"languages":   "captions.languages",
		})
	},
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./ytverify-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for batch processing")
	batchCmd.Flags().DurationVar(&batchCheckTimeout, "check-timeout", 3*time.Minute, "timeout for individual checks")
	batchCmd.Flags().StringSliceVarP(&batchLanguages, "languages", "l", []string{"en", "en-US", "en-GB"}, "preferred caption languages")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.closeLog() }()

	cfg := a.config
	if err := a.pipeline.Ready(); err != nil {
		return checkError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ytverify Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v (%v per check)\n", batchTimeout, batchCheckTimeout)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(a.pipeline, cfg.Concurrency.Workers, cfg.Captions.Languages, batchCheckTimeout, a.logger)

	fmt.Fprintf(os.Stderr, "⚙️  Reading URLs from file...\n")
	urls, err := worker.ReadURLsFromFile(file)
	if err != nil {
		return fmt.Errorf("read URLs: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d URLs\n", len(urls))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Checking videos with %d workers...\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	results := processor.ProcessURLs(ctx, urls)

	renderer := pipeline.NewRenderer(true)
	successCount := 0
	failureCount := 0
	falseCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", result.URL, model.AsFailure(result.Error).PublicMessage())
			continue
		}

		report := model.NewReport(result.Result)
		jsonPath := filepath.Join(outputDir, result.Result.VideoID+".json")
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.URL, err)
			continue
		}

		successCount++
		falseCount += report.Tally.False
		fmt.Fprintf(os.Stderr, "✓ %s (%d claims, %d false, %s)\n",
			result.Result.VideoTitle, report.Tally.Total, report.Tally.False, result.Duration.Round(time.Second))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:         %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:       %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:      %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  False claims:  %d\n", falseCount)
	fmt.Fprintf(os.Stderr, "  Output:        %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d checks failed", failureCount)
	}
	return nil
}
