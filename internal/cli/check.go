package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ytverify/internal/model"
	"github.com/ppiankov/ytverify/internal/pipeline"
)

var (
	outJSON      string
	outMD        string
	languages    []string
	printSummary bool
	structured   bool
	checkTimeout time.Duration
	noFooter     bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Fact-check a single video",
	Long: `Check retrieves the captions of one video and fact-checks its claims:
- Retrieve captions, rotating client identities when YouTube pushes back
- Normalize them to plain text
- Extract 3-5 verifiable claims
- Label each claim TRUE, FALSE or PARTIALLY TRUE

With --structured, a single prompt over the timestamped transcript returns
claims with timestamps and a summary instead.

Example:
  ytverify check https://youtu.be/dQw4w9WgXcQ
  ytverify check https://www.youtube.com/watch?v=dQw4w9WgXcQ -o result.json -s
  ytverify check https://youtu.be/dQw4w9WgXcQ --structured -l en -l de`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"languages": "captions.languages"})
	},
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&outJSON, "output", "o", "", "output JSON path")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().StringSliceVarP(&languages, "languages", "l", []string{"en", "en-US", "en-GB"}, "preferred caption languages")
	checkCmd.Flags().BoolVarP(&printSummary, "summary", "s", false, "print a human-readable summary instead of JSON")
	checkCmd.Flags().BoolVar(&structured, "structured", false, "single-prompt analysis with timestamps")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 3*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runCheck(cmd *cobra.Command, args []string) error {
	url := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", url)
		fmt.Fprintf(os.Stderr, "Languages: %v\n", a.config.Captions.Languages)
		fmt.Fprintf(os.Stderr, "Caption backend: %s\n", a.config.Captions.Backend)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", checkTimeout)
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer(!noFooter)

	if structured {
		return runStructured(ctx, a, renderer, url)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Retrieving captions...\n")
	}

	result, err := a.pipeline.Check(ctx, url, a.config.Captions.Languages)
	if err != nil {
		return checkError(err)
	}

	report := model.NewReport(result)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Captions via %s strategy (%d attempt(s))\n", result.Strategy, len(result.Attempts))
		fmt.Fprintf(os.Stderr, "✓ Transcript: %d characters\n", result.TranscriptLength)
		fmt.Fprintf(os.Stderr, "✓ Fact-checked %d claim(s)\n", report.Tally.Total)
		fmt.Fprintln(os.Stderr)
	}

	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	if printSummary {
		renderer.RenderSummary(os.Stdout, report)
		return nil
	}
	return pipeline.WriteJSON(os.Stdout, result)
}

func runStructured(ctx context.Context, a *app, renderer *pipeline.Renderer, url string) error {
	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Running structured analysis...\n")
	}

	result, err := a.pipeline.Analyze(ctx, url, a.config.Captions.Languages)
	if err != nil {
		return checkError(err)
	}

	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if printSummary {
		renderer.RenderAnalysisSummary(os.Stdout, result)
		return nil
	}
	return pipeline.WriteJSON(os.Stdout, result)
}

// checkError prints the caller-safe message and returns the full error
func checkError(err error) error {
	f := model.AsFailure(err)
	fmt.Fprintf(os.Stderr, "✗ %s\n", f.PublicMessage())
	return fmt.Errorf("check failed: %w", err)
}
