package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ppiankov/crosscheck/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency int
	outputDir   string
	batchCSV    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file...|list.txt>",
	Short: "Check several registry files in parallel",
	Long: `Batch checks many registries concurrently:
- Take registry paths as arguments, or one .txt file listing them (one per line)
- Check files in parallel with a configurable worker count
- Write a JSON and a Markdown report per file

Example:
  crosscheck batch 2024/*.xlsx
  crosscheck batch registries.txt --concurrency 4 --output-dir ./reports`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of files checked concurrently (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./crosscheck-reports", "output directory for reports")
	batchCmd.Flags().BoolVar(&batchCSV, "csv", false, "also write an issue list CSV per file")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().DurationVar(&checkTimeout, "timeout", 0, "evaluation timeout per file (default from config)")
	addEvaluationFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.Files
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	paths := args
	if len(args) == 1 && strings.EqualFold(filepath.Ext(args[0]), ".txt") {
		list, err := worker.ReadPathList(args[0])
		if err != nil {
			return fmt.Errorf("read file list: %w", err)
		}
		paths = list
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Crosscheck Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Files:        %d\n", len(paths))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v per file\n", cfg.Concurrency.Timeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, _, _, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)
	results := processor.ProcessFiles(ctx, paths)

	renderer := p.Renderer()
	names := newNameSet()
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		slug := names.unique(sanitizeFilename(result.Path))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}
		if batchCSV {
			if err := renderer.RenderCSV(result.Report, filepath.Join(outputDir, slug+".csv")); err != nil {
				failureCount++
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write CSV: %v\n", result.Path, err)
				continue
			}
		}

		successCount++
		partial := ""
		if result.Report.Partial {
			partial = ", partial"
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%s, issues: %d%s)\n", result.Path, result.Report.Kind, result.Report.Summary.Total, partial)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d files failed", failureCount, len(results))
	}
	return nil
}

// sanitizeFilename turns a registry path into a report file stem
func sanitizeFilename(path string) string {
	s := filepath.Base(path)
	s = strings.TrimSuffix(s, filepath.Ext(s))

	s = strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	).Replace(s)

	// Limit length without splitting a multi-byte character
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	if s == "" || s == "." {
		s = "report"
	}
	return s
}

// nameSet hands out report stems that do not collide within one batch
type nameSet map[string]int

func newNameSet() nameSet {
	return make(nameSet)
}

func (n nameSet) unique(stem string) string {
	n[stem]++
	if count := n[stem]; count > 1 {
		return stem + "-" + strconv.Itoa(count)
	}
	return stem
}
