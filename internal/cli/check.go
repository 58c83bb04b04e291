package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ppiankov/crosscheck/internal/lookup"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/pipeline"
	"github.com/ppiankov/crosscheck/internal/rules"
	"github.com/spf13/cobra"
)

var (
	checkKind    string
	outJSON      string
	outMD        string
	outCSV       string
	outXLSX      string
	lookupSource string
	rulesFile    string
	workers      int
	checkTimeout time.Duration
	currentYear  int
	noFooter     bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <registry.csv|registry.xlsx>",
	Short: "Check one registry file and write its report",
	Long: `Check evaluates every row of a case or clue registry:
- Compare identity and demographic columns with the narrative documents
- Compare dates, sanctions and measures with the decisions that state them
- Check date and number formats
- Check the reporting agency against the authority/agency table

Example:
  crosscheck check case_registry.xlsx
  crosscheck check clues.csv --kind clue --md report.md --xlsx highlighted.xlsx
  crosscheck check case_registry.xlsx --lookup sqlite:lookup.db --year 2025`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path (- for stdout)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().StringVar(&outCSV, "csv", "", "output issue list CSV path (optional)")
	checkCmd.Flags().StringVar(&outXLSX, "xlsx", "", "output highlighted XLSX copy (optional)")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Evaluation flags
	addEvaluationFlags(checkCmd)
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Minute, "evaluation timeout; rows left unevaluated make the report partial")
}

// addEvaluationFlags registers the flags shared by check, batch and serve
func addEvaluationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&checkKind, "kind", "auto", "registry kind: auto, case, clue")
	cmd.Flags().StringVar(&lookupSource, "lookup", "", "authority/agency table (csv:<path>, yaml:<path>, sqlite:<path>, postgres://...)")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "rule overrides file (YAML)")
	cmd.Flags().IntVar(&workers, "workers", 4, "parallel row workers per registry")
	cmd.Flags().IntVar(&currentYear, "year", time.Now().Year(), "year used to derive ages")
}

// applyFlags overrides the loaded configuration with flags the user set
func applyFlags(cmd *cobra.Command, cfg *model.Config) error {
	flags := cmd.Flags()
	if flags.Changed("kind") {
		if _, err := parseKindFlag(checkKind); err != nil {
			return err
		}
		cfg.Input.Kind = checkKind
	}
	if flags.Changed("lookup") {
		cfg.Lookup.Source = lookupSource
	}
	if flags.Changed("workers") {
		cfg.Engine.Workers = workers
	}
	if flags.Changed("year") {
		cfg.Engine.CurrentYear = currentYear
	}
	if flags.Changed("timeout") {
		cfg.Concurrency.Timeout = checkTimeout
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	return cfg.Validate()
}

// newPipeline builds the pipeline for the effective configuration. The
// catalog and lookup table are returned for callers that expose them.
func newPipeline(ctx context.Context, cfg *model.Config) (*pipeline.Pipeline, *rules.Catalog, *lookup.Table, error) {
	catalog, err := loadCatalog(rulesFile)
	if err != nil {
		return nil, nil, nil, err
	}
	table, err := openLookup(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if table == nil && verbose {
		fmt.Fprintf(os.Stderr, "No lookup table configured: authority/agency checks are skipped\n")
	}

	p, err := pipeline.NewPipeline(cfg, catalog, lookupService(table), logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return p, catalog, table, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg := appConfig
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", path)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", cfg.Concurrency.Timeout)
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Engine.Workers)
		fmt.Fprintln(os.Stderr)
	}

	p, _, _, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	batch, err := p.Reader().ReadFile(path)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	kind, _ := parseKindFlag(cfg.Input.Kind)
	batch.Kind = kind

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Read %d rows, %d columns\n", len(batch.Rows), len(batch.Headers))
	}

	report, err := p.Check(ctx, batch)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Evaluated %d rows (%d skipped)\n", report.Evaluated, report.Skipped)
		fmt.Fprintf(os.Stderr, "✓ Found %d issues in %d rows\n", report.Summary.Total, report.Summary.RowsFlagged)
		fmt.Fprintln(os.Stderr)
	}

	outputs := pipeline.Outputs{JSON: outJSON, Markdown: outMD, CSV: outCSV, XLSX: outXLSX}
	if err := p.RenderReport(report, &batch, outputs, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
