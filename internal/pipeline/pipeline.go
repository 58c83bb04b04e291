// Package pipeline reads registry files, runs the evaluator over them and
// renders the resulting reports.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/crosscheck/internal/aggregate"
	"github.com/ppiankov/crosscheck/internal/lookup"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/rules"
	"github.com/ppiankov/crosscheck/internal/validate"
	"go.uber.org/zap"
)

// Pipeline orchestrates reading, evaluation and rendering
type Pipeline struct {
	reader    *Reader
	evaluator *validate.Evaluator
	renderer  *Renderer
	config    *model.Config
	logger    *zap.Logger
}

// NewPipeline creates a pipeline. svc may be nil when no lookup source is
// configured.
func NewPipeline(cfg *model.Config, catalog *rules.Catalog, svc lookup.Service, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader, err := NewReader(cfg.Input)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		reader:    reader,
		evaluator: validate.NewEvaluator(cfg.Engine, catalog, svc, validate.WithLogger(logger)),
		renderer:  NewRenderer(cfg.Engine, cfg.Output, os.Stdout),
		config:    cfg,
		logger:    logger,
	}, nil
}

// Reader returns the pipeline's registry reader
func (p *Pipeline) Reader() *Reader {
	return p.reader
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Check evaluates one batch and builds its report. The batch kind falls
// back to the configured input kind, then to header detection.
func (p *Pipeline) Check(ctx context.Context, batch model.Batch) (*model.Report, error) {
	if batch.Kind == "" {
		batch.Kind = configuredKind(p.config.Input.Kind)
	}
	if batch.Kind == "" {
		kind, err := validate.DetectKind(batch.Headers, p.config.Engine)
		if err != nil {
			return nil, err
		}
		batch.Kind = kind
	}

	if timeout := p.config.Concurrency.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now().UTC()
	result, err := p.evaluator.Evaluate(ctx, batch)
	if err != nil {
		return nil, err
	}

	report := &model.Report{
		RunID:      uuid.NewString(),
		Kind:       batch.Kind,
		Source:     batch.Source,
		StartedAt:  started,
		Duration:   time.Since(started),
		Rows:       len(batch.Rows),
		Evaluated:  result.Evaluated,
		Skipped:    result.Skipped,
		Partial:    result.Partial,
		Issues:     result.Issues,
		Mismatches: result.Mismatches,
		Summary:    aggregate.Summarize(result, len(batch.Rows)),
	}
	if report.Issues == nil {
		report.Issues = []model.Issue{}
	}

	p.logger.Info("registry checked",
		zap.String("run_id", report.RunID),
		zap.String("source", report.Source),
		zap.String("kind", string(report.Kind)),
		zap.Int("rows", report.Rows),
		zap.Int("issues", report.Summary.Total),
		zap.Bool("partial", report.Partial),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// CheckFile reads and checks one registry file
func (p *Pipeline) CheckFile(ctx context.Context, path string) (*model.Report, error) {
	batch, err := p.reader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Check(ctx, batch)
}

// CheckReader reads and checks an uploaded registry
func (p *Pipeline) CheckReader(ctx context.Context, name string, src io.Reader, kind model.RecordKind) (*model.Report, error) {
	batch, err := p.reader.Read(name, src)
	if err != nil {
		return nil, err
	}
	batch.Kind = kind
	return p.Check(ctx, batch)
}

// Outputs names the files a report is written to; empty paths are skipped
type Outputs struct {
	JSON     string
	Markdown string
	CSV      string
	XLSX     string
}

// RenderReport writes the report to the requested outputs and prints the
// terminal summary. batch is needed only for the highlighted XLSX copy.
func (p *Pipeline) RenderReport(report *model.Report, batch *model.Batch, out Outputs, verbose bool) error {
	if out.JSON != "" {
		if err := p.renderer.RenderJSON(report, out.JSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", out.JSON)
		}
	}

	if out.Markdown != "" {
		if err := p.renderer.RenderMarkdown(report, out.Markdown); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", out.Markdown)
		}
	}

	if out.CSV != "" {
		if err := p.renderer.RenderCSV(report, out.CSV); err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote CSV: %s\n", out.CSV)
		}
	}

	if out.XLSX != "" {
		if batch == nil {
			return fmt.Errorf("render XLSX: source rows not available")
		}
		if err := p.renderer.RenderXLSX(report, *batch, out.XLSX); err != nil {
			return fmt.Errorf("render XLSX: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote XLSX: %s\n", out.XLSX)
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}

func configuredKind(kind string) model.RecordKind {
	k := model.RecordKind(kind)
	if k.Valid() {
		return k
	}
	return ""
}
