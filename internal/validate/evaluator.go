// Package validate runs the rule catalog over a batch of registry rows.
// Each row is evaluated independently against its own narrative documents,
// the read-only lookup table and the immutable engine configuration.
package validate

import (
	"context"
	"fmt"

	"github.com/ppiankov/crosscheck/internal/aggregate"
	"github.com/ppiankov/crosscheck/internal/extract/adapters"
	"github.com/ppiankov/crosscheck/internal/lookup"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/rules"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Evaluator checks batches against a rule catalog
type Evaluator struct {
	cfg       model.EngineConfig
	catalog   *rules.Catalog
	lookup    lookup.Service
	extractor rules.Extractor
	logger    *zap.Logger
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithLogger sets the logger for recovered rule faults
func WithLogger(logger *zap.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExtractor replaces the document extractor
func WithExtractor(extractor rules.Extractor) Option {
	return func(e *Evaluator) {
		if extractor != nil {
			e.extractor = extractor
		}
	}
}

// NewEvaluator creates an evaluator. svc may be nil, in which case the
// lookup rule is never applicable.
func NewEvaluator(cfg model.EngineConfig, catalog *rules.Catalog, svc lookup.Service, opts ...Option) *Evaluator {
	if catalog == nil {
		catalog = rules.DefaultCatalog()
	}
	e := &Evaluator{
		cfg:       cfg,
		catalog:   catalog,
		lookup:    svc,
		extractor: adapters.NewRegistry(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate checks every row of the batch. The header is validated first; a
// *MissingColumnError aborts the batch. When ctx is cancelled mid-batch the
// rows evaluated so far are returned with Partial set.
func (e *Evaluator) Evaluate(ctx context.Context, batch model.Batch) (*aggregate.Result, error) {
	kind := batch.Kind
	if kind == "" {
		detected, err := DetectKind(batch.Headers, e.cfg)
		if err != nil {
			return nil, err
		}
		kind = detected
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	idx := NewHeaderIndex(batch.Headers, e.cfg.Columns)
	if missing := idx.Missing(kind); len(missing) > 0 {
		return nil, missingColumns(kind, missing, e.cfg)
	}

	env := rules.Env{
		Config:    e.cfg,
		Extractor: e.extractor,
	}
	if e.lookup != nil {
		env.Lookup = e.lookup
	}
	active := e.catalog.Enabled(kind)

	chunks := partition(len(batch.Rows), e.cfg.Workers)
	partials := make([]*aggregate.Partial, len(chunks))

	var g errgroup.Group
	g.SetLimit(workers(e.cfg.Workers))
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			p := aggregate.NewPartial()
			for row := c.start; row < c.end; row++ {
				if ctx.Err() != nil {
					break
				}
				rec := BuildRecord(row, batch.Rows[row], kind, idx, e.cfg)
				e.evaluateRow(rec, active, env, p)
			}
			partials[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate rows: %w", err)
	}

	total := aggregate.NewPartial()
	for _, p := range partials {
		total.Merge(p)
	}
	result := total.Result()
	result.Partial = result.Evaluated < len(batch.Rows)

	e.logger.Debug("batch evaluated",
		zap.String("kind", string(kind)),
		zap.Int("rows", len(batch.Rows)),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("issues", len(result.Issues)),
		zap.Bool("partial", result.Partial),
	)
	return result, nil
}

// evaluateRow runs every applicable rule on one row in declared order
func (e *Evaluator) evaluateRow(rec *model.Record, active []rules.Rule, env rules.Env, p *aggregate.Partial) {
	if rec.SubjectName() == "" {
		p.Evaluated(true)
		return
	}
	p.Evaluated(false)

	identity := rec.Identity()
	for _, rule := range active {
		finding, found, ok := e.check(rule, rec, env)
		if !ok {
			p.Fault()
			continue
		}
		if !found {
			continue
		}
		p.Add(model.Issue{
			Row:         rec.Index,
			Identity:    identity,
			Fields:      finding.Fields,
			Source:      finding.Source,
			RuleID:      rule.ID,
			Description: finding.Description,
			Severity:    rule.Severity,
			Seq:         rule.Seq,
		})
	}
}

// check runs one rule, turning a panic into ok == false
func (e *Evaluator) check(rule rules.Rule, rec *model.Record, env rules.Env) (finding rules.Finding, found, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("rule failed",
				zap.String("rule", rule.ID),
				zap.Int("row", rec.Index),
				zap.String("identity", rec.Identity().String()),
				zap.Any("panic", r),
			)
			finding, found, ok = rules.Finding{}, false, false
		}
	}()

	finding, found = rule.Check(rec, env)
	return finding, found, true
}

type chunk struct {
	start, end int
}

func workers(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// partition splits n rows into contiguous chunks, a few per worker so a
// slow chunk does not hold the whole batch
func partition(n, w int) []chunk {
	if n == 0 {
		return nil
	}
	count := workers(w) * 4
	size := (n + count - 1) / count
	if size < 1 {
		size = 1
	}

	var chunks []chunk
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, chunk{start: start, end: end})
	}
	return chunks
}
