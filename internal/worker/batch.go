package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/crosscheck/internal/model"
)

// Checker checks one registry file
type Checker interface {
	CheckFile(ctx context.Context, path string) (*model.Report, error)
}

// FileJob checks one file of a batch
type FileJob struct {
	Position int
	Path     string
	Checker  Checker
}

// Index returns the job's position in the batch
func (j *FileJob) Index() int { return j.Position }

// Execute runs the check
func (j *FileJob) Execute(ctx context.Context) Result {
	report, err := j.Checker.CheckFile(ctx, j.Path)
	return &FileResult{
		Position: j.Position,
		Path:     j.Path,
		Report:   report,
		Error:    err,
	}
}

// FileResult is the report of one file, or the error that prevented it
type FileResult struct {
	Position int
	Path     string
	Report   *model.Report
	Error    error
}

// Index returns the file's position in the batch
func (r *FileResult) Index() int { return r.Position }

// GetError returns the check error
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchProcessor checks several files concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessFiles checks every path and returns one result per path, in input
// order. Files never started because ctx ended report ctx's error.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, path := range paths {
			if !pool.Submit(&FileJob{Position: i, Path: path, Checker: b.checker}) {
				return
			}
		}
	}()

	out := make([]*FileResult, len(paths))
	for _, result := range pool.Collect() {
		r := result.(*FileResult)
		out[r.Position] = r
	}

	for i, r := range out {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &FileResult{Position: i, Path: paths[i], Error: err}
		}
	}
	return out
}

// ReadPathList reads registry paths from a file, one per line. Blank lines
// and # comments are skipped, duplicates dropped, and relative paths
// resolved against the list file's directory.
func ReadPathList(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		line = filepath.Clean(line)

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
