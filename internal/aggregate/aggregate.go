// Package aggregate collects issues from evaluated rows into a
// deduplicated, deterministically ordered result with per-rule mismatch
// sets and a severity summary.
package aggregate

import (
	"sort"

	"github.com/ppiankov/crosscheck/internal/model"
)

// MismatchSets maps a rule id to the rows it flagged
type MismatchSets map[string]map[int]struct{}

// Add records row under rule
func (m MismatchSets) Add(rule string, row int) {
	rows, ok := m[rule]
	if !ok {
		rows = make(map[int]struct{})
		m[rule] = rows
	}
	rows[row] = struct{}{}
}

// Rows returns the rows of a rule in ascending order
func (m MismatchSets) Rows(rule string) []int {
	out := make([]int, 0, len(m[rule]))
	for row := range m[rule] {
		out = append(out, row)
	}
	sort.Ints(out)
	return out
}

// Sorted returns every set as an ascending slice
func (m MismatchSets) Sorted() map[string][]int {
	out := make(map[string][]int, len(m))
	for rule := range m {
		out[rule] = m.Rows(rule)
	}
	return out
}

// Partial accumulates the results of a subset of rows. A Partial is owned
// by one goroutine; partials are combined with Merge.
type Partial struct {
	issues     map[string]model.Issue
	mismatches MismatchSets
	evaluated  int
	skipped    int
	faults     int
}

// NewPartial creates an empty accumulator
func NewPartial() *Partial {
	return &Partial{
		issues:     make(map[string]model.Issue),
		mismatches: make(MismatchSets),
	}
}

// Add records an issue. Of two issues with the same key the one ordered
// first is kept; the row still counts toward both rules' mismatch sets.
func (p *Partial) Add(issue model.Issue) {
	p.mismatches.Add(issue.RuleID, issue.Row)

	key := issue.Key()
	if prev, dup := p.issues[key]; dup && !before(issue, prev) {
		return
	}
	p.issues[key] = issue
}

// Evaluated counts one processed row
func (p *Partial) Evaluated(skipped bool) {
	p.evaluated++
	if skipped {
		p.skipped++
	}
}

// Fault counts one recovered rule failure
func (p *Partial) Fault() {
	p.faults++
}

// Merge folds o into p. Merging is associative and commutative.
func (p *Partial) Merge(o *Partial) {
	for key, issue := range o.issues {
		if prev, dup := p.issues[key]; dup && !before(issue, prev) {
			continue
		}
		p.issues[key] = issue
	}
	for rule, rows := range o.mismatches {
		for row := range rows {
			p.mismatches.Add(rule, row)
		}
	}
	p.evaluated += o.evaluated
	p.skipped += o.skipped
	p.faults += o.faults
}

// Result freezes the accumulated state into an ordered result
func (p *Partial) Result() *Result {
	issues := make([]model.Issue, 0, len(p.issues))
	for _, issue := range p.issues {
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool {
		return before(issues[i], issues[j])
	})

	return &Result{
		Issues:     issues,
		Mismatches: p.mismatches.Sorted(),
		Evaluated:  p.evaluated,
		Skipped:    p.skipped,
		Faults:     p.faults,
	}
}

// before orders issues by row, rule sequence, description. Rule id and the
// dedupe key break the remaining ties so the order is total.
func before(a, b model.Issue) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	if a.Description != b.Description {
		return a.Description < b.Description
	}
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	return a.Key() < b.Key()
}

// Result is the outcome of evaluating a batch
type Result struct {
	Issues     []model.Issue
	Mismatches map[string][]int
	Evaluated  int  // Rows processed, skipped rows included
	Skipped    int  // Rows without a primary identity value
	Faults     int  // Rule/row pairs abandoned after a recovered panic
	Partial    bool // Evaluation stopped before the last row
}

// RowsFlagged returns the number of distinct rows with at least one issue
func (r *Result) RowsFlagged() int {
	rows := make(map[int]struct{})
	for _, issue := range r.Issues {
		rows[issue.Row] = struct{}{}
	}
	return len(rows)
}
