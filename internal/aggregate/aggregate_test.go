package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/stretchr/testify/assert"
)

func issue(row, seq int, rule, desc string, sev model.Severity) model.Issue {
	return model.Issue{
		Row:         row,
		Identity:    model.Identity{Kind: model.KindCase, CaseCode: "A1", PersonCode: "P1"},
		Fields:      []model.Field{model.FieldGender, model.FieldFilingReport},
		RuleID:      rule,
		Description: desc,
		Severity:    sev,
		Seq:         seq,
	}
}

func TestPartial_DedupesIdenticalIssues(t *testing.T) {
	p := NewPartial()
	p.Add(issue(0, 7, "gender.filing_report", "性别不一致", model.SeverityMedium))
	p.Add(issue(0, 7, "gender.filing_report", "性别不一致", model.SeverityMedium))

	res := p.Result()
	if len(res.Issues) != 1 {
		t.Errorf("Expected 1 issue after dedupe, got %d", len(res.Issues))
	}
	assert.Equal(t, []int{0}, res.Mismatches["gender.filing_report"])
}

func TestPartial_DifferentSeverityIsNotDuplicate(t *testing.T) {
	p := NewPartial()
	p.Add(issue(0, 7, "gender.filing_report", "性别不一致", model.SeverityMedium))
	p.Add(issue(0, 7, "gender.filing_report", "性别不一致", model.SeverityHigh))

	if n := len(p.Result().Issues); n != 2 {
		t.Errorf("Expected 2 issues, got %d", n)
	}
}

func TestPartial_Ordering(t *testing.T) {
	p := NewPartial()
	p.Add(issue(2, 1, "b", "x", model.SeverityLow))
	p.Add(issue(0, 9, "c", "y", model.SeverityLow))
	p.Add(issue(0, 3, "d", "z", model.SeverityLow))
	p.Add(issue(0, 3, "d", "a", model.SeverityLow))

	var got []string
	for _, i := range p.Result().Issues {
		got = append(got, i.Description)
	}

	want := []string{"a", "z", "y", "x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
}

func TestPartial_MergeIsOrderIndependent(t *testing.T) {
	build := func(issues ...model.Issue) *Partial {
		p := NewPartial()
		for _, i := range issues {
			p.Add(i)
		}
		p.Evaluated(false)
		return p
	}

	a := []model.Issue{issue(0, 1, "r1", "d1", model.SeverityHigh), issue(1, 2, "r2", "d2", model.SeverityLow)}
	b := []model.Issue{issue(1, 2, "r2", "d2", model.SeverityLow), issue(3, 1, "r1", "d3", model.SeverityHigh)}
	c := []model.Issue{issue(5, 4, "r4", "d4", model.SeverityMedium)}

	left := build(a...)
	left.Merge(build(b...))
	left.Merge(build(c...))

	right := build(c...)
	bc := build(b...)
	bc.Merge(build(a...))
	right.Merge(bc)

	l, r := left.Result(), right.Result()
	if diff := cmp.Diff(l, r); diff != "" {
		t.Errorf("Merge results differ (-left +right):\n%s", diff)
	}
	assert.Len(t, l.Issues, 4)
	assert.Equal(t, 3, l.Evaluated)
	assert.Equal(t, []int{0, 3}, l.Mismatches["r1"])
}

func TestSummarize(t *testing.T) {
	p := NewPartial()
	for row := 0; row < 4; row++ {
		p.Evaluated(false)
	}
	p.Evaluated(true)
	p.Fault()

	p.Add(issue(0, 1, "name.filing_report", "d0", model.SeverityHigh))
	p.Add(issue(1, 2, "gender.filing_report", "d1", model.SeverityMedium))
	p.Add(issue(1, 2, "gender.filing_report", "d2", model.SeverityMedium))
	p.Add(issue(2, 2, "gender.filing_report", "d3", model.SeverityMedium))
	p.Add(issue(2, 3, "confiscation_amount.trial_report", "d4", model.SeverityLow))

	res := p.Result()
	res.Partial = true
	s := Summarize(res, 10)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.RowsFlagged)
	assert.Equal(t, map[model.Severity]int{
		model.SeverityHigh:   1,
		model.SeverityMedium: 3,
		model.SeverityLow:    1,
	}, s.BySeverity)
	assert.Equal(t, 3, s.ByRule["gender.filing_report"])

	types := make(map[model.SignalType]model.Signal)
	for _, sig := range s.Signals {
		types[sig.Type] = sig
	}
	for _, want := range []model.SignalType{
		model.SignalHighSeverity,
		model.SignalFlaggedRatio,
		model.SignalDominantRule,
		model.SignalSkippedRows,
		model.SignalPartialResult,
		model.SignalExtractionFaults,
	} {
		if _, ok := types[want]; !ok {
			t.Errorf("Expected signal %s", want)
		}
	}

	// 3 of 4 checked rows flagged
	assert.Equal(t, model.SeverityHigh, types[model.SignalFlaggedRatio].Severity)
	assert.Equal(t, "gender.filing_report", types[model.SignalDominantRule].Data["rule"])
}

func TestSummarize_CleanBatch(t *testing.T) {
	p := NewPartial()
	p.Evaluated(false)

	s := Summarize(p.Result(), 1)

	assert.Equal(t, 0, s.Total)
	assert.Len(t, s.Signals, 1)
	assert.Equal(t, model.SeverityLow, s.Signals[0].Severity)
}
