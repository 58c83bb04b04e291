package aggregate

import (
	"fmt"

	"github.com/ppiankov/crosscheck/internal/model"
)

// Summarize counts issues per severity and rule and derives batch-level
// signals. rows is the number of data rows in the batch.
func Summarize(r *Result, rows int) model.Summary {
	s := model.Summary{
		Total:       len(r.Issues),
		RowsFlagged: r.RowsFlagged(),
		BySeverity: map[model.Severity]int{
			model.SeverityHigh:   0,
			model.SeverityMedium: 0,
			model.SeverityLow:    0,
		},
		ByRule: make(map[string]int),
	}

	for _, issue := range r.Issues {
		s.BySeverity[issue.Severity]++
		s.ByRule[issue.RuleID]++
	}

	if sig, ok := highSeverity(s); ok {
		s.Signals = append(s.Signals, sig)
	}
	s.Signals = append(s.Signals, flaggedRatio(s, r.Evaluated-r.Skipped))
	if sig, ok := dominantRule(s); ok {
		s.Signals = append(s.Signals, sig)
	}
	if r.Skipped > 0 {
		s.Signals = append(s.Signals, model.Signal{
			Type:        model.SignalSkippedRows,
			Severity:    model.SeverityLow,
			Description: fmt.Sprintf("%d rows skipped (empty identity)", r.Skipped),
			Data:        map[string]any{"skipped": r.Skipped},
		})
	}
	if r.Partial {
		s.Signals = append(s.Signals, model.Signal{
			Type:        model.SignalPartialResult,
			Severity:    model.SeverityHigh,
			Description: fmt.Sprintf("Evaluation stopped early: %d/%d rows checked", r.Evaluated, rows),
			Data: map[string]any{
				"evaluated": r.Evaluated,
				"rows":      rows,
			},
		})
	}
	if r.Faults > 0 {
		s.Signals = append(s.Signals, model.Signal{
			Type:        model.SignalExtractionFaults,
			Severity:    model.SeverityMedium,
			Description: fmt.Sprintf("%d rule checks failed and were skipped", r.Faults),
			Data:        map[string]any{"faults": r.Faults},
		})
	}

	return s
}

func highSeverity(s model.Summary) (model.Signal, bool) {
	high := s.BySeverity[model.SeverityHigh]
	if high == 0 {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalHighSeverity,
		Severity:    model.SeverityHigh,
		Description: fmt.Sprintf("%d high severity issues need review", high),
		Data:        map[string]any{"high": high},
	}, true
}

// flaggedRatio reports the share of checked rows with at least one issue
func flaggedRatio(s model.Summary, checked int) model.Signal {
	if checked <= 0 {
		return model.Signal{
			Type:        model.SignalFlaggedRatio,
			Severity:    model.SeverityLow,
			Description: "No rows checked",
			Data:        map[string]any{"checked": 0},
		}
	}

	ratio := float64(s.RowsFlagged) / float64(checked)

	severity := model.SeverityLow
	if ratio >= 0.5 {
		severity = model.SeverityHigh
	} else if ratio >= 0.1 {
		severity = model.SeverityMedium
	}

	return model.Signal{
		Type:        model.SignalFlaggedRatio,
		Severity:    severity,
		Description: fmt.Sprintf("Rows flagged: %d/%d (%.0f%%)", s.RowsFlagged, checked, ratio*100),
		Data: map[string]any{
			"flagged": s.RowsFlagged,
			"checked": checked,
			"ratio":   ratio,
			"formula": "rows_flagged / (evaluated - skipped)",
		},
	}
}

// dominantRule points at a rule producing most of the issues, which
// usually means a column mapping or keyword list problem
func dominantRule(s model.Summary) (model.Signal, bool) {
	if s.Total < 5 {
		return model.Signal{}, false
	}

	var top string
	for rule, n := range s.ByRule {
		if n > s.ByRule[top] || (n == s.ByRule[top] && rule < top) {
			top = rule
		}
	}

	share := float64(s.ByRule[top]) / float64(s.Total)
	if share < 0.5 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalDominantRule,
		Severity:    model.SeverityMedium,
		Description: fmt.Sprintf("Rule %s produced %.0f%% of issues", top, share*100),
		Data: map[string]any{
			"rule":   top,
			"issues": s.ByRule[top],
			"total":  s.Total,
			"share":  share,
		},
	}, true
}
