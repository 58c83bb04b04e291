package model

import "time"

// Report represents the complete result of checking one registry file
type Report struct {
	RunID     string        `json:"run_id"`     // Unique id of this run
	Kind      RecordKind    `json:"kind"`       // Registry kind that was checked
	Source    string        `json:"source"`     // File or upload name
	StartedAt time.Time     `json:"started_at"` // When evaluation began
	Duration  time.Duration `json:"duration_ns"`

	Rows      int  `json:"rows"`      // Data rows in the batch
	Evaluated int  `json:"evaluated"` // Rows evaluated (skipped rows included)
	Skipped   int  `json:"skipped"`   // Rows skipped for an empty identity field
	Partial   bool `json:"partial"`   // Stopped early (batch timeout); results cover evaluated rows

	Issues     []Issue          `json:"issues"`
	Mismatches map[string][]int `json:"mismatch_index_sets"` // Rule id -> sorted row indices
	Summary    Summary          `json:"summary"`
}

// Summary is the transparent breakdown of a report's issues
type Summary struct {
	Total       int              `json:"total"`
	RowsFlagged int              `json:"rows_flagged"`
	BySeverity  map[Severity]int `json:"by_severity"`
	ByRule      map[string]int   `json:"by_rule"`
	Signals     []Signal         `json:"signals,omitempty"`
}

// Signal is a batch-level observation with the data it was derived from
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies batch-level signals
type SignalType string

const (
	SignalHighSeverity     SignalType = "high_severity"     // At least one high issue
	SignalFlaggedRatio     SignalType = "flagged_ratio"     // Share of rows with any issue
	SignalDominantRule     SignalType = "dominant_rule"     // One rule produces most issues
	SignalSkippedRows      SignalType = "skipped_rows"      // Rows without identity
	SignalPartialResult    SignalType = "partial_result"    // Batch timeout hit
	SignalExtractionFaults SignalType = "extraction_faults" // Rules recovered from a fault
)
