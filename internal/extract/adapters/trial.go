package adapters

import (
	"regexp"

	"github.com/ppiankov/crosscheck/internal/model"
)

// TrialReportAdapter reads case trial reports (审理报告)
type TrialReportAdapter struct {
	BaseAdapter
}

// NewTrialReportAdapter creates a new trial report adapter
func NewTrialReportAdapter() *TrialReportAdapter {
	return &TrialReportAdapter{
		BaseAdapter: NewBaseAdapter("trial", model.DocTrialReport, Layout{
			Title:          regexp.MustCompile(`关于(.+?)同志违纪(?:违法)?案的审理报告`),
			IdentityAnchor: "现将具体情况报告如下",
			SegmentBase:    1, // name precedes gender
			DateAnchors: map[model.Field]DateAnchor{
				model.FieldTrialAcceptanceTime: {Phrase: "案件审理室于", Window: 30},
			},
		}),
	}
}
