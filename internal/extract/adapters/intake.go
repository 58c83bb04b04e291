package adapters

import (
	"regexp"

	"github.com/ppiankov/crosscheck/internal/model"
)

// IntakeReportAdapter reads clue disposal reports (线索处置报告)
type IntakeReportAdapter struct {
	BaseAdapter
}

// NewIntakeReportAdapter creates a new intake report adapter
func NewIntakeReportAdapter() *IntakeReportAdapter {
	return &IntakeReportAdapter{
		BaseAdapter: NewBaseAdapter("intake", model.DocIntakeReport, Layout{
			Title:          regexp.MustCompile(`关于(.+?)同志问题线索(?:的)?处置(?:情况)?报告`),
			IdentityAnchor: "被反映人基本情况",
			SegmentBase:    1, // name precedes gender
			DateAnchors: map[model.Field]DateAnchor{
				model.FieldAcceptanceTime: {Phrase: "该线索", Window: 40},
			},
			SignatureField: model.FieldDisposalTime,
			ParagraphField: model.FieldSuspectedViolation,
			ParagraphStart: "二、反映{name}同志的主要问题",
			ParagraphEnd:   "三、",
		}),
	}
}
