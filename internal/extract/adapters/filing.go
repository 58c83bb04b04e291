package adapters

import (
	"regexp"

	"github.com/ppiankov/crosscheck/internal/model"
)

// FilingReportAdapter reads filing requests and reports (立案报告)
type FilingReportAdapter struct {
	BaseAdapter
}

// NewFilingReportAdapter creates a new filing report adapter
func NewFilingReportAdapter() *FilingReportAdapter {
	return &FilingReportAdapter{
		BaseAdapter: NewBaseAdapter("filing", model.DocFilingReport, Layout{
			Title:          regexp.MustCompile(`关于对(.+?)同志立案审查调查的(?:请示|报告)`),
			IdentityAnchor: "一、{name}同志基本情况",
			SignatureField: model.FieldFilingTime,
			ParagraphField: model.FieldBriefCaseDetails,
			ParagraphStart: "二、{name}同志涉嫌违纪违法问题",
			ParagraphEnd:   "三、",
		}),
	}
}
