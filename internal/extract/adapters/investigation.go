package adapters

import (
	"regexp"

	"github.com/ppiankov/crosscheck/internal/model"
)

// InvestigationReportAdapter reads review and investigation reports (审查调查报告)
type InvestigationReportAdapter struct {
	BaseAdapter
}

// NewInvestigationReportAdapter creates a new investigation report adapter
func NewInvestigationReportAdapter() *InvestigationReportAdapter {
	return &InvestigationReportAdapter{
		BaseAdapter: NewBaseAdapter("investigation", model.DocInvestigationReport, Layout{
			Title:          regexp.MustCompile(`关于(.+?)同志(?:严重)?违纪违法问题的审查调查报告`),
			IdentityAnchor: "一、{name}同志基本情况",
			SignatureField: model.FieldInvestigationEndTime,
		}),
	}
}
