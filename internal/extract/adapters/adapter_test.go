package adapters

import (
	"testing"

	"github.com/ppiankov/crosscheck/internal/extract"
	"github.com/ppiankov/crosscheck/internal/model"
)

const intakeReport = `关于李四同志问题线索的处置报告
市纪委监委：
该线索系2024年3月5日由信访室移交。
一、被反映人基本情况
李四，女，回族，1980年10月生，硕士研究生学历，中共党员，现任某街道办事处主任。
二、反映李四同志的主要问题
反映李四违规收受管理服务对象礼金。
三、处置意见
拟采取谈话函询方式处置。
某县纪委监委第二监督检查室
2024年4月2日`

const filingReport = `关于对张三同志立案审查调查的报告
一、张三同志基本情况，男，汉族，1970年5月生，大学本科学历，1993年7月加入中国共产党，现任某县交通运输局局长。
二、张三同志涉嫌违纪违法问题
张三利用职务便利，为他人谋取利益，收受财物共计人民币20万元。
三、处置意见
建议对张三同志立案审查调查。
某县纪委监委第一监督检查室
2024年6月1日`

const decision = `关于给予张三同志开除党籍处分的决定
张三，男，汉族，1970年5月生，大学本科学历，1993年7月加入中国共产党，某县交通运输局原局长。
经查，张三严重违反党的纪律。
本处分决定自2025年3月20日起生效。
中共某县纪律检查委员会
2025年3月20日`

const investigationReport = `关于张三同志严重违纪违法问题的审查调查报告
一、张三同志基本情况，男，汉族，1970年5月生，大学本科学历，中共党员。
二、违纪违法事实
略。
某县纪委监委审查调查组
二〇二五年一月十日`

const trialReport = `关于张三同志违纪违法案的审理报告
某县纪委监委案件审理室于2025年1月15日受理张三案。现将具体情况报告如下：张三，男，汉族，1970年5月生，大学本科学历，中共党员，某县交通运输局原局长。
案件审理室
2025年2月1日`

func TestRegistry_AllDocumentTypes(t *testing.T) {
	registry := NewRegistry()

	for _, doc := range append(model.DocTypesFor(model.KindCase), model.DocTypesFor(model.KindClue)...) {
		if _, ok := registry.Find(doc); !ok {
			t.Errorf("Expected adapter for %s", doc)
		}
	}

	if len(registry.Adapters()) != 5 {
		t.Errorf("Expected 5 adapters, got %d", len(registry.Adapters()))
	}
}

func TestRegistry_Extract(t *testing.T) {
	registry := NewRegistry()
	zhang := extract.Context{SubjectName: "张三"}
	li := extract.Context{SubjectName: "李四"}

	tests := []struct {
		desc     string
		doc      model.DocType
		text     string
		field    model.Field
		ctx      extract.Context
		expected string
	}{
		{"intake name", model.DocIntakeReport, intakeReport, model.FieldReflectedName, li, "李四"},
		{"intake gender after name", model.DocIntakeReport, intakeReport, model.FieldGender, li, "女"},
		{"intake ethnicity", model.DocIntakeReport, intakeReport, model.FieldEthnicity, li, "回族"},
		{"intake birth", model.DocIntakeReport, intakeReport, model.FieldBirthDate, li, "1980年10月"},
		{"intake education", model.DocIntakeReport, intakeReport, model.FieldEducation, li, "硕士研究生"},
		{"intake party", model.DocIntakeReport, intakeReport, model.FieldPartyMember, li, "是"},
		{"intake acceptance", model.DocIntakeReport, intakeReport, model.FieldAcceptanceTime, li, "2024-03-05"},
		{"intake disposal", model.DocIntakeReport, intakeReport, model.FieldDisposalTime, li, "2024-04-02"},
		{"intake violation", model.DocIntakeReport, intakeReport, model.FieldSuspectedViolation, li, "反映李四违规收受管理服务对象礼金。"},

		{"filing name", model.DocFilingReport, filingReport, model.FieldInvestigatedName, zhang, "张三"},
		{"filing gender", model.DocFilingReport, filingReport, model.FieldGender, zhang, "男"},
		{"filing ethnicity", model.DocFilingReport, filingReport, model.FieldEthnicity, zhang, "汉族"},
		{"filing birth", model.DocFilingReport, filingReport, model.FieldBirthDate, zhang, "1970年5月"},
		{"filing education", model.DocFilingReport, filingReport, model.FieldEducation, zhang, "大学本科"},
		{"filing party", model.DocFilingReport, filingReport, model.FieldPartyMember, zhang, "是"},
		{"filing time", model.DocFilingReport, filingReport, model.FieldFilingTime, zhang, "2024-06-01"},
		{"filing details", model.DocFilingReport, filingReport, model.FieldBriefCaseDetails, zhang, "张三利用职务便利，为他人谋取利益，收受财物共计人民币20万元。"},

		{"decision name", model.DocDisciplinaryDecision, decision, model.FieldInvestigatedName, zhang, "张三"},
		{"decision gender", model.DocDisciplinaryDecision, decision, model.FieldGender, zhang, "男"},
		{"decision closing", model.DocDisciplinaryDecision, decision, model.FieldClosingTime, zhang, "2025-03-20"},

		{"investigation name", model.DocInvestigationReport, investigationReport, model.FieldInvestigatedName, zhang, "张三"},
		{"investigation education", model.DocInvestigationReport, investigationReport, model.FieldEducation, zhang, "大学本科"},
		{"investigation end", model.DocInvestigationReport, investigationReport, model.FieldInvestigationEndTime, zhang, "2025-01-10"},

		{"trial name", model.DocTrialReport, trialReport, model.FieldInvestigatedName, zhang, "张三"},
		{"trial gender after name", model.DocTrialReport, trialReport, model.FieldGender, zhang, "男"},
		{"trial birth", model.DocTrialReport, trialReport, model.FieldBirthDate, zhang, "1970年5月"},
		{"trial acceptance", model.DocTrialReport, trialReport, model.FieldTrialAcceptanceTime, zhang, "2025-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, ok := registry.Extract(tt.doc, tt.text, tt.field, tt.ctx)
			if !ok {
				t.Fatalf("Expected %s to be extracted from %s", tt.field, tt.doc)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRegistry_DecisionAnchorOpensLine(t *testing.T) {
	registry := NewRegistry()
	text := "关于给予张三同志开除党籍处分的决定\n" +
		"经查，李张三，女，回族，系本案关系人。\n" +
		"张三，男，汉族，1970年5月生，大学本科学历，中共党员。\n"

	got, ok := registry.Extract(model.DocDisciplinaryDecision, text, model.FieldGender, extract.Context{SubjectName: "张三"})
	if !ok {
		t.Fatal("Expected gender to be extracted")
	}
	if got != "男" {
		t.Errorf("Expected 男, got %q", got)
	}

	if _, ok := registry.Extract(model.DocDisciplinaryDecision, "经查，李张三，女，回族。", model.FieldGender, extract.Context{SubjectName: "张三"}); ok {
		t.Error("Expected a longer name to not satisfy the anchor")
	}
}

func TestRegistry_ExtractFailures(t *testing.T) {
	registry := NewRegistry()
	zhang := extract.Context{SubjectName: "张三"}

	tests := []struct {
		desc  string
		doc   model.DocType
		text  string
		field model.Field
		ctx   extract.Context
	}{
		{"empty text", model.DocFilingReport, "", model.FieldGender, zhang},
		{"anchor needs name", model.DocFilingReport, filingReport, model.FieldGender, extract.Context{}},
		{"anchor with other name", model.DocFilingReport, filingReport, model.FieldGender, extract.Context{SubjectName: "王五"}},
		{"unsupported field", model.DocDisciplinaryDecision, decision, model.FieldFilingTime, zhang},
		{"unknown document", model.DocType("memo"), filingReport, model.FieldGender, zhang},
		{"title template mismatch", model.DocTrialReport, filingReport, model.FieldInvestigatedName, zhang},
		{"too few segments", model.DocFilingReport, "一、张三同志基本情况，男，汉族。", model.FieldEducation, zhang},
		{"party status not stated", model.DocFilingReport, "一、张三同志基本情况，男，汉族，1970年5月生，大学本科学历，现任某县交通运输局局长。", model.FieldPartyMember, zhang},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, ok := registry.Extract(tt.doc, tt.text, tt.field, tt.ctx)
			if ok || got != "" {
				t.Errorf("Expected (\"\", false), got (%q, %v)", got, ok)
			}
		})
	}
}

type panickyAdapter struct {
	BaseAdapter
}

func (p *panickyAdapter) Extract(string, model.Field, extract.Context) (string, bool) {
	panic("boom")
}

func TestRegistry_ExtractRecoversPanics(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&panickyAdapter{
		BaseAdapter: NewBaseAdapter("panicky", model.DocTrialReport, Layout{}),
	})

	got, ok := registry.Extract(model.DocTrialReport, trialReport, model.FieldGender, extract.Context{SubjectName: "张三"})
	if ok || got != "" {
		t.Errorf("Expected panic to be reported as failure, got (%q, %v)", got, ok)
	}

	if len(registry.Adapters()) != 5 {
		t.Errorf("Expected replacement to keep 5 adapters, got %d", len(registry.Adapters()))
	}
}

func TestBaseAdapter_Fields(t *testing.T) {
	intake := NewIntakeReportAdapter()
	fields := intake.Fields()

	expected := []model.Field{
		model.FieldReflectedName,
		model.FieldGender,
		model.FieldEthnicity,
		model.FieldBirthDate,
		model.FieldEducation,
		model.FieldPartyMember,
		model.FieldAcceptanceTime,
		model.FieldDisposalTime,
		model.FieldSuspectedViolation,
	}

	if len(fields) != len(expected) {
		t.Fatalf("Expected %d fields, got %d: %v", len(expected), len(fields), fields)
	}
	for i := range expected {
		if fields[i] != expected[i] {
			t.Errorf("Expected field %d to be %s, got %s", i, expected[i], fields[i])
		}
	}

	if NewDisciplinaryDecisionAdapter().Name() != "decision" {
		t.Error("Expected decision adapter name")
	}
}
