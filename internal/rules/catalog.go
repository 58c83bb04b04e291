package rules

import (
	"sort"

	"github.com/ppiankov/crosscheck/internal/model"
)

// Message templates. Placeholders are resolved per issue: {field}, {doc}
// and {other} become column headers; {value}, {extracted} and {category}
// the compared values.
const (
	msgMismatch      = "{field}与{doc}不一致（表格：{value}，文书：{extracted}）"
	msgAge           = "{field}与{doc}不一致（表格：{value}，按出生年份应为{extracted}）"
	msgKeywordAbsent = "{doc}中未出现{field}“{value}”"
	msgBanned        = "{doc}中含有不应出现的表述“{extracted}”"
	msgPartySanction = "{other}为“{value}”，但{field}为“{extracted}”"
	msgDateOrder     = "{field}（{value}）早于{other}（{extracted}）"
	msgLookup        = "{other}“{extracted}”与{field}“{value}”不在{category}对照表中"
	msgAdvisory      = "{doc}中含有“{extracted}”，请人工确认{field}"
	msgFormat        = "{field}格式不正确（{value}）"
	msgParagraph     = "{field}与{doc}中的表述不一致"

	// Fixed templates for the empty-value branches
	msgRestateEmpty = "{field}为空，{doc}中为“{extracted}”"
	msgKeywordEmpty = "{field}为空，但{doc}中含有“{extracted}”"
)

// Catalog is the ordered rule table per record kind
type Catalog struct {
	rules map[model.RecordKind][]Rule
}

// NewCatalog creates a catalog from ordered rule lists. Sequence numbers
// are reassigned from list order.
func NewCatalog(byKind map[model.RecordKind][]Rule) *Catalog {
	c := &Catalog{rules: make(map[model.RecordKind][]Rule)}
	for kind, list := range byKind {
		rules := make([]Rule, len(list))
		copy(rules, list)
		for i := range rules {
			rules[i].Kind = kind
			rules[i].Seq = i
		}
		c.rules[kind] = rules
	}
	return c
}

// DefaultCatalog returns the built-in catalog for both registries
func DefaultCatalog() *Catalog {
	return NewCatalog(map[model.RecordKind][]Rule{
		model.KindCase: caseRules(),
		model.KindClue: clueRules(),
	})
}

// Rules returns a copy of the kind's rules in declared order, disabled
// rules included
func (c *Catalog) Rules(kind model.RecordKind) []Rule {
	list := c.rules[kind]
	out := make([]Rule, len(list))
	copy(out, list)
	return out
}

// Enabled returns the kind's enabled rules in declared order
func (c *Catalog) Enabled(kind model.RecordKind) []Rule {
	var out []Rule
	for _, r := range c.rules[kind] {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Find looks up a rule by id
func (c *Catalog) Find(kind model.RecordKind, id string) (Rule, bool) {
	for _, r := range c.rules[kind] {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// IDs returns every rule id across kinds, sorted
func (c *Catalog) IDs() []string {
	seen := make(map[string]bool)
	for _, list := range c.rules {
		for _, r := range list {
			seen[r.ID] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var caseDocs = []model.DocType{
	model.DocFilingReport,
	model.DocDisciplinaryDecision,
	model.DocInvestigationReport,
	model.DocTrialReport,
}

func caseRules() []Rule {
	var rules []Rule

	for _, f := range []model.Field{
		model.FieldBirthDate,
		model.FieldFilingTime,
		model.FieldClosingTime,
		model.FieldInvestigationEndTime,
		model.FieldTrialAcceptanceTime,
	} {
		rules = append(rules, dateFormat(f))
	}
	rules = append(rules, numberFormat(model.FieldAge))

	rules = append(rules, grid("name", model.FieldInvestigatedName, caseDocs, CompareExact, model.SeverityHigh, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("gender", model.FieldGender, caseDocs, CompareExact, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("ethnicity", model.FieldEthnicity, caseDocs, CompareExact, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("birth_date", model.FieldBirthDate, caseDocs, CompareDate, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("education", model.FieldEducation, caseDocs, CompareExact, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("party_member", model.FieldPartyMember, []model.DocType{
		model.DocFilingReport,
		model.DocInvestigationReport,
		model.DocTrialReport,
	}, CompareExact, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("age", model.FieldAge, caseDocs, CompareAge, model.SeverityMedium, msgAge, PolicyDefault)...)

	rules = append(rules,
		docRule("filing_time", model.FieldFilingTime, model.DocFilingReport, CompareDate, model.SeverityMedium, msgMismatch),
		docRule("closing_time", model.FieldClosingTime, model.DocDisciplinaryDecision, CompareDate, model.SeverityMedium, msgMismatch),
		docRule("investigation_end_time", model.FieldInvestigationEndTime, model.DocInvestigationReport, CompareDate, model.SeverityMedium, msgMismatch),
		docRule("trial_acceptance_time", model.FieldTrialAcceptanceTime, model.DocTrialReport, CompareDate, model.SeverityMedium, msgMismatch),
		Rule{
			ID:         "date_order.closing_time",
			Field:      model.FieldClosingTime,
			Source:     Source{Type: SourceField, Other: model.FieldFilingTime},
			Comparator: CompareDateOrder,
			Severity:   model.SeverityMedium,
			Message:    msgDateOrder,
			Enabled:    true,
		},
		Rule{
			ID:         "party_sanction.party_member",
			Field:      model.FieldPartyMember,
			Source:     Source{Type: SourceField, Other: model.FieldDisciplinarySanction, Keywords: KeywordsPartySanctions},
			Comparator: ComparePartySanction,
			Severity:   model.SeverityHigh,
			Message:    msgPartySanction,
			Enabled:    true,
		},
		keywordRule("disciplinary_sanction", model.FieldDisciplinarySanction, model.DocDisciplinaryDecision, KeywordsDisciplinarySanctions, model.SeverityHigh),
		keywordRule("administrative_sanction", model.FieldAdministrativeSanction, model.DocDisciplinaryDecision, KeywordsAdministrativeSanctions, model.SeverityHigh),
		keywordRule("organization_measure", model.FieldOrganizationMeasure, model.DocTrialReport, KeywordsOrganizationMeasures, model.SeverityMedium),
		Rule{
			ID:         "banned_phrase.disciplinary_decision",
			Field:      model.DocDisciplinaryDecision.Field(),
			Source:     Source{Type: SourceDocument, Doc: model.DocDisciplinaryDecision, Keywords: KeywordsBannedDecisionPhrases},
			Comparator: CompareBannedPhrase,
			Severity:   model.SeverityMedium,
			Message:    msgBanned,
			Enabled:    true,
		},
		advisoryRule(model.FieldConfiscationAmount, model.DocInvestigationReport),
		advisoryRule(model.FieldConfiscationAmount, model.DocTrialReport),
		docRule("brief_case_details", model.FieldBriefCaseDetails, model.DocFilingReport, CompareParagraph, model.SeverityMedium, msgParagraph),
		lookupRule(),
	)

	return rules
}

func clueRules() []Rule {
	var rules []Rule

	for _, f := range []model.Field{
		model.FieldBirthDate,
		model.FieldAcceptanceTime,
		model.FieldDisposalTime,
	} {
		rules = append(rules, dateFormat(f))
	}
	rules = append(rules, numberFormat(model.FieldAge))

	intake := []model.DocType{model.DocIntakeReport}
	rules = append(rules, grid("name", model.FieldReflectedName, intake, CompareExact, model.SeverityHigh, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("gender", model.FieldGender, intake, CompareExact, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("ethnicity", model.FieldEthnicity, intake, CompareExact, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("birth_date", model.FieldBirthDate, intake, CompareDate, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("education", model.FieldEducation, intake, CompareExact, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("party_member", model.FieldPartyMember, intake, CompareExact, model.SeverityMedium, msgMismatch, PolicyRestate)...)
	rules = append(rules, grid("age", model.FieldAge, intake, CompareAge, model.SeverityMedium, msgAge, PolicyDefault)...)

	rules = append(rules,
		docRule("acceptance_time", model.FieldAcceptanceTime, model.DocIntakeReport, CompareDate, model.SeverityMedium, msgMismatch),
		docRule("disposal_time", model.FieldDisposalTime, model.DocIntakeReport, CompareDate, model.SeverityMedium, msgMismatch),
		keywordRule("disposal_method", model.FieldDisposalMethod, model.DocIntakeReport, KeywordsDisposalMethods, model.SeverityMedium),
		docRule("suspected_violation", model.FieldSuspectedViolation, model.DocIntakeReport, CompareParagraph, model.SeverityMedium, msgParagraph),
		lookupRule(),
	)

	return rules
}

// grid expands one (field, comparator) pair over several documents
func grid(prefix string, field model.Field, docs []model.DocType, cmp Comparator, sev model.Severity, msg string, policy Policy) []Rule {
	rules := make([]Rule, 0, len(docs))
	for _, doc := range docs {
		r := docRule(prefix, field, doc, cmp, sev, msg)
		r.Policy = policy
		rules = append(rules, r)
	}
	return rules
}

func docRule(prefix string, field model.Field, doc model.DocType, cmp Comparator, sev model.Severity, msg string) Rule {
	return Rule{
		ID:         prefix + "." + string(doc),
		Field:      field,
		Source:     Source{Type: SourceDocument, Doc: doc},
		Comparator: cmp,
		Severity:   sev,
		Message:    msg,
		Enabled:    true,
	}
}

func keywordRule(prefix string, field model.Field, doc model.DocType, set KeywordSet, sev model.Severity) Rule {
	r := docRule(prefix, field, doc, CompareKeywordSet, sev, msgKeywordAbsent)
	r.Source.Keywords = set
	return r
}

func advisoryRule(field model.Field, doc model.DocType) Rule {
	r := docRule(string(field), field, doc, CompareAdvisory, model.SeverityLow, msgAdvisory)
	r.Source.Keywords = KeywordsConfiscationTriggers
	return r
}

func dateFormat(field model.Field) Rule {
	return Rule{
		ID:         "date_format." + string(field),
		Field:      field,
		Source:     Source{Type: SourceNone},
		Comparator: CompareDateFormat,
		Severity:   model.SeverityMedium,
		Message:    msgFormat,
		Enabled:    true,
	}
}

func numberFormat(field model.Field) Rule {
	return Rule{
		ID:         "number_format." + string(field),
		Field:      field,
		Source:     Source{Type: SourceNone},
		Comparator: CompareNumberFormat,
		Severity:   model.SeverityMedium,
		Message:    msgFormat,
		Enabled:    true,
	}
}

func lookupRule() Rule {
	return Rule{
		ID:         "authority_agency.lookup",
		Field:      model.FieldReportingAgency,
		Source:     Source{Type: SourceLookup, Other: model.FieldAuthority},
		Comparator: CompareLookup,
		Severity:   model.SeverityHigh,
		Message:    msgLookup,
		Enabled:    true,
	}
}
