package rules

import (
	"strconv"
	"strings"

	"github.com/ppiankov/crosscheck/internal/extract"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/normalize"
)

// Extractor reads a field out of a narrative document
type Extractor interface {
	Extract(doc model.DocType, text string, field model.Field, ctx extract.Context) (string, bool)
}

// Lookup answers authority/agency membership questions
type Lookup interface {
	Exists(authority, agency, category string) bool
}

// Env is everything a comparator needs besides the row. It is read-only
// for the duration of a run.
type Env struct {
	Config    model.EngineConfig
	Extractor Extractor
	Lookup    Lookup
}

// Finding is an unsatisfied rule on one row
type Finding struct {
	Fields      []model.Field
	Source      model.DocType
	Description string
}

// Check runs the rule against a row. It reports a finding when the row is
// inconsistent; satisfied and non-applicable rules report false.
func (r Rule) Check(rec *model.Record, env Env) (Finding, bool) {
	if !r.Applicable(rec) {
		return Finding{}, false
	}

	switch r.Comparator {
	case CompareExact, CompareDate:
		return r.checkDocumentValue(rec, env)
	case CompareAge:
		return r.checkAge(rec, env)
	case CompareKeywordSet:
		return r.checkKeywordSet(rec, env)
	case CompareBannedPhrase:
		return r.checkBanned(rec, env)
	case ComparePartySanction:
		return r.checkPartySanction(rec, env)
	case CompareDateOrder:
		return r.checkDateOrder(rec, env)
	case CompareLookup:
		return r.checkLookup(rec, env)
	case CompareAdvisory:
		return r.checkAdvisory(rec, env)
	case CompareDateFormat:
		return r.checkDateFormat(rec, env)
	case CompareNumberFormat:
		return r.checkNumberFormat(rec, env)
	case CompareParagraph:
		return r.checkParagraph(rec, env)
	default:
		return Finding{}, false
	}
}

func (r Rule) extract(rec *model.Record, env Env, field model.Field) (string, bool) {
	if env.Extractor == nil {
		return "", false
	}
	doc, ok := rec.Doc(r.Source.Doc)
	if !ok {
		return "", false
	}
	return env.Extractor.Extract(doc.Type, doc.Text, field, extract.Context{SubjectName: rec.SubjectName()})
}

// checkDocumentValue compares a spreadsheet value with the value the
// document restates, under the empty-value policy
func (r Rule) checkDocumentValue(rec *model.Record, env Env) (Finding, bool) {
	sheet := rec.Value(r.Field)
	extracted, ok := r.extract(rec, env, r.Field)

	if sheet == "" {
		if r.Policy == PolicyRestate && ok {
			return r.docFinding(env, msgRestateEmpty, "", extracted), true
		}
		return Finding{}, false
	}
	if !ok {
		return Finding{}, false
	}

	if r.Comparator == CompareDate {
		a, err := normalize.ParseDate(sheet)
		if err != nil {
			return Finding{}, false
		}
		b, err := normalize.ParseDate(extracted)
		if err != nil {
			return Finding{}, false
		}
		if a.Equal(b) {
			return Finding{}, false
		}
		return r.docFinding(env, r.Message, sheet, b.String()), true
	}

	if Canonical(r.Field, sheet, env.Config) == Canonical(r.Field, extracted, env.Config) {
		return Finding{}, false
	}
	return r.docFinding(env, r.Message, sheet, extracted), true
}

func (r Rule) checkAge(rec *model.Record, env Env) (Finding, bool) {
	if env.Config.CurrentYear <= 0 {
		return Finding{}, false
	}
	age, ok := normalize.Integer(rec.Value(r.Field))
	if !ok {
		return Finding{}, false
	}

	birth, ok := r.extract(rec, env, model.FieldBirthDate)
	if !ok {
		return Finding{}, false
	}
	d, err := normalize.ParseDate(birth)
	if err != nil {
		return Finding{}, false
	}

	expected := env.Config.CurrentYear - d.Year
	if age == expected {
		return Finding{}, false
	}
	return r.docFinding(env, r.Message, rec.Value(r.Field), strconv.Itoa(expected)), true
}

// checkKeywordSet requires the keywords named by the spreadsheet value to
// appear in the document, and an empty value to match a document without
// any keyword of the set
func (r Rule) checkKeywordSet(rec *model.Record, env Env) (Finding, bool) {
	doc, _ := rec.Doc(r.Source.Doc)
	set := r.Source.Keywords.Resolve(env.Config.Keywords)
	sheet := rec.Value(r.Field)

	if sheet == "" {
		if kw, found := extract.FirstKeyword(doc.Text, set); found {
			return r.docFinding(env, msgKeywordEmpty, "", kw), true
		}
		return Finding{}, false
	}

	wanted := extract.Keywords(sheet, set)
	if len(wanted) == 0 {
		wanted = []string{sheet}
	}
	if r.Field == model.FieldDisciplinarySanction {
		wanted = withoutReportedPartySanctions(rec, env, wanted)
	}

	var missing []string
	for _, kw := range wanted {
		if !extract.Contains(doc.Text, kw) {
			missing = append(missing, kw)
		}
	}
	if len(missing) == 0 {
		return Finding{}, false
	}
	return r.docFinding(env, r.Message, strings.Join(missing, "、"), ""), true
}

// withoutReportedPartySanctions drops the party sanctions that the party
// sanction rule already reports for a row whose subject is not a member
func withoutReportedPartySanctions(rec *model.Record, env Env, wanted []string) []string {
	if !rec.Has(model.FieldPartyMember) {
		return wanted
	}
	if Canonical(model.FieldPartyMember, rec.Value(model.FieldPartyMember), env.Config) == "是" {
		return wanted
	}

	party := env.Config.Keywords.PartySanctions
	var out []string
	for _, kw := range wanted {
		if !extract.ContainsAny(kw, party) {
			out = append(out, kw)
		}
	}
	return out
}

func (r Rule) checkBanned(rec *model.Record, env Env) (Finding, bool) {
	doc, _ := rec.Doc(r.Source.Doc)
	found := extract.Keywords(doc.Text, r.Source.Keywords.Resolve(env.Config.Keywords))
	if len(found) == 0 {
		return Finding{}, false
	}
	return Finding{
		Fields:      []model.Field{r.Field},
		Source:      r.Source.Doc,
		Description: r.render(env, r.Message, "", strings.Join(found, "、")),
	}, true
}

// checkPartySanction: a party sanction can only be given to a party member
func (r Rule) checkPartySanction(rec *model.Record, env Env) (Finding, bool) {
	sanction := rec.Value(r.Source.Other)
	if !extract.ContainsAny(sanction, r.Source.Keywords.Resolve(env.Config.Keywords)) {
		return Finding{}, false
	}

	member := rec.Value(r.Field)
	if Canonical(model.FieldPartyMember, member, env.Config) == "是" {
		return Finding{}, false
	}
	if member == "" {
		member = "空"
	}
	return Finding{
		Fields:      []model.Field{r.Field, r.Source.Other},
		Description: r.render(env, r.Message, sanction, member),
	}, true
}

func (r Rule) checkDateOrder(rec *model.Record, env Env) (Finding, bool) {
	later, err := normalize.ParseDate(rec.Value(r.Field))
	if err != nil {
		return Finding{}, false
	}
	earlier, err := normalize.ParseDate(rec.Value(r.Source.Other))
	if err != nil {
		return Finding{}, false
	}
	if earlier.Compare(later) <= 0 {
		return Finding{}, false
	}
	return Finding{
		Fields:      []model.Field{r.Field, r.Source.Other},
		Description: r.render(env, r.Message, later.String(), earlier.String()),
	}, true
}

func (r Rule) checkLookup(rec *model.Record, env Env) (Finding, bool) {
	agency := rec.Value(r.Field)
	authority := rec.Value(r.Source.Other)
	if agency == "" || authority == "" || env.Lookup == nil {
		return Finding{}, false
	}

	category := env.Config.LookupCategory[rec.Kind]
	if env.Lookup.Exists(authority, agency, category) {
		return Finding{}, false
	}

	return Finding{
		Fields:      []model.Field{r.Field, r.Source.Other},
		Description: r.render(env, r.Message, agency, authority, "{category}", category),
	}, true
}

// checkAdvisory flags the subject field for manual confirmation whenever a
// trigger keyword appears in the related document
func (r Rule) checkAdvisory(rec *model.Record, env Env) (Finding, bool) {
	doc, _ := rec.Doc(r.Source.Doc)
	kw, found := extract.FirstKeyword(doc.Text, r.Source.Keywords.Resolve(env.Config.Keywords))
	if !found {
		return Finding{}, false
	}
	return r.docFinding(env, r.Message, rec.Value(r.Field), kw), true
}

func (r Rule) checkDateFormat(rec *model.Record, env Env) (Finding, bool) {
	v := rec.Value(r.Field)
	if v == "" {
		return Finding{}, false
	}
	if _, err := normalize.ParseDate(v); err == nil {
		return Finding{}, false
	}
	return Finding{
		Fields:      []model.Field{r.Field},
		Description: r.render(env, r.Message, v, ""),
	}, true
}

func (r Rule) checkNumberFormat(rec *model.Record, env Env) (Finding, bool) {
	v := rec.Value(r.Field)
	if v == "" {
		return Finding{}, false
	}
	if _, ok := normalize.Integer(v); ok {
		return Finding{}, false
	}
	return Finding{
		Fields:      []model.Field{r.Field},
		Description: r.render(env, r.Message, v, ""),
	}, true
}

func (r Rule) checkParagraph(rec *model.Record, env Env) (Finding, bool) {
	sheet := normalize.StripSpace(rec.Value(r.Field))
	if sheet == "" {
		return Finding{}, false
	}
	extracted, ok := r.extract(rec, env, r.Field)
	if !ok || extracted == sheet {
		return Finding{}, false
	}
	return r.docFinding(env, r.Message, sheet, extracted), true
}

func (r Rule) docFinding(env Env, template, value, extracted string) Finding {
	return Finding{
		Fields:      []model.Field{r.Field, r.Source.Doc.Field()},
		Source:      r.Source.Doc,
		Description: r.render(env, template, value, extracted),
	}
}

// render fills a message template. Values are inserted last so text taken
// from a row is never re-expanded.
func (r Rule) render(env Env, template, value, extracted string, extra ...string) string {
	pairs := append([]string{
		"{field}", env.Config.Column(r.Field),
		"{doc}", env.Config.Column(r.Source.Doc.Field()),
		"{other}", env.Config.Column(r.Source.Other),
	}, extra...)
	out := strings.NewReplacer(pairs...).Replace(template)

	values := strings.NewReplacer(
		"{value}", value,
		"{extracted}", extracted,
	)
	return values.Replace(out)
}

var partyAliases = map[string]string{
	"是":       "是",
	"中共党员":    "是",
	"党员":      "是",
	"中国共产党党员": "是",
	"否":       "否",
	"非党员":     "否",
	"非中共党员":   "否",
	"群众":      "否",
}

// Canonical normalizes a value for exact comparison: whitespace removed,
// education aliases and party membership spellings folded
func Canonical(field model.Field, v string, cfg model.EngineConfig) string {
	v = normalize.StripSpace(normalize.FoldWidth(v))

	switch field {
	case model.FieldEducation:
		v = strings.TrimSuffix(v, "学历")
		if alias, ok := cfg.EducationAliases[v]; ok {
			v = alias
		}
	case model.FieldPartyMember:
		if canon, ok := partyAliases[v]; ok {
			v = canon
		}
	case model.FieldGender:
		v = strings.TrimSuffix(v, "性")
	}
	return v
}
