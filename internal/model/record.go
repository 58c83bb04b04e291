package model

// RecordKind distinguishes the two registries a row can come from
type RecordKind string

const (
	KindClue RecordKind = "clue" // Clue intake registry (线索处置)
	KindCase RecordKind = "case" // Case filing registry (立案)
)

// Valid reports whether k is a known record kind
func (k RecordKind) Valid() bool {
	return k == KindClue || k == KindCase
}

// Field is a logical column name. The literal header text is resolved
// through EngineConfig.Columns since spreadsheet headers are free text.
type Field string

const (
	// Identity
	FieldCaseCode         Field = "case_code"
	FieldPersonCode       Field = "person_code"
	FieldClueCode         Field = "clue_code"
	FieldInvestigatedName Field = "investigated_name"
	FieldReflectedName    Field = "reflected_name"

	// Demographics restated by every narrative document
	FieldGender      Field = "gender"
	FieldEthnicity   Field = "ethnicity"
	FieldBirthDate   Field = "birth_date"
	FieldAge         Field = "age"
	FieldEducation   Field = "education"
	FieldPartyMember Field = "party_member"

	// Case dates
	FieldFilingTime           Field = "filing_time"
	FieldClosingTime          Field = "closing_time"
	FieldInvestigationEndTime Field = "investigation_end_time"
	FieldTrialAcceptanceTime  Field = "trial_acceptance_time"

	// Case outcomes
	FieldDisciplinarySanction   Field = "disciplinary_sanction"
	FieldAdministrativeSanction Field = "administrative_sanction"
	FieldOrganizationMeasure    Field = "organization_measure"
	FieldConfiscationAmount     Field = "confiscation_amount"
	FieldBriefCaseDetails       Field = "brief_case_details"

	// Clue handling
	FieldAcceptanceTime     Field = "acceptance_time"
	FieldDisposalTime       Field = "disposal_time"
	FieldDisposalMethod     Field = "disposal_method"
	FieldSuspectedViolation Field = "suspected_violation"

	// Authority/agency pair checked against the lookup table
	FieldReportingAgency Field = "reporting_agency"
	FieldAuthority       Field = "authority"

	// Narrative document columns, see DocType.Field
	FieldIntakeReport         Field = "intake_report"
	FieldFilingReport         Field = "filing_report"
	FieldDisciplinaryDecision Field = "disciplinary_decision"
	FieldInvestigationReport  Field = "investigation_report"
	FieldTrialReport          Field = "trial_report"
)

// DocType identifies a narrative document. Each document lives in its own
// spreadsheet column, so every DocType doubles as a Field.
type DocType string

const (
	DocIntakeReport         DocType = "intake_report"
	DocFilingReport         DocType = "filing_report"
	DocDisciplinaryDecision DocType = "disciplinary_decision"
	DocInvestigationReport  DocType = "investigation_report"
	DocTrialReport          DocType = "trial_report"
)

// Field returns the column field that carries this document
func (d DocType) Field() Field {
	return Field(d)
}

// DocTypesFor returns the narrative documents attached to a record kind,
// in the order rules iterate over them
func DocTypesFor(kind RecordKind) []DocType {
	switch kind {
	case KindClue:
		return []DocType{DocIntakeReport}
	case KindCase:
		return []DocType{
			DocFilingReport,
			DocDisciplinaryDecision,
			DocInvestigationReport,
			DocTrialReport,
		}
	default:
		return nil
	}
}

// PrimaryIdentityField is the person-name column whose emptiness causes a
// row to be skipped entirely
func PrimaryIdentityField(kind RecordKind) Field {
	if kind == KindClue {
		return FieldReflectedName
	}
	return FieldInvestigatedName
}

// RequiredFields are the columns without which no row of the batch can be
// evaluated
func RequiredFields(kind RecordKind) []Field {
	if kind == KindClue {
		return []Field{FieldReflectedName, FieldClueCode}
	}
	return []Field{FieldInvestigatedName, FieldCaseCode, FieldPersonCode}
}

// NarrativeDocument is a prose attachment of a row. Read once per run.
type NarrativeDocument struct {
	Type DocType
	Text string
}

// Record is one normalized spreadsheet row
type Record struct {
	Index   int                // 0-based data row index (header excluded)
	Kind    RecordKind         // Registry the row belongs to
	Values  map[Field]string   // Normalized cell values, "" when absent
	Docs    map[DocType]string // Narrative document text, "" when absent
	Present map[Field]bool     // Whether the column exists in the header
}

// Value returns the normalized value of a field ("" when absent)
func (r *Record) Value(f Field) string {
	return r.Values[f]
}

// Has reports whether the field's column exists in the batch header
func (r *Record) Has(f Field) bool {
	return r.Present[f]
}

// Doc returns the narrative document of the given type, if attached
func (r *Record) Doc(t DocType) (NarrativeDocument, bool) {
	text := r.Docs[t]
	if text == "" {
		return NarrativeDocument{}, false
	}
	return NarrativeDocument{Type: t, Text: text}, true
}

// SubjectName returns the primary identity value of the row
func (r *Record) SubjectName() string {
	return r.Values[PrimaryIdentityField(r.Kind)]
}

// Identity builds the tagged identity of the row
func (r *Record) Identity() Identity {
	if r.Kind == KindClue {
		return Identity{Kind: KindClue, ClueCode: r.Values[FieldClueCode]}
	}
	return Identity{
		Kind:       KindCase,
		CaseCode:   r.Values[FieldCaseCode],
		PersonCode: r.Values[FieldPersonCode],
	}
}

// ExtractedValue is a value read out of a narrative document. Produced
// fresh per evaluation and never cached across runs.
type ExtractedValue struct {
	Field  Field
	Value  string
	OK     bool // False when the extractor could not locate its anchor/pattern
	Source DocType
}

// Batch is an ordered sequence of raw rows with named columns
type Batch struct {
	Kind    RecordKind
	Source  string     // File name or upload name, informational
	Headers []string   // Literal header texts
	Rows    [][]string // Raw cell values aligned with Headers
}

// AuthorityAgency is one reference tuple of the lookup table
type AuthorityAgency struct {
	Authority string `json:"authority" yaml:"authority"`
	Category  string `json:"category" yaml:"category"`
	Agency    string `json:"agency" yaml:"agency"`
}
