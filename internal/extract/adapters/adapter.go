package adapters

import (
	"regexp"

	"github.com/ppiankov/crosscheck/internal/extract"
	"github.com/ppiankov/crosscheck/internal/model"
)

// Adapter defines the interface for document-specific extractors
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// DocType returns the narrative document this adapter reads
	DocType() model.DocType

	// Fields lists the fields this adapter can extract
	Fields() []model.Field

	// Extract reads one field out of the document text
	Extract(text string, field model.Field, ctx extract.Context) (string, bool)
}

// Registry manages document adapters
type Registry struct {
	adapters map[model.DocType]Adapter
	order    []model.DocType
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make(map[model.DocType]Adapter),
	}

	registry.Register(NewIntakeReportAdapter())
	registry.Register(NewFilingReportAdapter())
	registry.Register(NewDisciplinaryDecisionAdapter())
	registry.Register(NewInvestigationReportAdapter())
	registry.Register(NewTrialReportAdapter())

	return registry
}

// Register registers an adapter, replacing any adapter for the same document
func (r *Registry) Register(adapter Adapter) {
	if _, exists := r.adapters[adapter.DocType()]; !exists {
		r.order = append(r.order, adapter.DocType())
	}
	r.adapters[adapter.DocType()] = adapter
}

// Find returns the adapter for a document type
func (r *Registry) Find(doc model.DocType) (Adapter, bool) {
	a, ok := r.adapters[doc]
	return a, ok
}

// Adapters returns the registered adapters in registration order
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, doc := range r.order {
		out = append(out, r.adapters[doc])
	}
	return out
}

// Extract reads a field out of a narrative document. It never panics: any
// fault inside an adapter is reported as ("", false).
func (r *Registry) Extract(doc model.DocType, text string, field model.Field, ctx extract.Context) (value string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			value, ok = "", false
		}
	}()

	if text == "" {
		return "", false
	}

	adapter, found := r.adapters[doc]
	if !found {
		return "", false
	}
	return adapter.Extract(text, field, ctx)
}

// DateAnchor locates a date a fixed distance after a phrase
type DateAnchor struct {
	Phrase string
	Window int
}

// Layout declares how a document type restates the facts of its row
type Layout struct {
	// Title captures the subject name
	Title *regexp.Regexp

	// IdentityAnchor precedes the comma-delimited identity sentence. May
	// contain {name}, substituted literally.
	IdentityAnchor string

	// AnchorAtLineStart requires the identity anchor to open a line
	AnchorAtLineStart bool

	// SegmentBase is the ordinal of the gender segment after the anchor
	SegmentBase int

	// Window bounds the identity sentence, in runes
	Window int

	// DateAnchors maps a date field to the phrase it follows
	DateAnchors map[model.Field]DateAnchor

	// SignatureField is read from the date on the last non-empty line
	SignatureField model.Field

	// Paragraph bounds free text restating a spreadsheet field
	ParagraphField model.Field
	ParagraphStart string
	ParagraphEnd   string
}

// BaseAdapter interprets a Layout. Document adapters embed it.
type BaseAdapter struct {
	name   string
	doc    model.DocType
	layout Layout
}

// NewBaseAdapter creates an adapter from a layout
func NewBaseAdapter(name string, doc model.DocType, layout Layout) BaseAdapter {
	if layout.Window <= 0 {
		layout.Window = extract.DefaultWindow
	}
	return BaseAdapter{name: name, doc: doc, layout: layout}
}

// Name returns the adapter name
func (b *BaseAdapter) Name() string {
	return b.name
}

// DocType returns the document this adapter reads
func (b *BaseAdapter) DocType() model.DocType {
	return b.doc
}

// Layout returns the declared document layout
func (b *BaseAdapter) Layout() Layout {
	return b.layout
}

// Fields lists the extractable fields in a stable order
func (b *BaseAdapter) Fields() []model.Field {
	var fields []model.Field
	if b.layout.Title != nil {
		fields = append(fields, model.PrimaryIdentityField(kindOf(b.doc)))
	}
	if b.layout.IdentityAnchor != "" {
		fields = append(fields,
			model.FieldGender,
			model.FieldEthnicity,
			model.FieldBirthDate,
			model.FieldEducation,
			model.FieldPartyMember,
		)
	}
	for _, f := range dateFieldOrder {
		if _, ok := b.layout.DateAnchors[f]; ok {
			fields = append(fields, f)
		}
	}
	if b.layout.SignatureField != "" {
		fields = append(fields, b.layout.SignatureField)
	}
	if b.layout.ParagraphField != "" {
		fields = append(fields, b.layout.ParagraphField)
	}
	return fields
}

// Extract reads a field according to the layout
func (b *BaseAdapter) Extract(text string, field model.Field, ctx extract.Context) (string, bool) {
	if text == "" {
		return "", false
	}

	switch field {
	case model.FieldInvestigatedName, model.FieldReflectedName:
		return extract.TitleName(text, b.layout.Title)

	case model.FieldGender:
		return b.segment(text, ctx, extract.OffsetGender, nil)
	case model.FieldEthnicity:
		return b.segment(text, ctx, extract.OffsetEthnicity, nil)
	case model.FieldBirthDate:
		return b.segment(text, ctx, extract.OffsetBirth, extract.BirthSegment)
	case model.FieldEducation:
		return b.segment(text, ctx, extract.OffsetEducation, extract.EducationSegment)
	case model.FieldPartyMember:
		window, ok := b.window(text, ctx)
		if !ok {
			return "", false
		}
		return extract.PartyMembership(window)
	}

	if anchor, ok := b.layout.DateAnchors[field]; ok {
		return extract.DateAfter(text, anchor.Phrase, anchor.Window)
	}
	if field == b.layout.SignatureField && field != "" {
		return extract.SignatureDate(text)
	}
	if field == b.layout.ParagraphField && field != "" {
		return extract.Paragraph(text, b.layout.ParagraphStart, b.layout.ParagraphEnd, ctx)
	}

	return "", false
}

func (b *BaseAdapter) window(text string, ctx extract.Context) (string, bool) {
	if b.layout.IdentityAnchor == "" {
		return "", false
	}
	anchor, ok := ctx.Fill(b.layout.IdentityAnchor)
	if !ok {
		return "", false
	}
	if b.layout.AnchorAtLineStart {
		return extract.LineWindow(text, anchor, b.layout.Window)
	}
	return extract.Window(text, anchor, b.layout.Window)
}

func (b *BaseAdapter) segment(text string, ctx extract.Context, offset int, trim func(string) string) (string, bool) {
	window, ok := b.window(text, ctx)
	if !ok {
		return "", false
	}

	seg, ok := extract.Segment(window, b.layout.SegmentBase+offset)
	if !ok {
		return "", false
	}
	if trim != nil {
		seg = trim(seg)
	}
	return seg, seg != ""
}

var dateFieldOrder = []model.Field{
	model.FieldAcceptanceTime,
	model.FieldDisposalTime,
	model.FieldFilingTime,
	model.FieldClosingTime,
	model.FieldInvestigationEndTime,
	model.FieldTrialAcceptanceTime,
}

func kindOf(doc model.DocType) model.RecordKind {
	if doc == model.DocIntakeReport {
		return model.KindClue
	}
	return model.KindCase
}
