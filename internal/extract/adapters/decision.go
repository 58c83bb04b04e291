package adapters

import (
	"regexp"

	"github.com/ppiankov/crosscheck/internal/model"
)

// DisciplinaryDecisionAdapter reads disciplinary decisions (处分决定)
type DisciplinaryDecisionAdapter struct {
	BaseAdapter
}

// NewDisciplinaryDecisionAdapter creates a new disciplinary decision adapter
func NewDisciplinaryDecisionAdapter() *DisciplinaryDecisionAdapter {
	return &DisciplinaryDecisionAdapter{
		BaseAdapter: NewBaseAdapter("decision", model.DocDisciplinaryDecision, Layout{
			Title:             regexp.MustCompile(`关于给予(.+?)同志.*?处分的决定`),
			IdentityAnchor:    "{name}，",
			AnchorAtLineStart: true,
			DateAnchors: map[model.Field]DateAnchor{
				model.FieldClosingTime: {Phrase: "本处分决定自", Window: 30},
			},
		}),
	}
}
