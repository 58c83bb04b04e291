package rules

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/crosscheck/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrUnknownRule is returned when an override names a rule the catalog
// does not declare
var ErrUnknownRule = errors.New("unknown rule")

// Override adjusts one rule. Nil fields keep the catalog value.
type Override struct {
	Enabled  *bool   `yaml:"enabled,omitempty"`
	Severity *string `yaml:"severity,omitempty"`
	Message  *string `yaml:"message,omitempty"`
}

// Overrides is the rules.yaml document: rule id -> override
type Overrides struct {
	Rules map[string]Override `yaml:"rules"`
}

// LoadOverrides reads a rules.yaml file
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides parses rules.yaml content
func ParseOverrides(data []byte) (*Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return &o, nil
}

// Apply returns a new catalog with the overrides applied. An id that
// matches no rule of any kind is an error, as is an unknown severity.
func (c *Catalog) Apply(o *Overrides) (*Catalog, error) {
	if o == nil || len(o.Rules) == 0 {
		return c, nil
	}

	known := make(map[string]bool)
	for _, id := range c.IDs() {
		known[id] = true
	}

	var errs []error
	ids := make([]string, 0, len(o.Rules))
	for id := range o.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !known[id] {
			errs = append(errs, fmt.Errorf("%s: %w", id, ErrUnknownRule))
			continue
		}
		if s := o.Rules[id].Severity; s != nil {
			if _, err := model.ParseSeverity(*s); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid rule overrides: %w", errors.Join(errs...))
	}

	byKind := make(map[model.RecordKind][]Rule, len(c.rules))
	for kind, list := range c.rules {
		rules := make([]Rule, len(list))
		copy(rules, list)

		for i := range rules {
			ov, ok := o.Rules[rules[i].ID]
			if !ok {
				continue
			}
			if ov.Enabled != nil {
				rules[i].Enabled = *ov.Enabled
			}
			if ov.Severity != nil {
				sev, _ := model.ParseSeverity(*ov.Severity)
				rules[i].Severity = sev
			}
			if ov.Message != nil && strings.TrimSpace(*ov.Message) != "" {
				rules[i].Message = *ov.Message
			}
		}
		byKind[kind] = rules
	}

	return NewCatalog(byKind), nil
}
