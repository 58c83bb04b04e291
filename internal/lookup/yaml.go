package lookup

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/crosscheck/internal/model"
	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Entries []model.AuthorityAgency `yaml:"entries"`
}

// YAMLFile loads entries from a YAML document with an entries list
type YAMLFile string

// Load reads the file
func (f YAMLFile) Load(_ context.Context) ([]model.AuthorityAgency, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup yaml: %w", err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse lookup yaml: %w", err)
	}
	return doc.Entries, nil
}
