package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/rules"
	"github.com/spf13/cobra"
)

var (
	rulesKind     string
	rulesMarkdown bool
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective rule catalog",
	Long: `Print every rule with its subject field, source, comparator, severity and
whether it is enabled, after the overrides of --rules are applied.

Example:
  crosscheck rules
  crosscheck rules --kind clue --rules rules.yaml --md`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesKind, "kind", "", "only rules of this registry kind: case, clue")
	rulesCmd.Flags().StringVar(&rulesFile, "rules", "", "rule overrides file (YAML)")
	rulesCmd.Flags().BoolVar(&rulesMarkdown, "md", false, "print as a Markdown table")
}

func runRules(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(rulesFile)
	if err != nil {
		return err
	}

	kinds := []model.RecordKind{model.KindCase, model.KindClue}
	if rulesKind != "" {
		kind := model.RecordKind(strings.ToLower(rulesKind))
		if !kind.Valid() {
			return fmt.Errorf("invalid --kind %q (expected case or clue)", rulesKind)
		}
		kinds = []model.RecordKind{kind}
	}

	t := rulesTable(catalog, kinds, appConfig.Engine)
	if rulesMarkdown {
		fmt.Fprintln(cmd.OutOrStdout(), t.RenderMarkdown())
		return nil
	}
	t.SetStyle(table.StyleLight)
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func rulesTable(catalog *rules.Catalog, kinds []model.RecordKind, engine model.EngineConfig) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Kind", "Rule", "Field", "Source", "Comparator", "Severity", "Enabled"})

	for _, kind := range kinds {
		for _, r := range catalog.Rules(kind) {
			enabled := "yes"
			if !r.Enabled {
				enabled = "no"
			}
			t.AppendRow(table.Row{kind, r.ID, engine.Column(r.Field), ruleSource(r, engine), r.Comparator, r.Severity, enabled})
		}
	}
	return t
}

func ruleSource(r rules.Rule, engine model.EngineConfig) string {
	switch r.Source.Type {
	case rules.SourceDocument:
		return engine.Column(r.Source.Doc.Field())
	case rules.SourceField, rules.SourceLookup:
		return engine.Column(r.Source.Other)
	default:
		return "-"
	}
}
