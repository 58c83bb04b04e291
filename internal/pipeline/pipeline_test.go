package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/rules"
	"github.com/ppiankov/crosscheck/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const filingText = "关于对张三同志立案审查调查的报告\n" +
	"一、张三同志基本情况，男，汉族，1970年5月生，大学本科学历，1993年7月加入中国共产党，现任某县交通运输局局长。\n" +
	"二、张三同志涉嫌违纪违法问题\n张三收受财物共计人民币20万元。\n三、处置意见\n某县纪委监委\n2024年6月1日"

var caseHeaders = []string{"被调查人", "案件编码", "涉案人员编码", "性别", "立案报告"}

func caseRows() [][]string {
	return [][]string{
		{"张三", "A001", "P001", "男", filingText},
		{"张三", "A002", "P001", "女", filingText},
		{"", "", "", "", ""},
		{"张三", "A003", "P001", "男", filingText},
	}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Engine.CurrentYear = 2025
	cfg.Output.IncludeFooter = true
	return cfg
}

func csvContent(headers []string, rows [][]string) string {
	var b strings.Builder
	quote := func(s string) string {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	line := func(cells []string) {
		q := make([]string, len(cells))
		for i, c := range cells {
			q[i] = quote(c)
		}
		b.WriteString(strings.Join(q, ",") + "\n")
	}
	line(headers)
	for _, r := range rows {
		line(r)
	}
	return b.String()
}

func xlsxContent(t *testing.T, sheet string, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		require.NoError(t, writeRow(f, sheet, i+1, row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReader_CSV(t *testing.T) {
	r, err := NewReader(testConfig().Input)
	require.NoError(t, err)

	content := "\n" + csvContent(caseHeaders, caseRows()) + ",,,,\n"
	batch, err := r.Read("registry.csv", strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "registry.csv", batch.Source)
	assert.Equal(t, caseHeaders, batch.Headers)
	assert.Len(t, batch.Rows, 4, "blank rows inside the data are kept, trailing ones dropped")
	assert.Equal(t, filingText, batch.Rows[0][4])
}

func TestReader_GB18030CSV(t *testing.T) {
	r, err := NewReader(testConfig().Input)
	require.NoError(t, err)

	encoded, err := simplifiedchinese.GB18030.NewEncoder().String("被调查人,案件编码\n张三,A001\n")
	require.NoError(t, err)

	batch, err := r.Read("gbk.csv", strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, []string{"被调查人", "案件编码"}, batch.Headers)
	assert.Equal(t, "张三", batch.Rows[0][0])
}

func TestReader_XLSX(t *testing.T) {
	input := testConfig().Input
	input.Sheet = "案件"
	r, err := NewReader(input)
	require.NoError(t, err)

	data := xlsxContent(t, "案件", append([][]string{caseHeaders}, caseRows()...))
	batch, err := r.Read("registry.xlsx", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, caseHeaders, batch.Headers)
	assert.Equal(t, "A002", batch.Rows[1][1])
}

func TestReader_XLSXMissingSheet(t *testing.T) {
	input := testConfig().Input
	input.Sheet = "线索"
	r, err := NewReader(input)
	require.NoError(t, err)

	_, err = r.Read("registry.xlsx", bytes.NewReader(xlsxContent(t, "Sheet1", [][]string{{"a"}})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "线索")
}

func TestReader_Rejections(t *testing.T) {
	input := testConfig().Input
	input.MaxUploadBytes = 64
	r, err := NewReader(input)
	require.NoError(t, err)

	tests := []struct {
		name    string
		file    string
		content string
		want    error
	}{
		{"extension outside pattern", "registry.txt", "a,b\n", ErrFilenameRejected},
		{"too large", "big.csv", strings.Repeat("x", 65), ErrTooLarge},
		{"empty", "empty.csv", "\n\n", ErrNoHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Read(tt.file, strings.NewReader(tt.content))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	input.FilenamePattern = ""
	r, err = NewReader(input)
	require.NoError(t, err)
	_, err = r.Read("registry.txt", strings.NewReader("a\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	input.FilenamePattern = "("
	_, err = NewReader(input)
	assert.Error(t, err)
}

func newTestPipeline(t *testing.T, cfg *model.Config) (*Pipeline, *bytes.Buffer) {
	t.Helper()
	p, err := NewPipeline(cfg, rules.DefaultCatalog(), nil, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	p.renderer = NewRenderer(cfg.Engine, cfg.Output, &out)
	return p, &out
}

func TestPipeline_CheckFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case_registry.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvContent(caseHeaders, caseRows())), 0644))

	p, _ := newTestPipeline(t, testConfig())
	report, err := p.CheckFile(context.Background(), path)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, model.KindCase, report.Kind)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 4, report.Evaluated)
	assert.Equal(t, 1, report.Skipped)
	assert.False(t, report.Partial)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, 1, report.Issues[0].Row)
	assert.Equal(t, "gender.filing_report", report.Issues[0].RuleID)
	assert.Equal(t, []int{1}, report.Mismatches["gender.filing_report"])
	assert.Equal(t, 1, report.Summary.BySeverity[model.SeverityMedium])
}

func TestPipeline_CheckMissingColumns(t *testing.T) {
	p, _ := newTestPipeline(t, testConfig())

	_, err := p.CheckReader(context.Background(), "r.csv", strings.NewReader("被调查人,案件编码\n张三,A1\n"), model.KindCase)

	var missing *validate.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"涉案人员编码"}, missing.Columns)
}

func TestPipeline_ConfiguredKind(t *testing.T) {
	cfg := testConfig()
	cfg.Input.Kind = "clue"
	p, _ := newTestPipeline(t, cfg)

	// A case header checked as a clue registry lacks the clue columns
	_, err := p.CheckReader(context.Background(), "r.csv", strings.NewReader(csvContent(caseHeaders, caseRows())), "")

	var missing *validate.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, model.KindClue, missing.Kind)
}

func TestPipeline_RenderReport(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	p, out := newTestPipeline(t, cfg)

	batch := model.Batch{Source: "registry.csv", Headers: caseHeaders, Rows: caseRows()}
	report, err := p.Check(context.Background(), batch)
	require.NoError(t, err)

	outputs := Outputs{
		JSON:     filepath.Join(dir, "report.json"),
		Markdown: filepath.Join(dir, "report.md"),
		CSV:      filepath.Join(dir, "issues.csv"),
		XLSX:     filepath.Join(dir, "highlighted.xlsx"),
	}
	require.NoError(t, p.RenderReport(report, &batch, outputs, false))

	// JSON uses the flat issue field names
	data, err := os.ReadFile(outputs.JSON)
	require.NoError(t, err)
	var decoded struct {
		Issues []map[string]any `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Issues, 1)
	for _, key := range []string{"row", "case_code", "person_code", "field", "fields", "source", "rule", "description", "severity"} {
		assert.Contains(t, decoded.Issues[0], key)
	}
	assert.Equal(t, "gender", decoded.Issues[0]["field"])

	md, err := os.ReadFile(outputs.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# 核查报告：registry")
	assert.Contains(t, string(md), "gender.filing_report")

	csvData, err := os.ReadFile(outputs.CSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "\ufeff行号"))
	assert.Contains(t, string(csvData), "A002/P001")

	f, err := excelize.OpenFile(outputs.XLSX)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"数据", "问题清单"}, f.GetSheetList())

	// Row 1 of the data (sheet row 3): gender and filing report columns
	for _, cell := range []string{"D3", "E3"} {
		style, err := f.GetCellStyle("数据", cell)
		require.NoError(t, err)
		assert.NotZero(t, style, "expected %s to be highlighted", cell)
	}
	style, err := f.GetCellStyle("数据", "D2")
	require.NoError(t, err)
	assert.Zero(t, style)

	issues, err := f.GetRows("问题清单")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "3", issues[1][0])

	assert.Contains(t, out.String(), "issues=1")
}

func TestRenderer_SummaryTruncates(t *testing.T) {
	cfg := testConfig()
	cfg.Output.MaxTableRows = 1

	var out bytes.Buffer
	r := NewRenderer(cfg.Engine, cfg.Output, &out)

	report := &model.Report{
		Source: "r.csv",
		Kind:   model.KindClue,
		Issues: []model.Issue{
			{Row: 0, Identity: model.Identity{Kind: model.KindClue, ClueCode: "X1"}, Fields: []model.Field{model.FieldAge}, RuleID: "number_format.age", Description: "first", Severity: model.SeverityMedium},
			{Row: 1, Identity: model.Identity{Kind: model.KindClue, ClueCode: "X2"}, Fields: []model.Field{model.FieldAge}, RuleID: "number_format.age", Description: "second", Severity: model.SeverityMedium},
		},
		Partial: true,
	}
	r.RenderSummary(report)

	assert.Contains(t, out.String(), "first")
	assert.NotContains(t, out.String(), "second")
	assert.Contains(t, strings.ToLower(out.String()), "1 more")
	assert.Contains(t, out.String(), "Batch timeout")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "case registry 2025", subject("/data/case_registry-2025.xlsx"))
	assert.Equal(t, ".hidden", subject(".hidden"))
}
