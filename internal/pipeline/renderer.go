package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/validate"
	"github.com/xuri/excelize/v2"
)

// Severity fill colours of the highlighted XLSX copy
var severityFill = map[model.Severity]string{
	model.SeverityHigh:   "FFC7CE",
	model.SeverityMedium: "FFEB9C",
	model.SeverityLow:    "DDEBF7",
}

var severityLabel = map[model.Severity]string{
	model.SeverityHigh:   "高",
	model.SeverityMedium: "中",
	model.SeverityLow:    "低",
}

var issueColumns = []string{"行号", "编码", "字段", "来源", "规则", "严重程度", "问题描述"}

// Renderer writes reports in the supported formats
type Renderer struct {
	engine        model.EngineConfig
	includeFooter bool
	maxRows       int
	out           io.Writer
}

// NewRenderer creates a renderer; terminal output goes to out
func NewRenderer(engine model.EngineConfig, cfg model.OutputConfig, out io.Writer) *Renderer {
	return &Renderer{
		engine:        engine,
		includeFooter: cfg.IncludeFooter,
		maxRows:       cfg.MaxTableRows,
		out:           out,
	}
}

// SheetRow converts a 0-based data row index to the spreadsheet row number
// (the header is row 1)
func SheetRow(row int) int {
	return row + 2
}

// RenderJSON writes the report as indented JSON. "-" writes to the
// terminal output.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := r.out.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(report)), 0644)
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 核查报告：%s\n\n", subject(report.Source))
	fmt.Fprintf(&b, "- 运行编号：`%s`\n", report.RunID)
	fmt.Fprintf(&b, "- 类型：%s\n", kindLabel(report.Kind))
	fmt.Fprintf(&b, "- 数据行：%d（已核查 %d，跳过 %d）\n", report.Rows, report.Evaluated, report.Skipped)
	fmt.Fprintf(&b, "- 问题：%d（高 %d，中 %d，低 %d）\n",
		report.Summary.Total,
		report.Summary.BySeverity[model.SeverityHigh],
		report.Summary.BySeverity[model.SeverityMedium],
		report.Summary.BySeverity[model.SeverityLow],
	)
	if report.Partial {
		b.WriteString("- **注意：核查超时，结果仅覆盖部分数据行**\n")
	}

	if len(report.Summary.Signals) > 0 {
		b.WriteString("\n## 概况\n\n")
		t := table.NewWriter()
		t.AppendHeader(table.Row{"信号", "级别", "说明"})
		for _, s := range report.Summary.Signals {
			t.AppendRow(table.Row{s.Type, severityLabel[s.Severity], s.Description})
		}
		b.WriteString(t.RenderMarkdown())
		b.WriteString("\n")
	}

	b.WriteString("\n## 问题清单\n\n")
	if len(report.Issues) == 0 {
		b.WriteString("未发现问题。\n")
	} else {
		t := r.issueTable(report.Issues)
		b.WriteString(t.RenderMarkdown())
		b.WriteString("\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "\n---\n生成时间 %s，耗时 %s\n", report.StartedAt.Format("2006-01-02 15:04:05"), report.Duration.Round(time.Millisecond))
	}
	return b.String()
}

// RenderSummary prints a short summary and the first issues as a table
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Fprintf(r.out, "\n%s  %s  rows=%d evaluated=%d skipped=%d issues=%d (high=%d medium=%d low=%d)\n",
		report.Source,
		report.Kind,
		report.Rows,
		report.Evaluated,
		report.Skipped,
		report.Summary.Total,
		report.Summary.BySeverity[model.SeverityHigh],
		report.Summary.BySeverity[model.SeverityMedium],
		report.Summary.BySeverity[model.SeverityLow],
	)
	if report.Partial {
		fmt.Fprintln(r.out, "⚠ Batch timeout reached: results cover the evaluated rows only")
	}
	if len(report.Issues) == 0 {
		return
	}

	issues := report.Issues
	if r.maxRows > 0 && len(issues) > r.maxRows {
		issues = issues[:r.maxRows]
	}

	t := r.issueTable(issues)
	t.SetStyle(table.StyleLight)
	if len(issues) < len(report.Issues) {
		t.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("… %d more", len(report.Issues)-len(issues))})
	}
	fmt.Fprintln(r.out, t.Render())
}

func (r *Renderer) issueTable(issues []model.Issue) table.Writer {
	t := table.NewWriter()
	header := make(table.Row, len(issueColumns))
	for i, c := range issueColumns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, issue := range issues {
		cells := r.issueCells(issue)
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 7, WidthMax: 60}})
	return t
}

func (r *Renderer) issueCells(issue model.Issue) []string {
	labels := make([]string, len(issue.Fields))
	for i, f := range issue.Fields {
		labels[i] = r.engine.Column(f)
	}
	source := ""
	if issue.Source != "" {
		source = r.engine.Column(issue.Source.Field())
	}
	return []string{
		strconv.Itoa(SheetRow(issue.Row)),
		issue.Identity.String(),
		strings.Join(labels, "/"),
		source,
		issue.RuleID,
		severityLabel[issue.Severity],
		issue.Description,
	}
}

// RenderCSV writes the issue list as CSV with a UTF-8 BOM so spreadsheet
// software detects the encoding
func (r *Renderer) RenderCSV(report *model.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}

	if err := r.WriteCSV(report, file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteCSV writes the issue list as CSV to w
func (r *Renderer) WriteCSV(report *model.Report, w io.Writer) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(issueColumns); err != nil {
		return err
	}
	for _, issue := range report.Issues {
		if err := cw.Write(r.issueCells(issue)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderXLSX writes a copy of the registry with the cells of every issue
// filled by severity, plus an issue sheet
func (r *Renderer) RenderXLSX(report *model.Report, batch model.Batch, path string) error {
	f, err := r.Workbook(report, batch)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

// Workbook builds the highlighted workbook
func (r *Renderer) Workbook(report *model.Report, batch model.Batch) (*excelize.File, error) {
	const dataSheet, issueSheet = "数据", "问题清单"

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, dataSheet, 1, batch.Headers); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, row := range batch.Rows {
		if err := writeRow(f, dataSheet, SheetRow(i), row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if err := r.highlight(f, dataSheet, report, batch); err != nil {
		_ = f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(issueSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create issue sheet: %w", err)
	}
	if err := writeRow(f, issueSheet, 1, issueColumns); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, issue := range report.Issues {
		if err := writeRow(f, issueSheet, i+2, r.issueCells(issue)); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// highlight fills each flagged cell with the colour of its most severe issue
func (r *Renderer) highlight(f *excelize.File, sheet string, report *model.Report, batch model.Batch) error {
	idx := validate.NewHeaderIndex(batch.Headers, r.engine.Columns)

	worst := make(map[string]model.Severity)
	for _, issue := range report.Issues {
		for _, field := range issue.Fields {
			col, ok := idx.Index(field)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, SheetRow(issue.Row))
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if issue.Severity.Rank() > worst[cell].Rank() {
				worst[cell] = issue.Severity
			}
		}
	}

	styles := make(map[model.Severity]int)
	for sev, color := range severityFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("create style: %w", err)
		}
		styles[sev] = id
	}

	cells := make([]string, 0, len(worst))
	for cell := range worst {
		cells = append(cells, cell)
	}
	sort.Strings(cells)

	for _, cell := range cells {
		if err := f.SetCellStyle(sheet, cell, cell, styles[worst[cell]]); err != nil {
			return fmt.Errorf("style %s: %w", cell, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func kindLabel(kind model.RecordKind) string {
	switch kind {
	case model.KindClue:
		return "问题线索"
	case model.KindCase:
		return "立案案件"
	default:
		return string(kind)
	}
}
