package model

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Engine      EngineConfig      `yaml:"engine" mapstructure:"engine"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Lookup      LookupConfig      `yaml:"lookup" mapstructure:"lookup"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
}

// EngineConfig is the immutable configuration handed to the evaluator at
// call time. Nothing inside the engine reads process-wide state.
type EngineConfig struct {
	// Columns maps logical field names to the literal header text
	Columns map[Field]string `yaml:"columns" mapstructure:"columns"`

	// Keywords used by containment, advisory and banned-phrase rules
	Keywords KeywordConfig `yaml:"keywords" mapstructure:"keywords"`

	// EducationAliases maps an education spelling to its canonical form
	EducationAliases map[string]string `yaml:"education_aliases" mapstructure:"education_aliases"`

	// CurrentYear anchors age derivation (age == CurrentYear - birth year)
	CurrentYear int `yaml:"current_year" mapstructure:"current_year"`

	// LookupCategory is the authority/agency category checked per kind
	LookupCategory map[RecordKind]string `yaml:"lookup_category" mapstructure:"lookup_category"`

	// Workers bounds row-partitioned parallel evaluation (<= 1 is serial)
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// KeywordConfig lists the fixed keyword sets
type KeywordConfig struct {
	PartySanctions          []string `yaml:"party_sanctions" mapstructure:"party_sanctions"`
	DisciplinarySanctions   []string `yaml:"disciplinary_sanctions" mapstructure:"disciplinary_sanctions"`
	AdministrativeSanctions []string `yaml:"administrative_sanctions" mapstructure:"administrative_sanctions"`
	OrganizationMeasures    []string `yaml:"organization_measures" mapstructure:"organization_measures"`
	BannedDecisionPhrases   []string `yaml:"banned_decision_phrases" mapstructure:"banned_decision_phrases"`
	ConfiscationTriggers    []string `yaml:"confiscation_triggers" mapstructure:"confiscation_triggers"`
	DisposalMethods         []string `yaml:"disposal_methods" mapstructure:"disposal_methods"`
}

// InputConfig controls how registry files are read
type InputConfig struct {
	Kind            string `yaml:"kind" mapstructure:"kind"`                         // auto, case, clue
	Sheet           string `yaml:"sheet" mapstructure:"sheet"`                       // XLSX sheet name, first sheet when empty
	FilenamePattern string `yaml:"filename_pattern" mapstructure:"filename_pattern"` // Regex uploaded file names must match
	MaxUploadBytes  int64  `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// LookupConfig selects where the authority/agency table is loaded from
type LookupConfig struct {
	Source string `yaml:"source" mapstructure:"source"` // csv:<path>, yaml:<path>, sqlite:<path>, postgres:<dsn>, or empty
}

// CacheConfig controls the lookup snapshot cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls the batch worker pool
type ConcurrencyConfig struct {
	Files   int           `yaml:"files" mapstructure:"files"` // Registry files processed concurrently
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	MaxTableRows  int  `yaml:"max_table_rows" mapstructure:"max_table_rows"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// ServerConfig holds HTTP settings for `serve`
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// DefaultColumns returns the standard header texts of both registries
func DefaultColumns() map[Field]string {
	return map[Field]string{
		FieldCaseCode:               "案件编码",
		FieldPersonCode:             "涉案人员编码",
		FieldClueCode:               "线索编码",
		FieldInvestigatedName:       "被调查人",
		FieldReflectedName:          "被反映人",
		FieldGender:                 "性别",
		FieldEthnicity:              "民族",
		FieldBirthDate:              "出生年月",
		FieldAge:                    "年龄",
		FieldEducation:              "学历",
		FieldPartyMember:            "是否中共党员",
		FieldFilingTime:             "立案时间",
		FieldClosingTime:            "结案时间",
		FieldInvestigationEndTime:   "审查调查终结时间",
		FieldTrialAcceptanceTime:    "审理受理时间",
		FieldDisciplinarySanction:   "党纪处分",
		FieldAdministrativeSanction: "政务处分",
		FieldOrganizationMeasure:    "组织措施",
		FieldConfiscationAmount:     "收缴金额（万元）",
		FieldBriefCaseDetails:       "简要案情",
		FieldAcceptanceTime:         "受理时间",
		FieldDisposalTime:           "处置时间",
		FieldDisposalMethod:         "处置方式",
		FieldSuspectedViolation:     "反映的主要问题",
		FieldReportingAgency:        "填报单位",
		FieldAuthority:              "立案机关",

		DocIntakeReport.Field():         "线索处置报告",
		DocFilingReport.Field():         "立案报告",
		DocDisciplinaryDecision.Field(): "处分决定",
		DocInvestigationReport.Field():  "审查调查报告",
		DocTrialReport.Field():          "审理报告",
	}
}

// DefaultKeywords returns the standard keyword sets
func DefaultKeywords() KeywordConfig {
	return KeywordConfig{
		PartySanctions: []string{
			"开除党籍", "留党察看", "撤销党内职务", "党内严重警告", "党内警告",
		},
		DisciplinarySanctions: []string{
			"开除党籍", "留党察看", "撤销党内职务", "党内严重警告", "党内警告",
		},
		AdministrativeSanctions: []string{
			"开除公职", "政务撤职", "政务降级", "政务记大过", "政务记过", "政务警告",
		},
		OrganizationMeasures: []string{
			"诫勉", "责令检查", "批评教育", "通报批评", "停职检查", "调整职务", "责令辞职", "免职", "降职",
		},
		BannedDecisionPhrases: []string{
			"拟给予", "建议给予", "初步核实", "涉嫌违纪",
		},
		ConfiscationTriggers: []string{
			"收缴", "追缴", "责令退赔",
		},
		DisposalMethods: []string{
			"谈话函询", "初步核实", "暂存待查", "予以了结",
		},
	}
}

// DefaultEngineConfig returns the engine configuration for the given year
func DefaultEngineConfig(year int) EngineConfig {
	return EngineConfig{
		Columns:          DefaultColumns(),
		Keywords:         DefaultKeywords(),
		EducationAliases: map[string]string{"大学本科": "本科"},
		CurrentYear:      year,
		LookupCategory: map[RecordKind]string{
			KindCase: "NSL",
			KindClue: "NSL",
		},
		Workers: 4,
	}
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: DefaultEngineConfig(time.Now().Year()),
		Input: InputConfig{
			Kind:            "auto",
			FilenamePattern: `.*\.(csv|xlsx)$`,
			MaxUploadBytes:  50 << 20,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".crosscheck-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Files:   2,
			Timeout: 5 * time.Minute,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			MaxTableRows:  50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeout:       30 * time.Second,
			RequestTimeout:    2 * time.Minute,
			RequestsPerSecond: 1,
			Burst:             5,
		},
	}
}

// Column returns the literal header text of a field, falling back to the
// logical name when unmapped
func (c EngineConfig) Column(f Field) string {
	if h, ok := c.Columns[f]; ok && h != "" {
		return h
	}
	return string(f)
}

// Validate checks the configuration and reports every problem at once
func (c *Config) Validate() error {
	var errs []string

	if c.Engine.CurrentYear < 1949 || c.Engine.CurrentYear > 2200 {
		errs = append(errs, fmt.Sprintf("engine.current_year (%d) is out of range", c.Engine.CurrentYear))
	}
	if len(c.Engine.Columns) == 0 {
		errs = append(errs, "engine.columns must not be empty")
	}
	for _, kind := range []RecordKind{KindCase, KindClue} {
		for _, f := range RequiredFields(kind) {
			if strings.TrimSpace(c.Engine.Column(f)) == "" {
				errs = append(errs, fmt.Sprintf("engine.columns.%s must not be blank", f))
			}
		}
	}

	switch strings.ToLower(c.Input.Kind) {
	case "", "auto", string(KindCase), string(KindClue):
	default:
		errs = append(errs, fmt.Sprintf("input.kind (%q) must be one of: auto, case, clue", c.Input.Kind))
	}

	if c.Concurrency.Files <= 0 {
		errs = append(errs, "concurrency.files must be positive")
	}
	if c.Concurrency.Timeout <= 0 {
		errs = append(errs, "concurrency.timeout must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("logging.format (%q) must be one of: text, json", c.Logging.Format))
	}

	if c.Server.RequestsPerSecond < 0 {
		errs = append(errs, "server.requests_per_second must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
