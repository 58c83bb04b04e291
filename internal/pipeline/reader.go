package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format (expected .csv or .xlsx)")
	ErrFilenameRejected  = errors.New("file name does not match the allowed pattern")
	ErrTooLarge          = errors.New("file exceeds the size limit")
	ErrNoHeader          = errors.New("file has no header row")
	ErrUnreadable        = errors.New("file could not be parsed")
)

// Reader loads registry spreadsheets into batches
type Reader struct {
	sheet    string
	pattern  *regexp.Regexp
	maxBytes int64
}

// NewReader creates a reader from the input configuration
func NewReader(cfg model.InputConfig) (*Reader, error) {
	r := &Reader{
		sheet:    cfg.Sheet,
		maxBytes: cfg.MaxUploadBytes,
	}
	if cfg.FilenamePattern != "" {
		re, err := regexp.Compile(cfg.FilenamePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid filename pattern: %w", err)
		}
		r.pattern = re
	}
	return r, nil
}

// ReadFile reads a registry from disk
func (r *Reader) ReadFile(path string) (model.Batch, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.Batch{}, fmt.Errorf("open registry: %w", err)
	}
	defer func() { _ = file.Close() }()

	return r.Read(filepath.Base(path), file)
}

// Read reads a registry from src. name decides the format and is checked
// against the filename pattern.
func (r *Reader) Read(name string, src io.Reader) (model.Batch, error) {
	if r.pattern != nil && !r.pattern.MatchString(name) {
		return model.Batch{}, fmt.Errorf("%w: %s", ErrFilenameRejected, name)
	}

	data, err := r.readAll(src)
	if err != nil {
		return model.Batch{}, err
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		rows, err = readCSV(data)
	case ".xlsx":
		rows, err = r.readXLSX(data)
	default:
		return model.Batch{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return model.Batch{}, err
	}

	rows = trimEmptyRows(rows)
	if len(rows) == 0 {
		return model.Batch{}, ErrNoHeader
	}

	return model.Batch{
		Source:  name,
		Headers: rows[0],
		Rows:    rows[1:],
	}, nil
}

func (r *Reader) readAll(src io.Reader) ([]byte, error) {
	if r.maxBytes <= 0 {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("read registry: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, r.maxBytes)
	}
	return data, nil
}

// readCSV parses CSV content. Files that are not valid UTF-8 are decoded
// as GB18030, the encoding spreadsheet software uses for Chinese CSV.
func readCSV(data []byte) ([][]string, error) {
	if !utf8.Valid(data) {
		decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", ErrUnreadable, err)
	}
	return rows, nil
}

// readXLSX reads the configured sheet, or the first one
func (r *Reader) readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}

	sheet := sheets[0]
	if r.sheet != "" {
		found := false
		for _, s := range sheets {
			if s == r.sheet {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet %q not found (have %s)", r.sheet, strings.Join(sheets, ", "))
		}
		sheet = r.sheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// trimEmptyRows drops blank rows before the header and after the last data
// row. Blank rows in between are kept so row indices match the sheet.
func trimEmptyRows(rows [][]string) [][]string {
	start := 0
	for start < len(rows) && blank(rows[start]) {
		start++
	}
	end := len(rows)
	for end > start && blank(rows[end-1]) {
		end--
	}
	return rows[start:end]
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// subject derives a display name from a registry path
func subject(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}
