package lookup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/normalize"
)

// Header aliases accepted for each column of a lookup CSV
var csvHeaders = map[string][]string{
	"authority": {"authority", "立案机关"},
	"category":  {"category", "类别"},
	"agency":    {"agency", "填报单位"},
}

// CSVFile loads entries from a CSV file with a header row
type CSVFile string

// Load reads the file
func (f CSVFile) Load(_ context.Context) ([]model.AuthorityAgency, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadCSV(file)
}

// ReadCSV parses lookup entries. Columns are located by header; the
// category column is optional.
func ReadCSV(r io.Reader) ([]model.AuthorityAgency, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("lookup csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup csv header: %w", err)
	}

	idx := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(normalize.Header(h))
		for col, aliases := range csvHeaders {
			for _, a := range aliases {
				if h == a {
					idx[col] = i
				}
			}
		}
	}

	var missing []string
	for _, col := range []string{"authority", "agency"} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var entries []model.AuthorityAgency
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read lookup csv: %w", err)
		}
		entries = append(entries, model.AuthorityAgency{
			Authority: cell(row, "authority"),
			Category:  cell(row, "category"),
			Agency:    cell(row, "agency"),
		})
	}
	return entries, nil
}
