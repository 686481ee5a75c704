package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Load reads a condition catalog from a CSV file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	cat, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	slog.Info("condition catalog loaded", "path", path, "conditions", cat.Len(), "symptoms", len(cat.Symptoms()))
	return cat, nil
}

// Read parses a catalog with one row per condition. Header names are
// normalized (trimmed, lower-cased, spaces to underscores); every column that
// is neither a text column nor a risk attribute is a symptom. Cells that are
// not numeric count as 0.
func Read(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty catalog")
		}
		return nil, err
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = NormalizeColumn(h)
	}

	nameCol, descCol, treatCol := -1, -1, -1
	var symptoms []string
	for i, c := range columns {
		switch {
		case c == ColumnName:
			nameCol = i
		case c == ColumnDescription:
			descCol = i
		case c == ColumnTreatment:
			treatCol = i
		case IsRisk(c):
		default:
			symptoms = append(symptoms, c)
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("missing %q column", ColumnName)
	}

	b := NewBuilder(symptoms)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		var present, risks []string
		for i, c := range columns {
			if i == nameCol || i == descCol || i == treatCol || i >= len(rec) {
				continue
			}
			if !truthy(rec[i]) {
				continue
			}
			if IsRisk(c) {
				risks = append(risks, c)
			} else {
				present = append(present, c)
			}
		}

		name := strings.TrimSpace(cell(rec, nameCol))
		if name == "" {
			slog.Warn("skipping catalog row without a name", "line", line)
			continue
		}
		b.Add(name, cell(rec, descCol), cell(rec, treatCol), present, risks)
	}
	return b.Build()
}

// NormalizeColumn turns a raw header into its canonical attribute name.
func NormalizeColumn(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(clean(h)))
	return strings.ReplaceAll(h, " ", "_")
}

func truthy(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return false
	}
	return int(f) == 1
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return clean(rec[i])
}

func clean(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}
