// Package roster decodes, validates and stores the swimmer roster and the
// category table that every optimization reads from.
package roster

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an input encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// FormatFromPath picks the format from a file name.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// SwimmerRecord is one raw roster row. ID may be empty and Gender is not yet
// normalised.
type SwimmerRecord struct {
	ID     string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Age    float64 `json:"age" yaml:"age"`
	Time   float64 `json:"time" yaml:"time"`
	Gender string  `json:"gender" yaml:"gender"`
}

// CategoryRecord is one raw category row.
type CategoryRecord struct {
	Name   string  `json:"name" yaml:"name"`
	MinAge float64 `json:"min_age" yaml:"min_age"`
	MaxAge float64 `json:"max_age" yaml:"max_age"`
}

// Document is the undecorated content of a dataset file.
type Document struct {
	Swimmers   []SwimmerRecord  `json:"swimmers" yaml:"swimmers"`
	Categories []CategoryRecord `json:"categories" yaml:"categories"`
}

// Decode reads a document in the given format. CSV input holds the swimmer
// section first and the category section after it, each with its own
// header row.
func Decode(r io.Reader, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, fmt.Errorf("%w: yaml: %w", ErrMalformedInput, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("%w: json: %w", ErrMalformedInput, err)
		}
	case FormatCSV:
		return decodeCSV(r)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return doc, nil
}

// Encode writes doc as YAML or JSON.
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

var (
	swimmerColumns = map[string]string{
		"id": "id", "name": "name", "swimmer": "name",
		"age": "age", "time": "time", "gender": "gender",
	}
	categoryColumns = map[string]string{
		"category": "name", "name": "name",
		"min": "min_age", "min_age": "min_age",
		"max": "max_age", "max_age": "max_age",
	}
)

func decodeCSV(r io.Reader) (Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return Document{}, fmt.Errorf("%w: csv: %w", ErrMalformedInput, err)
	}
	if len(rows) == 0 {
		return Document{}, nil
	}

	var doc Document
	header, err := columnIndex(rows[0], swimmerColumns, "age", "time", "gender")
	if err != nil {
		return Document{}, err
	}
	inCategories := false
	for n, row := range rows[1:] {
		line := n + 2
		if !inCategories && isCategoryHeader(row) {
			if header, err = columnIndex(row, categoryColumns, "name", "min_age", "max_age"); err != nil {
				return Document{}, err
			}
			inCategories = true
			continue
		}
		get := func(col string) string {
			i, ok := header[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if inCategories {
			minAge, err := parseNumber(get("min_age"), line, "min_age")
			if err != nil {
				return Document{}, err
			}
			maxAge, err := parseNumber(get("max_age"), line, "max_age")
			if err != nil {
				return Document{}, err
			}
			doc.Categories = append(doc.Categories, CategoryRecord{Name: get("name"), MinAge: minAge, MaxAge: maxAge})
			continue
		}
		age, err := parseNumber(get("age"), line, "age")
		if err != nil {
			return Document{}, err
		}
		t, err := parseNumber(get("time"), line, "time")
		if err != nil {
			return Document{}, err
		}
		doc.Swimmers = append(doc.Swimmers, SwimmerRecord{
			ID:     get("id"),
			Name:   get("name"),
			Age:    age,
			Time:   t,
			Gender: get("gender"),
		})
	}
	return doc, nil
}

func isCategoryHeader(row []string) bool {
	seen := make(map[string]bool, len(row))
	for _, c := range row {
		seen[categoryColumns[strings.ToLower(strings.TrimSpace(c))]] = true
	}
	return seen["min_age"] && seen["max_age"]
}

func columnIndex(row []string, aliases map[string]string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(row))
	for i, c := range row {
		if col, ok := aliases[strings.ToLower(strings.TrimSpace(c))]; ok {
			if _, dup := idx[col]; !dup {
				idx[col] = i
			}
		}
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: csv header %v lacks column %q", ErrMalformedInput, row, col)
		}
	}
	return idx, nil
}

func parseNumber(raw string, line int, field string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: csv line %d: %s %q is not a number", ErrMalformedInput, line, field, raw)
	}
	return v, nil
}
