// Package results parses the output tables produced by the external workflow
// into an in-memory structure indexed by (year, technology, parameter).
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// OutputFileRegexp matches the per-year cost tables written by the workflow,
// e.g. "costs_2030.csv".
var OutputFileRegexp = regexp.MustCompile(`^costs_(\d{4})\.csv$`)

// ParseError indicates missing or malformed output files.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Row is one normalized output row.
type Row struct {
	Year               int
	Technology         string
	Parameter          string
	Value              float64
	Unit               string
	Source             string
	FurtherDescription string
}

// Table is the loaded result set. Within one table, (year, technology,
// parameter) identifies at most one row. A Table is immutable once loaded.
type Table struct {
	// year → technology → parameter → row
	years map[int]map[string]map[string]Row
}

// Years returns the years present in the table, sorted.
func (t *Table) Years() []int {
	years := make([]int, 0, len(t.years))
	for y := range t.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Technologies returns the technology names available for a year, sorted.
// An unknown year yields an empty slice, not an error.
func (t *Table) Technologies(year int) []string {
	techs := t.years[year]
	names := make([]string, 0, len(techs))
	for name := range techs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parameters returns the parameter names available for a (year, technology),
// sorted. Unknown keys yield an empty slice, not an error.
func (t *Table) Parameters(year int, tech string) []string {
	params := t.years[year][tech]
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the row for the full key tuple.
func (t *Table) Get(year int, tech, param string) (Row, bool) {
	row, ok := t.years[year][tech][param]
	return row, ok
}

// Len returns the total number of rows.
func (t *Table) Len() int {
	n := 0
	for _, techs := range t.years {
		for _, params := range techs {
			n += len(params)
		}
	}
	return n
}

// Load parses every per-year output table found in dir. A directory without
// any matching file, or any malformed file, is fatal; there is no partial or
// best-effort load.
func Load(dir string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ParseError{File: dir, Err: fmt.Errorf("failed to read outputs: %w", err)}
	}

	table := &Table{years: make(map[int]map[string]map[string]Row)}
	found := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := OutputFileRegexp.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		year, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := parseFile(path, year, table); err != nil {
			return nil, err
		}
		found++
	}

	if found == 0 {
		return nil, &ParseError{File: dir, Err: errors.New("no output tables found")}
	}
	return table, nil
}

// Column names expected in the output tables.
const (
	colTechnology  = "technology"
	colParameter   = "parameter"
	colValue       = "value"
	colUnit        = "unit"
	colSource      = "source"
	colDescription = "further description"
)

var requiredColumns = []string{colTechnology, colParameter, colValue, colUnit, colSource}

func parseFile(path string, year int, table *Table) error {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return &ParseError{File: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return &ParseError{File: path, Err: fmt.Errorf("failed to read header: %w", err)}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return &ParseError{File: path, Err: fmt.Errorf("missing column %q", name)}
		}
	}

	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &ParseError{File: path, Err: err}
		}
		line++

		value, err := strconv.ParseFloat(fields[columns[colValue]], 64)
		if err != nil {
			return &ParseError{
				File: path,
				Err:  fmt.Errorf("line %d: invalid value %q", line, fields[columns[colValue]]),
			}
		}

		row := Row{
			Year:       year,
			Technology: fields[columns[colTechnology]],
			Parameter:  fields[columns[colParameter]],
			Value:      value,
			Unit:       fields[columns[colUnit]],
			Source:     fields[columns[colSource]],
		}
		if i, ok := columns[colDescription]; ok && i < len(fields) {
			row.FurtherDescription = fields[i]
		}

		if err := table.add(row); err != nil {
			return &ParseError{File: path, Err: fmt.Errorf("line %d: %w", line, err)}
		}
	}
	return nil
}

func (t *Table) add(row Row) error {
	techs := t.years[row.Year]
	if techs == nil {
		techs = make(map[string]map[string]Row)
		t.years[row.Year] = techs
	}
	params := techs[row.Technology]
	if params == nil {
		params = make(map[string]Row)
		techs[row.Technology] = params
	}
	if _, exists := params[row.Parameter]; exists {
		return fmt.Errorf("duplicate row for technology %q parameter %q", row.Technology, row.Parameter)
	}
	params[row.Parameter] = row
	return nil
}
