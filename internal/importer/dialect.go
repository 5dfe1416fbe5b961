package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// Dialect is the cell delimiter of an incoming file.
type Dialect rune

const (
	DialectComma     Dialect = ','
	DialectSemicolon Dialect = ';'
)

func (d Dialect) String() string { return string(rune(d)) }

// other returns the alternative delimiter to retry with.
func (d Dialect) other() Dialect {
	if d == DialectSemicolon {
		return DialectComma
	}

	return DialectSemicolon
}

var (
	ErrEmptyFile = errors.New("empty file")
	// ErrUndetectableDialect means both delimiter candidates produced a
	// single-column parse.
	ErrUndetectableDialect = errors.New("could not detect delimiter")
)

// Row is one data record keyed by its (deduplicated, lowercased) header.
type Row map[string]string

// Table is the raw parse of a file: cleaned headers plus string-valued rows.
type Table struct {
	Dialect Dialect
	Headers []string
	Rows    []Row
}

// DetectDialect inspects one line of the file and picks the delimiter:
// a semicolon anywhere wins, otherwise comma.
func DetectDialect(line string) Dialect {
	if strings.Contains(line, string(rune(DialectSemicolon))) {
		return DialectSemicolon
	}

	return DialectComma
}

// ReadTable parses UTF-8 CSV content into a Table. The delimiter is detected
// from the first non-empty line; a single-column parse triggers a retry with
// the other candidate before the file is rejected as malformed.
func ReadTable(data []byte) (*Table, error) {
	first := firstNonEmptyLine(data)
	if first == "" {
		return nil, fmt.Errorf("%w: o arquivo CSV está vazio", ErrEmptyFile)
	}

	dialect := DetectDialect(first)

	headers, records, err := parse(data, dialect)
	if err != nil {
		return nil, err
	}

	if len(headers) <= 1 {
		dialect = dialect.other()

		headers, records, err = parse(data, dialect)
		if err != nil {
			return nil, err
		}

		if len(headers) <= 1 {
			return nil, fmt.Errorf("%w: tentados %q e %q",
				ErrUndetectableDialect, DialectSemicolon.String(), DialectComma.String())
		}
	}

	headers = cleanHeaders(headers)

	table := &Table{Dialect: dialect, Headers: headers}

	for _, record := range records {
		if blankRecord(record) {
			continue
		}

		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func parse(data []byte, dialect Dialect) ([]string, [][]string, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = rune(dialect)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: o arquivo CSV está vazio", ErrEmptyFile)
	}

	return rows[0], rows[1:], nil
}

// cleanHeaders lowercases and trims header names and resolves collisions by
// suffixing later occurrences (name, name_1, name_2, ...).
func cleanHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))

	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))

		n, dup := seen[name]
		if dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n)
		} else {
			seen[name] = 1
		}

		out[i] = name
	}

	return out
}

func firstNonEmptyLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}

	return ""
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
