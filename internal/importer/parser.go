// Package importer parses heterogeneous transaction CSV files into the
// canonical model: it detects the delimiter, maps arbitrary header
// spellings onto the fixed vocabulary, coerces cell values and classifies
// every row as receita or despesa.
package importer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	enc "github.com/mferraz/financas/internal/encoding"
	"github.com/mferraz/financas/internal/transaction"
)

// MissingColumnsError reports required canonical columns the file does not
// provide under any accepted alias.
type MissingColumnsError struct {
	Columns []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("colunas obrigatórias não encontradas: %s (colunas disponíveis: %s)",
		strings.Join(e.Columns, ", "), strings.Join(e.Found, ", "))
}

// Batch is the coerced content of one file.
type Batch struct {
	// Params are the surviving rows, in file order, deduplicated on the
	// natural key (first occurrence wins).
	Params []transaction.UpsertParams
	// Dropped counts rows discarded for an unparseable date or value.
	Dropped int
	// Duplicates counts rows discarded as intra-batch natural-key repeats.
	Duplicates int
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a CSV file of unknown charset, delimiter and column layout
// and produces a coerced batch. It fails on undecipherable dialects and on
// files missing a required canonical column; individual bad rows only
// increment Dropped.
func (p *Parser) Parse(r io.Reader) (*Batch, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	table, err := ReadTable(data)
	if err != nil {
		return nil, err
	}

	mapped := MapColumns(table.Headers)

	if missing := MissingRequired(mapped); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing, Found: mappedTargets(mapped)}
	}

	batch := &Batch{}
	seen := make(map[transaction.NaturalKey]bool, len(table.Rows))

	for _, raw := range table.Rows {
		row := make(Row, len(raw))
		for header, value := range raw {
			row[mapped[header]] = value
		}

		params, ok := coerceRow(row)
		if !ok {
			batch.Dropped++
			continue
		}

		key := params.NaturalKey()
		if seen[key] {
			batch.Duplicates++
			continue
		}

		seen[key] = true
		batch.Params = append(batch.Params, params)
	}

	return batch, nil
}

func mappedTargets(mapped map[string]string) []string {
	targets := make([]string, 0, len(mapped))
	for _, t := range mapped {
		targets = append(targets, t)
	}

	sort.Strings(targets)

	return targets
}
