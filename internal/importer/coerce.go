package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mferraz/financas/internal/transaction"
)

// dateLayouts are tried in order; day-first layouts come before their
// month-first counterparts so 05/03/2024 reads as the 5th of March.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
	"2006/01/02",
	"02 Jan 2006",
	"02 January 2006",
	"2006.01.02",
	"Jan 02 2006",
	"January 02 2006",
	"20060102",
	"02.01.2006",
	"01-02-2006",
}

// parseDate accepts any of the supported layouts. Rows whose date parses
// under none of them are dropped by the caller.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseAmount parses a numeric cell that may use either comma or dot as the
// decimal separator. The literal "nan" (a spreadsheet-export artifact) and
// blank cells are not numbers.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}

	return d.InexactFloat64(), true
}

// amountOrDefault is parseAmount for the optional decimal fields: a cell
// that fails to parse does not sink the row, it takes the field default.
func amountOrDefault(s string, def float64) float64 {
	v, ok := parseAmount(s)
	if !ok {
		return def
	}

	return v
}

// cleanText trims a text cell and normalizes the "nan" artifact to empty.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}

	return s
}

// coerceRow turns one canonical-keyed raw row into typed upsert params.
// Returns false when the row has no valid date or numeric value; such rows
// are dropped and counted as errors.
func coerceRow(row Row) (transaction.UpsertParams, bool) {
	date, ok := parseDate(row[ColData])
	if !ok {
		return transaction.UpsertParams{}, false
	}

	valor, ok := parseAmount(row[ColValor])
	if !ok {
		return transaction.UpsertParams{}, false
	}

	operacao := strings.ToLower(cleanText(row[ColTipo]))
	if explicit := strings.ToLower(cleanText(row[ColTipoOperacao])); explicit != "" {
		operacao = explicit
	}

	if operacao == "" {
		operacao = transaction.DefaultOperation
	}

	categoria := cleanText(row[ColCategoria])

	tipo := Classify(categoria, operacao)

	p := transaction.UpsertParams{
		Data:           date,
		Descricao:      cleanText(row[ColDescricao]),
		Valor:          signAmount(valor, tipo),
		Tipo:           tipo,
		Categoria:      categoria,
		Preco:          amountOrDefault(row[ColPreco], 0),
		Quantidade:     amountOrDefault(row[ColQuantidade], 1),
		Taxa:           amountOrDefault(row[ColTaxa], 0),
		TipoOperacao:   operacao,
		Ativo:          cleanText(row[ColAtivo]),
		FormaPagamento: cleanText(row[ColFormaPagamento]),
		Indicador1:     amountOrDefault(row[ColIndicador1], 0),
		Indicador2:     amountOrDefault(row[ColIndicador2], 0),
	}

	return p, true
}

// signAmount normalizes the sign of valor from the derived tipo: despesa
// rows are negative, receita rows positive.
func signAmount(v float64, tipo transaction.Type) float64 {
	if v < 0 {
		v = -v
	}

	if tipo == transaction.TypeDespesa {
		return -v
	}

	return v
}
