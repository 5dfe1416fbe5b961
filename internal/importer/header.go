package importer

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical field names of the transaction vocabulary.
const (
	ColData           = "data"
	ColDescricao      = "descricao"
	ColValor          = "valor"
	ColTipo           = "tipo"
	ColCategoria      = "categoria"
	ColPreco          = "preco"
	ColQuantidade     = "quantidade"
	ColTipoOperacao   = "tipo_operacao"
	ColTaxa           = "taxa"
	ColAtivo          = "ativo"
	ColFormaPagamento = "forma_pagamento"
	ColIndicador1     = "indicador1"
	ColIndicador2     = "indicador2"
)

// RequiredColumns must all be present after header mapping or the batch is
// rejected.
var RequiredColumns = []string{ColData, ColDescricao, ColValor, ColTipo}

// columnAliases maps each canonical name to the header spellings it accepts.
// Matching is done on normalized forms (lowercase, diacritics stripped,
// punctuation collapsed to underscores), so accented variants need no
// separate entry.
var columnAliases = map[string][]string{
	ColData:           {"data", "date", "data_transacao", "dt", "datahora"},
	ColDescricao:      {"descricao", "desc", "historico", "detalhes"},
	ColValor:          {"valor", "vlr", "vl", "value", "amount", "montante"},
	ColTipo:           {"tipo", "tp", "type", "movimentacao", "movimento"},
	ColCategoria:      {"categoria", "categ", "cat", "category", "grupo", "classificacao"},
	ColPreco:          {"preco", "price", "valor_unitario"},
	ColQuantidade:     {"quantidade", "qtd", "qtde", "quant"},
	ColTipoOperacao:   {"tipo_operacao", "tipo_oper", "operacao", "operation"},
	ColTaxa:           {"taxa", "tax", "fee", "tarifa"},
	ColAtivo:          {"ativo", "asset", "ativo_codigo"},
	ColFormaPagamento: {"forma_pagamento", "forma_pag", "pagamento", "payment_method"},
	ColIndicador1:     {"indicador1", "ind1", "indicator1"},
	ColIndicador2:     {"indicador2", "ind2", "indicator2"},
}

// aliasesByLength lists every (alias, canonical) pair ordered by descending
// alias length, so substring matching prefers the most specific alias
// ("tipo_oper" before "tipo").
var aliasesByLength = func() []aliasEntry {
	var entries []aliasEntry
	for canonical, list := range columnAliases {
		for _, alias := range list {
			entries = append(entries, aliasEntry{alias: alias, canonical: canonical})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].alias) != len(entries[j].alias) {
			return len(entries[i].alias) > len(entries[j].alias)
		}

		return entries[i].alias < entries[j].alias
	})

	return entries
}()

type aliasEntry struct {
	alias     string
	canonical string
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader reduces a header spelling to its comparable form:
// lowercase, diacritics stripped, runs of whitespace and punctuation
// collapsed to a single underscore.
func NormalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))

	if stripped, _, err := transform.String(stripDiacritics, s); err == nil {
		s = stripped
	}

	var b strings.Builder

	lastUnderscore := false

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)

			lastUnderscore = false

			continue
		}

		if !lastUnderscore {
			b.WriteByte('_')

			lastUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}

// Canonical resolves a header to its canonical field name. An exact
// normalized match wins; otherwise the longest alias contained in the
// header wins. Returns false for headers outside the vocabulary.
func Canonical(header string) (string, bool) {
	name := NormalizeHeader(header)
	if name == "" {
		return "", false
	}

	for canonical, list := range columnAliases {
		for _, alias := range list {
			if name == alias {
				return canonical, true
			}
		}
	}

	for _, e := range aliasesByLength {
		if strings.Contains(name, e.alias) {
			return e.canonical, true
		}
	}

	return "", false
}

// MapColumns maps every detected header to the name later stages will use:
// the canonical field where one resolves, the normalized spelling otherwise.
// When two headers resolve to the same target, later occurrences receive a
// numeric suffix (and are thereby ignored by the coercer).
func MapColumns(headers []string) map[string]string {
	mapped := make(map[string]string, len(headers))
	taken := make(map[string]int, len(headers))

	for _, h := range headers {
		target, ok := Canonical(h)
		if !ok {
			target = NormalizeHeader(h)
			if target == "" {
				target = h
			}
		}

		n, dup := taken[target]
		if dup {
			taken[target] = n + 1
			target = fmt.Sprintf("%s_%d", target, n)
		} else {
			taken[target] = 1
		}

		mapped[h] = target
	}

	return mapped
}

// MissingRequired returns the required canonical columns absent from a
// header mapping, in vocabulary order.
func MissingRequired(mapped map[string]string) []string {
	present := make(map[string]bool, len(mapped))
	for _, target := range mapped {
		present[target] = true
	}

	var missing []string

	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	return missing
}
