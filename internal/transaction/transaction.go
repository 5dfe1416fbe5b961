package transaction

import "time"

// Type classifies a transaction as money in or money out.
type Type string

const (
	TypeReceita Type = "receita"
	TypeDespesa Type = "despesa"
)

// DefaultOperation is stored in tipo_operacao when the source file carries
// no operation label.
const DefaultOperation = "Lançamento"

// Transaction is the canonical row persisted in the transacoes table.
// The tuple (Data, Descricao, Valor, Tipo) is the natural key: no two rows
// may share it, and despesa rows carry a negative Valor.
type Transaction struct {
	ID             int64
	Data           time.Time
	Descricao      string
	Valor          float64
	Tipo           Type
	Categoria      string
	Preco          float64
	Quantidade     float64
	Taxa           float64
	TipoOperacao   string
	Ativo          string
	FormaPagamento string
	Indicador1     float64
	Indicador2     float64
	DataImportacao time.Time
	UploadID       int64
}

// UpsertParams is one coerced, classified row ready to be written under the
// idempotent upsert contract.
type UpsertParams struct {
	Data           time.Time
	Descricao      string
	Valor          float64
	Tipo           Type
	Categoria      string
	Preco          float64
	Quantidade     float64
	Taxa           float64
	TipoOperacao   string
	Ativo          string
	FormaPagamento string
	Indicador1     float64
	Indicador2     float64
}

// NaturalKey identifies a transaction independently of surrogate ids. Dates
// compare as formatted days so rows parsed from different sources with
// different time zones cannot alias.
type NaturalKey struct {
	Data      string
	Descricao string
	Valor     float64
	Tipo      Type
}

func (p UpsertParams) NaturalKey() NaturalKey {
	return NaturalKey{
		Data:      p.Data.Format(time.DateOnly),
		Descricao: p.Descricao,
		Valor:     p.Valor,
		Tipo:      p.Tipo,
	}
}

// Columns is the canonical column vocabulary of the transacoes table, in
// declaration order. Fetch reports which of these are absent from the live
// table so readers can detect schema drift.
var Columns = []string{
	"id", "data", "descricao", "valor", "tipo", "categoria",
	"preco", "quantidade", "taxa", "tipo_operacao", "ativo",
	"forma_pagamento", "indicador1", "indicador2",
	"data_importacao", "upload_id",
}
