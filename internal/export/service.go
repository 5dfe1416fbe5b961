// Package export writes the canonical transactions table back out as CSV,
// the inverse of the importer: fixed canonical headers, ISO dates, dot
// decimals. A file produced here re-imports cleanly.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mferraz/financas/internal/transaction"
)

type Service struct {
	transactions *transaction.Service
}

func NewService(txService *transaction.Service) *Service {
	return &Service{transactions: txService}
}

// header is the canonical column order of an exported file.
var header = []string{
	"data", "descricao", "valor", "tipo", "categoria",
	"preco", "quantidade", "taxa", "tipo_operacao", "ativo",
	"forma_pagamento", "indicador1", "indicador2",
}

// WriteCSV streams up to limit transactions to w, newest first, and returns
// how many rows were written.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, limit int) (int, error) {
	result, err := s.transactions.Fetch(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("fetching transactions: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	for i, tx := range result.Transactions {
		if err := cw.Write(record(tx)); err != nil {
			return i, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return len(result.Transactions), fmt.Errorf("flushing export: %w", err)
	}

	return len(result.Transactions), nil
}

// Filename names an export after the day it was taken.
func Filename(now time.Time) string {
	return fmt.Sprintf("transacoes_%s.csv", now.Format("20060102"))
}

func record(tx *transaction.Transaction) []string {
	return []string{
		tx.Data.Format(time.DateOnly),
		tx.Descricao,
		formatAmount(tx.Valor),
		string(tx.Tipo),
		tx.Categoria,
		formatAmount(tx.Preco),
		formatAmount(tx.Quantidade),
		formatAmount(tx.Taxa),
		tx.TipoOperacao,
		tx.Ativo,
		tx.FormaPagamento,
		formatAmount(tx.Indicador1),
		formatAmount(tx.Indicador2),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
