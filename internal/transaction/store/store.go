package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mferraz/financas/internal/database"
	"github.com/mferraz/financas/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const upsertQuery = `
	INSERT INTO transacoes (
		data, descricao, valor, tipo, categoria,
		preco, quantidade, taxa, tipo_operacao, ativo,
		forma_pagamento, indicador1, indicador2, data_importacao, upload_id
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(data, descricao, valor, tipo) DO UPDATE SET
		categoria       = COALESCE(NULLIF(excluded.categoria, ''), categoria),
		preco           = excluded.preco,
		quantidade      = excluded.quantidade,
		taxa            = excluded.taxa,
		tipo_operacao   = COALESCE(NULLIF(excluded.tipo_operacao, ''), tipo_operacao),
		ativo           = COALESCE(NULLIF(excluded.ativo, ''), ativo),
		forma_pagamento = COALESCE(NULLIF(excluded.forma_pagamento, ''), forma_pagamento),
		data_importacao = excluded.data_importacao,
		upload_id       = excluded.upload_id
`

// Upsert writes one coerced row under the natural key. On conflict the
// pre-existing row keeps its values for optional text fields the new row
// leaves blank; upload_id always moves to the current batch. Returns true
// when the row was newly inserted.
//
// The insert/update attribution comes from an existence probe before the
// statement. A concurrent invocation can slip between the two, which at
// worst misattributes one counter; the upsert itself stays race-free under
// the unique index.
func (s *Store) Upsert(ctx context.Context, p transaction.UpsertParams, uploadID int64, importedAt time.Time) (bool, error) {
	day := p.Data.Format(time.DateOnly)

	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transacoes WHERE data = ? AND descricao = ? AND valor = ? AND tipo = ?)`,
		day, p.Descricao, p.Valor, string(p.Tipo),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("probing natural key: %w", err)
	}

	_, err = s.db.ExecContext(ctx, upsertQuery,
		day, p.Descricao, p.Valor, string(p.Tipo), p.Categoria,
		p.Preco, p.Quantidade, p.Taxa, p.TipoOperacao, p.Ativo,
		p.FormaPagamento, p.Indicador1, p.Indicador2, importedAt, uploadID,
	)
	if err != nil {
		return false, fmt.Errorf("upserting transaction: %w", err)
	}

	return !exists, nil
}

// List returns transactions ordered by data descending, newest first.
// The select list is built from the columns actually present so a store
// predating newer fields still reads; absent fields scan as their zero
// value and are reported by MissingColumns.
func (s *Store) List(ctx context.Context, limit int) ([]*transaction.Transaction, error) {
	present, err := presentColumns(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var selected []string

	for _, col := range transaction.Columns {
		if present[col] {
			selected = append(selected, col)
		}
	}

	query := fmt.Sprintf(
		"SELECT %s FROM transacoes ORDER BY data DESC, id DESC LIMIT ?",
		strings.Join(selected, ", "),
	)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows, selected)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

// MissingColumns names the canonical columns absent from the live table.
func (s *Store) MissingColumns(ctx context.Context) ([]string, error) {
	present, err := presentColumns(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var missing []string

	for _, col := range transaction.Columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	return missing, nil
}

func presentColumns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	cols, err := database.TableColumns(ctx, db, "transacoes")
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[strings.ToLower(c)] = true
	}

	return present, nil
}

// scanTransaction scans one row whose select list is the given column
// subset, leaving fields for absent columns at their zero value.
func scanTransaction(rows *sql.Rows, selected []string) (*transaction.Transaction, error) {
	var (
		tx       transaction.Transaction
		tipo     string
		imported sql.NullTime
		uploadID sql.NullInt64

		categoria, tipoOperacao, ativo, formaPagamento         sql.NullString
		preco, quantidade, taxa, indicador1, indicador2, valor sql.NullFloat64
	)

	dest := make([]any, 0, len(selected))

	for _, col := range selected {
		switch col {
		case "id":
			dest = append(dest, &tx.ID)
		case "data":
			dest = append(dest, &tx.Data)
		case "descricao":
			dest = append(dest, &tx.Descricao)
		case "valor":
			dest = append(dest, &valor)
		case "tipo":
			dest = append(dest, &tipo)
		case "categoria":
			dest = append(dest, &categoria)
		case "preco":
			dest = append(dest, &preco)
		case "quantidade":
			dest = append(dest, &quantidade)
		case "taxa":
			dest = append(dest, &taxa)
		case "tipo_operacao":
			dest = append(dest, &tipoOperacao)
		case "ativo":
			dest = append(dest, &ativo)
		case "forma_pagamento":
			dest = append(dest, &formaPagamento)
		case "indicador1":
			dest = append(dest, &indicador1)
		case "indicador2":
			dest = append(dest, &indicador2)
		case "data_importacao":
			dest = append(dest, &imported)
		case "upload_id":
			dest = append(dest, &uploadID)
		default:
			var discard any
			dest = append(dest, &discard)
		}
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	tx.Tipo = transaction.Type(tipo)
	tx.Valor = valor.Float64
	tx.Categoria = categoria.String
	tx.Preco = preco.Float64
	tx.Quantidade = quantidade.Float64
	tx.Taxa = taxa.Float64
	tx.TipoOperacao = tipoOperacao.String
	tx.Ativo = ativo.String
	tx.FormaPagamento = formaPagamento.String
	tx.Indicador1 = indicador1.Float64
	tx.Indicador2 = indicador2.Float64
	tx.DataImportacao = imported.Time
	tx.UploadID = uploadID.Int64

	return &tx, nil
}
