package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// naturalKey is the column set whose uniqueness the transactions table
// must enforce.
var naturalKey = []string{"data", "descricao", "valor", "tipo"}

const createUploadsTable = `
CREATE TABLE IF NOT EXISTS uploads_historico (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nome_arquivo TEXT NOT NULL,
	data_upload TIMESTAMP NOT NULL,
	data_conclusao TIMESTAMP,
	total_registros INTEGER DEFAULT 0,
	registros_inseridos INTEGER DEFAULT 0,
	registros_atualizados INTEGER DEFAULT 0,
	registros_com_erro INTEGER DEFAULT 0,
	status TEXT NOT NULL,
	mensagem TEXT
)`

const createTransactionsTable = `
CREATE TABLE IF NOT EXISTS transacoes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	data DATE NOT NULL,
	descricao TEXT NOT NULL,
	valor REAL NOT NULL,
	tipo TEXT NOT NULL,
	categoria TEXT,
	preco REAL DEFAULT 0,
	quantidade REAL DEFAULT 1,
	taxa REAL DEFAULT 0,
	tipo_operacao TEXT DEFAULT 'Lançamento',
	ativo TEXT,
	forma_pagamento TEXT,
	indicador1 REAL DEFAULT 0,
	indicador2 REAL DEFAULT 0,
	data_importacao TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	upload_id INTEGER,
	FOREIGN KEY (upload_id) REFERENCES uploads_historico(id),
	UNIQUE(data, descricao, valor, tipo)
)`

// columnSpec describes one column that later schema versions added. Columns
// are only ever added, never dropped, so stores created by older versions
// upgrade in place.
type columnSpec struct {
	name string
	ddl  string
}

var uploadColumns = []columnSpec{
	{"data_conclusao", "TIMESTAMP"},
	{"registros_atualizados", "INTEGER DEFAULT 0"},
	{"registros_com_erro", "INTEGER DEFAULT 0"},
}

var transactionColumns = []columnSpec{
	{"categoria", "TEXT"},
	{"preco", "REAL DEFAULT 0"},
	{"quantidade", "REAL DEFAULT 1"},
	{"taxa", "REAL DEFAULT 0"},
	{"tipo_operacao", "TEXT DEFAULT 'Lançamento'"},
	{"ativo", "TEXT"},
	{"forma_pagamento", "TEXT"},
	{"indicador1", "REAL DEFAULT 0"},
	{"indicador2", "REAL DEFAULT 0"},
	{"data_importacao", "TIMESTAMP"},
	{"upload_id", "INTEGER"},
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_transacoes_data ON transacoes(data)`,
	`CREATE INDEX IF NOT EXISTS idx_transacoes_tipo ON transacoes(tipo)`,
	`CREATE INDEX IF NOT EXISTS idx_transacoes_categoria ON transacoes(categoria)`,
}

// EnsureSchema brings the store to the expected schema. It is idempotent and
// safe to call on every process start. Any error here is fatal for callers:
// no ingestion may run against an unrepaired store.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createUploadsTable); err != nil {
		return fmt.Errorf("creating uploads_historico: %w", err)
	}

	if err := addMissingColumns(ctx, db, "uploads_historico", uploadColumns); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, createTransactionsTable); err != nil {
		return fmt.Errorf("creating transacoes: %w", err)
	}

	if err := addMissingColumns(ctx, db, "transacoes", transactionColumns); err != nil {
		return err
	}

	hasKey, err := hasNaturalKeyIndex(ctx, db)
	if err != nil {
		return err
	}

	if !hasKey {
		if err := rebuildTransactionsTable(ctx, db); err != nil {
			return err
		}
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}

	return nil
}

// TableColumns returns the column names of a table, in declaration order.
func TableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("reading table info for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning table info: %w", err)
		}

		cols = append(cols, name)
	}

	return cols, rows.Err()
}

func addMissingColumns(ctx context.Context, db *sql.DB, table string, specs []columnSpec) error {
	existing, err := TableColumns(ctx, db, table)
	if err != nil {
		return err
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}

	for _, spec := range specs {
		if have[spec.name] {
			continue
		}

		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, spec.name, spec.ddl)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("adding column %s.%s: %w", table, spec.name, err)
		}
	}

	return nil
}

// hasNaturalKeyIndex reports whether a unique index covering exactly the
// natural key exists on transacoes. Both explicit indexes and the
// autoindex created by a table-level UNIQUE constraint count.
func hasNaturalKeyIndex(ctx context.Context, db *sql.DB) (bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA index_list(transacoes)")
	if err != nil {
		return false, fmt.Errorf("reading index list: %w", err)
	}
	defer rows.Close()

	var uniqueIndexes []string

	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return false, fmt.Errorf("scanning index list: %w", err)
		}

		if unique == 1 {
			uniqueIndexes = append(uniqueIndexes, name)
		}
	}

	if err := rows.Err(); err != nil {
		return false, err
	}

	for _, idx := range uniqueIndexes {
		cols, err := indexColumns(ctx, db, idx)
		if err != nil {
			return false, err
		}

		if sameColumnSet(cols, naturalKey) {
			return true, nil
		}
	}

	return false, nil
}

func indexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", index))
	if err != nil {
		return nil, fmt.Errorf("reading index info for %s: %w", index, err)
	}
	defer rows.Close()

	var cols []string

	for rows.Next() {
		var (
			seqno int
			cid   int
			name  sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scanning index info: %w", err)
		}

		if name.Valid {
			cols = append(cols, name.String)
		}
	}

	return cols, rows.Err()
}

func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	set := make(map[string]bool, len(a))
	for _, c := range a {
		set[strings.ToLower(c)] = true
	}

	for _, c := range b {
		if !set[strings.ToLower(c)] {
			return false
		}
	}

	return true
}

// rebuildTransactionsTable enforces the natural-key constraint on a legacy
// table that lacks it: create a new table with the constraint, copy all
// rows, drop the old table, rename. Duplicate legacy rows are collapsed to
// the first occurrence. The whole rebuild is one transaction; this is the
// only destructive operation the schema manager performs.
func rebuildTransactionsTable(ctx context.Context, db *sql.DB) error {
	cols, err := TableColumns(ctx, db, "transacoes")
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rebuild: %w", err)
	}
	defer tx.Rollback()

	newDDL := strings.Replace(createTransactionsTable, "IF NOT EXISTS transacoes", "transacoes_new", 1)
	if _, err := tx.ExecContext(ctx, newDDL); err != nil {
		return fmt.Errorf("creating rebuilt table: %w", err)
	}

	colList := strings.Join(cols, ", ")

	copyStmt := fmt.Sprintf(
		"INSERT OR IGNORE INTO transacoes_new (%s) SELECT %s FROM transacoes ORDER BY id",
		colList, colList,
	)
	if _, err := tx.ExecContext(ctx, copyStmt); err != nil {
		return fmt.Errorf("copying rows into rebuilt table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE transacoes"); err != nil {
		return fmt.Errorf("dropping legacy table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "ALTER TABLE transacoes_new RENAME TO transacoes"); err != nil {
		return fmt.Errorf("renaming rebuilt table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rebuild: %w", err)
	}

	return nil
}
