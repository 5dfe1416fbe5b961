package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mferraz/financas/internal/upload"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin opens the audit record for one ingestion attempt, before any row of
// the file is touched.
func (s *Store) Begin(ctx context.Context, nomeArquivo string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads_historico (nome_arquivo, data_upload, total_registros, status, mensagem)
		VALUES (?, ?, 0, ?, 'Iniciando processamento')`,
		nomeArquivo, time.Now(), string(upload.StatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("registering upload: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading upload id: %w", err)
	}

	return id, nil
}

// SetTotal records the post-coercion row count, before any row write.
func (s *Store) SetTotal(ctx context.Context, id int64, total int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE uploads_historico SET total_registros = ? WHERE id = ?`, total, id)
	if err != nil {
		return fmt.Errorf("updating total: %w", err)
	}

	return nil
}

// Finish moves the record to its terminal status with the batch counters
// and a user-safe message. It is its own unit of work: it must succeed even
// when row writes failed.
func (s *Store) Finish(ctx context.Context, id int64, status upload.Status, c upload.Counters, mensagem string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE uploads_historico
		SET status = ?,
			mensagem = ?,
			registros_inseridos = ?,
			registros_atualizados = ?,
			registros_com_erro = ?,
			data_conclusao = ?
		WHERE id = ?`,
		string(status), mensagem, c.Inseridos, c.Atualizados, c.ComErro, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating upload history: %w", err)
	}

	return nil
}

const selectRecordColumns = `
	id, nome_arquivo, data_upload, data_conclusao, total_registros,
	registros_inseridos, registros_atualizados, registros_com_erro, status, mensagem
`

// Get returns one audit record by id.
func (s *Store) Get(ctx context.Context, id int64) (*upload.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectRecordColumns+` FROM uploads_historico WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("upload %d not found", id)
		}

		return nil, fmt.Errorf("getting upload: %w", err)
	}

	return rec, nil
}

// History lists audit records, most recent first.
func (s *Store) History(ctx context.Context, limit int) ([]*upload.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectRecordColumns+` FROM uploads_historico ORDER BY data_upload DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing upload history: %w", err)
	}
	defer rows.Close()

	var recs []*upload.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning upload record: %w", err)
		}

		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*upload.Record, error) {
	var (
		rec       upload.Record
		status    string
		conclusao sql.NullTime
		mensagem  sql.NullString
	)

	if err := s.Scan(
		&rec.ID, &rec.NomeArquivo, &rec.DataUpload, &conclusao, &rec.TotalRegistros,
		&rec.RegistrosInseridos, &rec.RegistrosAtualizados, &rec.RegistrosComErro,
		&status, &mensagem,
	); err != nil {
		return nil, err
	}

	rec.Status = upload.Status(status)
	rec.Mensagem = mensagem.String

	if conclusao.Valid {
		t := conclusao.Time
		rec.DataConclusao = &t
	}

	return &rec, nil
}
