// Package ingest runs the CSV ingestion pipeline: one file at a time,
// synchronously, writing canonical transactions under the idempotent upsert
// contract while maintaining the upload audit trail.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mferraz/financas/internal/importer"
	"github.com/mferraz/financas/internal/transaction"
	"github.com/mferraz/financas/internal/upload"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=ingest

// TransactionRepository persists coerced rows under the natural key.
type TransactionRepository interface {
	Upsert(ctx context.Context, p transaction.UpsertParams, uploadID int64, importedAt time.Time) (bool, error)
}

// AuditRepository maintains the upload-history record of one attempt.
type AuditRepository interface {
	Begin(ctx context.Context, nomeArquivo string) (int64, error)
	SetTotal(ctx context.Context, id int64, total int) error
	Finish(ctx context.Context, id int64, status upload.Status, c upload.Counters, mensagem string) error
}

type Service struct {
	parser       *importer.Parser
	transactions TransactionRepository
	audits       AuditRepository
	log          *slog.Logger
}

func NewService(parser *importer.Parser, transactions TransactionRepository, audits AuditRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		parser:       parser,
		transactions: transactions,
		audits:       audits,
		log:          log,
	}
}

// ProcessCSV ingests one file to completion. It blocks until the audit
// record reaches a terminal state; the returned message mirrors the
// mensagem persisted there. Nothing except a broken store makes it panic or
// return an error to the caller: data problems end up in the audit record.
func (s *Service) ProcessCSV(ctx context.Context, filePath string) (bool, string) {
	nome := filepath.Base(filePath)
	log := s.log.With("arquivo", nome)

	log.Info("iniciando processamento")

	uploadID, err := s.audits.Begin(ctx, nome)
	if err != nil {
		log.Error("falha ao registrar upload", "error", err)
		return false, "Erro ao registrar upload no banco de dados"
	}

	log = log.With("upload_id", uploadID)

	batch, msg, ok := s.parse(filePath, log)
	if !ok {
		return false, s.fail(ctx, uploadID, upload.Counters{}, msg, log)
	}

	if len(batch.Params) == 0 {
		counters := upload.Counters{ComErro: batch.Dropped}

		msg := "Nenhum registro válido encontrado no arquivo"
		if batch.Dropped > 0 {
			msg = fmt.Sprintf("%s: %d linhas com data ou valor inválido", msg, batch.Dropped)
		}

		return false, s.fail(ctx, uploadID, counters, msg, log)
	}

	if err := s.audits.SetTotal(ctx, uploadID, len(batch.Params)); err != nil {
		log.Error("falha ao atualizar total de registros", "error", err)
		return false, s.fail(ctx, uploadID, upload.Counters{}, "Erro ao atualizar histórico de upload", log)
	}

	counters := s.writeRows(ctx, batch, uploadID, log)

	mensagem := fmt.Sprintf("Processamento concluído: %d registros inseridos, %d atualizados",
		counters.Inseridos, counters.Atualizados)
	if counters.ComErro > 0 {
		mensagem = fmt.Sprintf("%s, %d com erro", mensagem, counters.ComErro)
	}

	if err := s.audits.Finish(ctx, uploadID, upload.StatusCompleted, counters, mensagem); err != nil {
		log.Error("falha ao finalizar histórico de upload", "error", err)
		return false, "Erro ao atualizar histórico de upload"
	}

	// The staging file is only removed once the audit record says
	// concluido; a leftover file is harmless, a lost one is not.
	if err := os.Remove(filePath); err != nil {
		log.Warn("não foi possível remover o arquivo processado", "error", err)
	}

	log.Info("processamento concluído",
		"inseridos", counters.Inseridos,
		"atualizados", counters.Atualizados,
		"com_erro", counters.ComErro,
	)

	return true, mensagem
}

// parse opens and parses the staged file, translating parser failures into
// user-safe messages.
func (s *Service) parse(filePath string, log *slog.Logger) (*importer.Batch, string, bool) {
	f, err := os.Open(filePath)
	if err != nil {
		log.Error("falha ao abrir arquivo", "error", err)
		return nil, "Erro ao ler o arquivo CSV", false
	}
	defer f.Close()

	batch, err := s.parser.Parse(f)
	if err != nil {
		log.Error("falha ao interpretar arquivo", "error", err)
		return nil, parseErrorMessage(err), false
	}

	log.Debug("arquivo interpretado",
		"registros", len(batch.Params),
		"descartados", batch.Dropped,
		"duplicados", batch.Duplicates,
	)

	return batch, "", true
}

// writeRows persists the batch row by row. Each row is its own unit of
// work: a failing row increments the error counter and the batch continues.
func (s *Service) writeRows(ctx context.Context, batch *importer.Batch, uploadID int64, log *slog.Logger) upload.Counters {
	counters := upload.Counters{ComErro: batch.Dropped}

	total := len(batch.Params)
	importedAt := time.Now()

	for i, params := range batch.Params {
		inserted, err := s.transactions.Upsert(ctx, params, uploadID, importedAt)
		if err != nil {
			counters.ComErro++

			log.Error("falha ao gravar registro", "linha", i+1, "error", err)

			continue
		}

		if inserted {
			counters.Inseridos++
		} else {
			counters.Atualizados++
		}

		if progress := i + 1; progress%100 == 0 || progress == total {
			log.Debug("progresso",
				"processados", progress,
				"total", total,
				"inseridos", counters.Inseridos,
				"atualizados", counters.Atualizados,
			)
		}
	}

	return counters
}

// fail moves the audit record to erro and returns the message the caller
// should surface. The terminal transition must land even though the batch
// did not.
func (s *Service) fail(ctx context.Context, uploadID int64, counters upload.Counters, mensagem string, log *slog.Logger) string {
	if err := s.audits.Finish(ctx, uploadID, upload.StatusFailed, counters, mensagem); err != nil {
		log.Error("falha ao registrar erro no histórico", "error", err)
		return "Erro ao atualizar histórico de upload"
	}

	return mensagem
}

// parseErrorMessage translates parser errors into messages safe to persist
// and display: no stack traces, no paths.
func parseErrorMessage(err error) string {
	var missing *importer.MissingColumnsError
	if errors.As(err, &missing) {
		return missing.Error()
	}

	switch {
	case errors.Is(err, importer.ErrEmptyFile):
		return "O arquivo CSV está vazio"
	case errors.Is(err, importer.ErrUndetectableDialect):
		return fmt.Sprintf("Não foi possível detectar o delimitador do arquivo (tentados %q e %q)",
			importer.DialectSemicolon.String(), importer.DialectComma.String())
	default:
		return "Erro ao ler o arquivo CSV"
	}
}
