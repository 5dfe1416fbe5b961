// Package upload defines the audit trail of ingestion attempts: one record
// per file handed to the pipeline.
package upload

import "time"

// Status is the lifecycle state of an ingestion attempt. A record is
// created as processing and transitions to a terminal status exactly once.
type Status string

const (
	StatusProcessing Status = "processando"
	StatusCompleted  Status = "concluido"
	StatusFailed     Status = "erro"
)

// Record is one row of the uploads_historico table.
type Record struct {
	ID                   int64
	NomeArquivo          string
	DataUpload           time.Time
	DataConclusao        *time.Time
	TotalRegistros       int
	RegistrosInseridos   int
	RegistrosAtualizados int
	RegistrosComErro     int
	Status               Status
	Mensagem             string
}

// Counters accumulates per-row outcomes over one batch.
type Counters struct {
	Inseridos   int
	Atualizados int
	ComErro     int
}
