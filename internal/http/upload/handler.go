// Package upload exposes the ingestion pipeline over HTTP: the endpoint
// stages the incoming file to a local directory and hands its path to the
// core, which owns the file from then on (it is deleted on success).
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mferraz/financas/internal/upload"
)

const maxUploadSize = 10 << 20

// Ingestor runs the pipeline against a staged file.
type Ingestor interface {
	ProcessCSV(ctx context.Context, filePath string) (bool, string)
}

// HistoryLister reads the audit trail.
type HistoryLister interface {
	History(ctx context.Context, limit int) ([]*upload.Record, error)
}

type Handler struct {
	ingestor     Ingestor
	history      HistoryLister
	stagingDir   string
	historyLimit int
}

func NewHandler(ingestor Ingestor, history HistoryLister, stagingDir string, historyLimit int) *Handler {
	return &Handler{
		ingestor:     ingestor,
		history:      history,
		stagingDir:   stagingDir,
		historyLimit: historyLimit,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.uploadCSV)
	r.Get("/", h.listHistory)
}

type uploadResponse struct {
	OK       bool   `json:"ok"`
	Mensagem string `json:"mensagem"`
}

func (h *Handler) uploadCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	staged, err := h.stage(file, header.Filename)
	if err != nil {
		slog.Error("failed to stage upload", "error", err)
		http.Error(w, "failed to store uploaded file", http.StatusInternalServerError)

		return
	}

	ok, mensagem := h.ingestor.ProcessCSV(r.Context(), staged)

	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(uploadResponse{OK: ok, Mensagem: mensagem}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// stage copies the uploaded content into the staging directory under a
// collision-free name. The original base name is kept as a suffix so the
// audit record stays recognizable.
func (h *Handler) stage(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(filename))
	path := filepath.Join(h.stagingDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing staged file: %w", err)
	}

	return path, nil
}

type historyRecordResponse struct {
	ID                   int64         `json:"id"`
	NomeArquivo          string        `json:"nome_arquivo"`
	DataUpload           time.Time     `json:"data_upload"`
	DataConclusao        *time.Time    `json:"data_conclusao,omitempty"`
	TotalRegistros       int           `json:"total_registros"`
	RegistrosInseridos   int           `json:"registros_inseridos"`
	RegistrosAtualizados int           `json:"registros_atualizados"`
	RegistrosComErro     int           `json:"registros_com_erro"`
	Status               upload.Status `json:"status"`
	Mensagem             string        `json:"mensagem"`
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := h.historyLimit

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		limit = n
	}

	recs, err := h.history.History(r.Context(), limit)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]historyRecordResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, historyRecordResponse{
			ID:                   rec.ID,
			NomeArquivo:          rec.NomeArquivo,
			DataUpload:           rec.DataUpload,
			DataConclusao:        rec.DataConclusao,
			TotalRegistros:       rec.TotalRegistros,
			RegistrosInseridos:   rec.RegistrosInseridos,
			RegistrosAtualizados: rec.RegistrosAtualizados,
			RegistrosComErro:     rec.RegistrosComErro,
			Status:               rec.Status,
			Mensagem:             rec.Mensagem,
		})
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
