package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mferraz/financas/internal/export"
)

type Handler struct {
	svc        *export.Service
	fetchLimit int
}

func NewHandler(svc *export.Service, fetchLimit int) *Handler {
	return &Handler{svc: svc, fetchLimit: fetchLimit}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.download)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	limit := h.fetchLimit

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		limit = n
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))

	if _, err := h.svc.WriteCSV(r.Context(), w, limit); err != nil {
		// Headers are already out; all that is left is to log.
		slog.Error("failed to write export", "error", err)
	}
}
