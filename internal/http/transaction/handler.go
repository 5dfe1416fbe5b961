package transaction

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mferraz/financas/internal/transaction"
)

type Handler struct {
	svc        *transaction.Service
	fetchLimit int
}

func NewHandler(svc *transaction.Service, fetchLimit int) *Handler {
	return &Handler{svc: svc, fetchLimit: fetchLimit}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

type transactionResponse struct {
	ID             int64            `json:"id"`
	Data           string           `json:"data"`
	Descricao      string           `json:"descricao"`
	Valor          float64          `json:"valor"`
	Tipo           transaction.Type `json:"tipo"`
	Categoria      string           `json:"categoria,omitempty"`
	Preco          float64          `json:"preco"`
	Quantidade     float64          `json:"quantidade"`
	Taxa           float64          `json:"taxa"`
	TipoOperacao   string           `json:"tipo_operacao,omitempty"`
	Ativo          string           `json:"ativo,omitempty"`
	FormaPagamento string           `json:"forma_pagamento,omitempty"`
	Indicador1     float64          `json:"indicador1"`
	Indicador2     float64          `json:"indicador2"`
	DataImportacao time.Time        `json:"data_importacao"`
	UploadID       int64            `json:"upload_id,omitempty"`
}

type listResponse struct {
	Transactions   []transactionResponse `json:"transactions"`
	MissingColumns []string              `json:"missing_columns"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit := h.fetchLimit

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		limit = n
	}

	result, err := h.svc.Fetch(r.Context(), limit)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := listResponse{
		Transactions:   make([]transactionResponse, 0, len(result.Transactions)),
		MissingColumns: result.MissingColumns,
	}

	if resp.MissingColumns == nil {
		resp.MissingColumns = []string{}
	}

	for _, tx := range result.Transactions {
		resp.Transactions = append(resp.Transactions, toResponse(tx))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:             tx.ID,
		Data:           tx.Data.Format(time.DateOnly),
		Descricao:      tx.Descricao,
		Valor:          tx.Valor,
		Tipo:           tx.Tipo,
		Categoria:      tx.Categoria,
		Preco:          tx.Preco,
		Quantidade:     tx.Quantidade,
		Taxa:           tx.Taxa,
		TipoOperacao:   tx.TipoOperacao,
		Ativo:          tx.Ativo,
		FormaPagamento: tx.FormaPagamento,
		Indicador1:     tx.Indicador1,
		Indicador2:     tx.Indicador2,
		DataImportacao: tx.DataImportacao,
		UploadID:       tx.UploadID,
	}
}
