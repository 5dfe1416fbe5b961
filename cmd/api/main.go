package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mferraz/financas/internal/config"
	"github.com/mferraz/financas/internal/database"
	"github.com/mferraz/financas/internal/export"
	financasHttp "github.com/mferraz/financas/internal/http"
	exportHandler "github.com/mferraz/financas/internal/http/export"
	txHandler "github.com/mferraz/financas/internal/http/transaction"
	uploadHandler "github.com/mferraz/financas/internal/http/upload"
	"github.com/mferraz/financas/internal/importer"
	"github.com/mferraz/financas/internal/ingest"
	"github.com/mferraz/financas/internal/transaction"
	txStore "github.com/mferraz/financas/internal/transaction/store"
	uploadStore "github.com/mferraz/financas/internal/upload/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// A store with a broken schema must never see an ingestion.
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	var (
		transactions = txStore.New(db)
		uploads      = uploadStore.New(db)

		transactionService = transaction.NewService(transactions)
		ingestService      = ingest.NewService(importer.NewParser(), transactions, uploads, slog.Default())
		exportService      = export.NewService(transactionService)
	)

	var (
		transactionH = txHandler.NewHandler(transactionService, cfg.Transactions.FetchLimit)
		uploadH      = uploadHandler.NewHandler(ingestService, uploads, cfg.Upload.StagingDir, cfg.Upload.HistoryLimit)
		exportH      = exportHandler.NewHandler(exportService, cfg.Transactions.FetchLimit)
	)

	router := financasHttp.New(transactionH, uploadH, exportH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port, "db", cfg.DB.Path)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
