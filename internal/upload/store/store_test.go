package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mferraz/financas/internal/database"
	"github.com/mferraz/financas/internal/upload"
	"github.com/mferraz/financas/internal/upload/store"
)

func newTestStore(t *testing.T) (*store.Store, *sql.DB) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "financas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.EnsureSchema(context.Background(), db))

	return store.New(db), db
}

func TestStore_Begin(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Begin(ctx, "extrato.csv")
	require.NoError(t, err)
	require.NotZero(t, id)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "extrato.csv", rec.NomeArquivo)
	assert.Equal(t, upload.StatusProcessing, rec.Status)
	assert.Equal(t, "Iniciando processamento", rec.Mensagem)
	assert.Zero(t, rec.TotalRegistros)
	assert.Nil(t, rec.DataConclusao)
	assert.WithinDuration(t, time.Now(), rec.DataUpload, time.Minute)
}

func TestStore_Lifecycle_Completed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Begin(ctx, "extrato.csv")
	require.NoError(t, err)

	require.NoError(t, s.SetTotal(ctx, id, 42))

	counters := upload.Counters{Inseridos: 40, Atualizados: 2}
	mensagem := "Processamento concluído: 40 registros inseridos, 2 atualizados"
	require.NoError(t, s.Finish(ctx, id, upload.StatusCompleted, counters, mensagem))

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, upload.StatusCompleted, rec.Status)
	assert.Equal(t, 42, rec.TotalRegistros)
	assert.Equal(t, 40, rec.RegistrosInseridos)
	assert.Equal(t, 2, rec.RegistrosAtualizados)
	assert.Zero(t, rec.RegistrosComErro)
	assert.Equal(t, mensagem, rec.Mensagem)
	require.NotNil(t, rec.DataConclusao)
	assert.False(t, rec.DataConclusao.Before(rec.DataUpload))
}

func TestStore_Lifecycle_Failed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Begin(ctx, "vazio.csv")
	require.NoError(t, err)

	require.NoError(t, s.Finish(ctx, id, upload.StatusFailed,
		upload.Counters{}, "O arquivo CSV está vazio"))

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, upload.StatusFailed, rec.Status)
	assert.Equal(t, "O arquivo CSV está vazio", rec.Mensagem)
	assert.NotNil(t, rec.DataConclusao)
}

func TestStore_Get_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_History_MostRecentFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var ids []int64

	for _, name := range []string{"janeiro.csv", "fevereiro.csv", "marco.csv"} {
		id, err := s.Begin(ctx, name)
		require.NoError(t, err)

		ids = append(ids, id)
	}

	// data_upload can tie within the same instant; id breaks the tie.
	recs, err := s.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, ids[2], recs[0].ID)
	assert.Equal(t, "marco.csv", recs[0].NomeArquivo)
	assert.Equal(t, "janeiro.csv", recs[2].NomeArquivo)
}

func TestStore_History_RespectsLimit(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Begin(ctx, "extrato.csv")
		require.NoError(t, err)
	}

	recs, err := s.History(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
