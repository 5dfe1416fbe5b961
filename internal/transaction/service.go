package transaction

import (
	"context"
	"time"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	Upsert(ctx context.Context, p UpsertParams, uploadID int64, importedAt time.Time) (bool, error)
	List(ctx context.Context, limit int) ([]*Transaction, error)
	MissingColumns(ctx context.Context) ([]string, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FetchResult is a read of the transactions table together with the schema
// drift observed at read time.
type FetchResult struct {
	Transactions []*Transaction
	// MissingColumns names canonical columns absent from the live table.
	MissingColumns []string
}

// Fetch returns up to limit transactions ordered by data descending.
func (s *Service) Fetch(ctx context.Context, limit int) (*FetchResult, error) {
	txs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	missing, err := s.repo.MissingColumns(ctx)
	if err != nil {
		return nil, err
	}

	return &FetchResult{Transactions: txs, MissingColumns: missing}, nil
}
