package database

import (
	"context"
	"time"

	"github.com/jonesrussell/webetl/internal/domain"
)

//go:generate mockgen -destination=../../testutils/mocks/ledger/ledger_mock.go -package=ledger . FetchLedger

// FetchLedger defines the contract for the durable record of harvested URLs.
type FetchLedger interface {
	Migrate(ctx context.Context) error

	RecordFetch(ctx context.Context, url, source string, at time.Time) error
	HasFetched(ctx context.Context, url, source string) (bool, error)
	FilterUnfetched(ctx context.Context, urls []string, source string) ([]string, error)

	ResetBySource(ctx context.Context, source string) (int64, error)
	ResetByURL(ctx context.Context, url, source string) (int64, error)
	ResetByDate(ctx context.Context, date time.Time) (int64, error)
	ResetAll(ctx context.Context) (int64, error)

	Latest(ctx context.Context, limit int) ([]domain.FetchRecord, error)
	Count(ctx context.Context) (int, error)
}

var _ FetchLedger = (*FetchLedgerRepository)(nil)
