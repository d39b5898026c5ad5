package database_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/webetl/internal/database"
)

func newLedgerRepo(t *testing.T) (*database.FetchLedgerRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewFetchLedgerRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled sqlmock expectations: %v", err)
	}
}

func TestFetchLedgerRepository_RecordFetch(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.FixedZone("EST", -5*3600))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fetched_urls (url, source_name, fetch_timestamp)")).
		WithArgs("https://example.com/a", "example", "2024-05-01T15:30:00.000000Z").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.RecordFetch(context.Background(), "https://example.com/a", "example", at); err != nil {
		t.Fatalf("RecordFetch() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_RecordFetch_UsesConflictClause(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`ON CONFLICT \(url, source_name\) DO NOTHING`).
		WithArgs("https://example.com/a", "example", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.RecordFetch(context.Background(), "https://example.com/a", "example", time.Now()); err != nil {
		t.Fatalf("RecordFetch() on duplicate error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_RecordFetch_ExecErrorRollsBack(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	dbErr := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO fetched_urls").WillReturnError(dbErr)
	mock.ExpectRollback()

	err := repo.RecordFetch(context.Background(), "https://example.com/a", "example", time.Now())
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped %v, got %v", dbErr, err)
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_FilterUnfetched_EmptyInputSkipsQuery(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	got, err := repo.FilterUnfetched(context.Background(), nil, "example")
	if err != nil {
		t.Fatalf("FilterUnfetched() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_FilterUnfetched_Postgres(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT url FROM fetched_urls WHERE source_name = $1 AND url IN ($2, $3, $4)")).
		WithArgs("example", "https://example.com/c", "https://example.com/a", "https://example.com/b").
		WillReturnRows(sqlmock.NewRows([]string{"url"}).AddRow("https://example.com/a"))

	got, err := repo.FilterUnfetched(context.Background(), []string{
		"https://example.com/c",
		"https://example.com/a",
		"https://example.com/c",
		"https://example.com/b",
	}, "example")
	if err != nil {
		t.Fatalf("FilterUnfetched() error = %v", err)
	}

	want := []string{"https://example.com/c", "https://example.com/b"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_FilterUnfetched_QueryError(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT url FROM fetched_urls").WillReturnError(errors.New("connection reset"))

	if _, err := repo.FilterUnfetched(context.Background(), []string{"https://example.com/a"}, "example"); err == nil {
		t.Fatal("expected error, got nil")
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_HasFetched(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM fetched_urls WHERE url = $1 AND source_name = $2")).
		WithArgs("https://example.com/a", "example").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM fetched_urls WHERE url = $1")).
		WithArgs("https://example.com/b").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := repo.HasFetched(context.Background(), "https://example.com/a", "example")
	if err != nil || !ok {
		t.Fatalf("HasFetched(a) = %v, %v; want true, nil", ok, err)
	}

	ok, err = repo.HasFetched(context.Background(), "https://example.com/b", "")
	if err != nil || ok {
		t.Fatalf("HasFetched(b) = %v, %v; want false, nil", ok, err)
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_ResetByDate(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fetched_urls WHERE substr(fetch_timestamp, 1, 10) = $1")).
		WithArgs("2024-05-02").
		WillReturnResult(sqlmock.NewResult(0, 4))

	// 21:00 in UTC-5 is already the next UTC day.
	date := time.Date(2024, 5, 1, 21, 0, 0, 0, time.FixedZone("EST", -5*3600))
	n, err := repo.ResetByDate(context.Background(), date)
	if err != nil {
		t.Fatalf("ResetByDate() error = %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 rows deleted, got %d", n)
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_ResetBySourceAndURL(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fetched_urls WHERE source_name = $1")).
		WithArgs("example").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fetched_urls WHERE url = $1 AND source_name = $2")).
		WithArgs("https://example.com/a", "example").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fetched_urls")).
		WillReturnError(errors.New("read-only"))

	if n, err := repo.ResetBySource(context.Background(), "example"); err != nil || n != 2 {
		t.Fatalf("ResetBySource() = %d, %v; want 2, nil", n, err)
	}
	if n, err := repo.ResetByURL(context.Background(), "https://example.com/a", "example"); err != nil || n != 1 {
		t.Fatalf("ResetByURL() = %d, %v; want 1, nil", n, err)
	}
	if _, err := repo.ResetAll(context.Background()); err == nil {
		t.Fatal("ResetAll() expected error, got nil")
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_Latest(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT url, source_name, fetch_timestamp\s+FROM fetched_urls\s+ORDER BY fetch_timestamp DESC`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"url", "source_name", "fetch_timestamp"}).
			AddRow("https://example.com/b", "example", "2024-05-02T08:00:00.000000Z").
			AddRow("https://example.com/a", "example", "2024-05-01T08:00:00.000000Z"))

	records, err := repo.Latest(context.Background(), 2)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].URL != "https://example.com/b" {
		t.Errorf("expected newest first, got %s", records[0].URL)
	}
	if !records[1].FetchedAt.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", records[1].FetchedAt)
	}

	expectationsMet(t, mock)
}

func TestFetchLedgerRepository_Latest_BadTimestamp(t *testing.T) {
	repo, mock, cleanup := newLedgerRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT url, source_name, fetch_timestamp").
		WillReturnRows(sqlmock.NewRows([]string{"url", "source_name", "fetch_timestamp"}).
			AddRow("https://example.com/a", "example", "yesterday"))

	if _, err := repo.Latest(context.Background(), 10); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}

	expectationsMet(t, mock)
}
