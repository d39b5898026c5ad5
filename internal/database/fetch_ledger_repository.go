package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/webetl/internal/domain"
)

const (
	// TimestampLayout is the fixed-width UTC layout stored in fetch_timestamp.
	// Lexical order of stored values matches chronological order.
	TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

	// dateLayout matches the leading calendar date of a stored timestamp.
	dateLayout = "2006-01-02"

	// filterChunkSize bounds the IN list of a single FilterUnfetched query.
	filterChunkSize = 500
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS fetched_urls (
		url TEXT NOT NULL,
		source_name TEXT NOT NULL,
		fetch_timestamp TEXT NOT NULL,
		PRIMARY KEY (url, source_name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fetched_urls_source_name ON fetched_urls (source_name)`,
	`CREATE INDEX IF NOT EXISTS idx_fetched_urls_fetch_timestamp ON fetched_urls (fetch_timestamp)`,
}

// fetchRecordRow is the storage form of a FetchRecord; timestamps are kept as text.
type fetchRecordRow struct {
	URL        string `db:"url"`
	SourceName string `db:"source_name"`
	FetchedAt  string `db:"fetch_timestamp"`
}

// FetchLedgerRepository records which URLs each source has successfully harvested.
type FetchLedgerRepository struct {
	db *sqlx.DB
}

// NewFetchLedgerRepository creates a new fetch ledger repository.
func NewFetchLedgerRepository(db *sqlx.DB) *FetchLedgerRepository {
	return &FetchLedgerRepository{db: db}
}

// Migrate creates the ledger schema if it does not exist.
func (r *FetchLedgerRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate fetch ledger: %w", err)
		}
	}
	return nil
}

// RecordFetch marks url as harvested by source. Recording an existing pair is a no-op.
func (r *FetchLedgerRepository) RecordFetch(ctx context.Context, url, source string, at time.Time) error {
	query := r.db.Rebind(`
		INSERT INTO fetched_urls (url, source_name, fetch_timestamp)
		VALUES (?, ?, ?)
		ON CONFLICT (url, source_name) DO NOTHING
	`)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin fetch record: %w", err)
	}

	if _, execErr := tx.ExecContext(ctx, query, url, source, FormatTimestamp(at)); execErr != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record fetch of %s: %w", url, execErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit fetch record: %w", commitErr)
	}

	return nil
}

// HasFetched reports whether url was harvested by source, or by any source when source is empty.
func (r *FetchLedgerRepository) HasFetched(ctx context.Context, url, source string) (bool, error) {
	query := `SELECT COUNT(*) FROM fetched_urls WHERE url = ?`
	args := []any{url}
	if source != "" {
		query += ` AND source_name = ?`
		args = append(args, source)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("failed to check fetch of %s: %w", url, err)
	}

	return count > 0, nil
}

// FilterUnfetched returns the URLs source has not harvested yet, deduplicated,
// in input order. An empty input does not touch the store.
func (r *FetchLedgerRepository) FilterUnfetched(ctx context.Context, urls []string, source string) ([]string, error) {
	candidates := dedupe(urls)
	if len(candidates) == 0 {
		return []string{}, nil
	}

	fetched := make(map[string]struct{})
	for _, batch := range chunk(candidates, filterChunkSize) {
		query, args, err := sqlx.In(`SELECT url FROM fetched_urls WHERE source_name = ? AND url IN (?)`, source, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to build fetch filter: %w", err)
		}

		var seen []string
		if selectErr := r.db.SelectContext(ctx, &seen, r.db.Rebind(query), args...); selectErr != nil {
			return nil, fmt.Errorf("failed to filter fetched urls: %w", selectErr)
		}
		for _, u := range seen {
			fetched[u] = struct{}{}
		}
	}

	out := make([]string, 0, len(candidates))
	for _, u := range candidates {
		if _, ok := fetched[u]; !ok {
			out = append(out, u)
		}
	}

	return out, nil
}

// ResetBySource forgets every URL harvested by source.
func (r *FetchLedgerRepository) ResetBySource(ctx context.Context, source string) (int64, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM fetched_urls WHERE source_name = ?`), source))
	if err != nil {
		return 0, fmt.Errorf("failed to reset source %s: %w", source, err)
	}
	return n, nil
}

// ResetByURL forgets url for source, or for every source when source is empty.
func (r *FetchLedgerRepository) ResetByURL(ctx context.Context, url, source string) (int64, error) {
	query := `DELETE FROM fetched_urls WHERE url = ?`
	args := []any{url}
	if source != "" {
		query += ` AND source_name = ?`
		args = append(args, source)
	}

	n, err := rowsAffected(r.db.ExecContext(ctx, r.db.Rebind(query), args...))
	if err != nil {
		return 0, fmt.Errorf("failed to reset url %s: %w", url, err)
	}
	return n, nil
}

// ResetByDate forgets every fetch recorded on the UTC calendar date of date.
func (r *FetchLedgerRepository) ResetByDate(ctx context.Context, date time.Time) (int64, error) {
	day := date.UTC().Format(dateLayout)
	query := r.db.Rebind(`DELETE FROM fetched_urls WHERE substr(fetch_timestamp, 1, 10) = ?`)

	n, err := rowsAffected(r.db.ExecContext(ctx, query, day))
	if err != nil {
		return 0, fmt.Errorf("failed to reset fetches on %s: %w", day, err)
	}
	return n, nil
}

// ResetAll empties the ledger.
func (r *FetchLedgerRepository) ResetAll(ctx context.Context) (int64, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, `DELETE FROM fetched_urls`))
	if err != nil {
		return 0, fmt.Errorf("failed to reset fetch ledger: %w", err)
	}
	return n, nil
}

// Latest returns up to limit records, newest first.
func (r *FetchLedgerRepository) Latest(ctx context.Context, limit int) ([]domain.FetchRecord, error) {
	query := r.db.Rebind(`
		SELECT url, source_name, fetch_timestamp
		FROM fetched_urls
		ORDER BY fetch_timestamp DESC, url ASC
		LIMIT ?
	`)

	var rows []fetchRecordRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list fetches: %w", err)
	}

	records := make([]domain.FetchRecord, 0, len(rows))
	for _, row := range rows {
		at, err := ParseTimestamp(row.FetchedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid fetch timestamp for %s: %w", row.URL, err)
		}
		records = append(records, domain.FetchRecord{URL: row.URL, SourceName: row.SourceName, FetchedAt: at})
	}

	return records, nil
}

// Count returns the number of records in the ledger.
func (r *FetchLedgerRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM fetched_urls`); err != nil {
		return 0, fmt.Errorf("failed to count fetches: %w", err)
	}
	return count, nil
}

// FormatTimestamp renders t in the stored fetch_timestamp form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored fetch_timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}
