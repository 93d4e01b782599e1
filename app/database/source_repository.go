package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ SourceRepository = (*SourceRepositoryImpl)(nil)

// SourceRepositoryImpl handles database operations for sources
type SourceRepositoryImpl struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepositoryImpl {
	return &SourceRepositoryImpl{db: db}
}

// UpsertSource inserts or updates a source configuration. The
// last_fetched_at timestamp is never touched here; only a completed
// fetch pass updates it.
func (r *SourceRepositoryImpl) UpsertSource(name, url, feedURL, parserType string, active bool, fetchInterval time.Duration) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO sources (name, url, feed_url, parser_type, active, fetch_interval_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			feed_url = excluded.feed_url,
			parser_type = excluded.parser_type,
			active = excluded.active,
			fetch_interval_seconds = excluded.fetch_interval_seconds,
			updated_at = excluded.updated_at
	`, name, url, feedURL, parserType, active, int64(fetchInterval.Seconds()), now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

func (r *SourceRepositoryImpl) GetSource(name string) (*Source, error) {
	row := r.db.QueryRow(`
		SELECT name, url, feed_url, parser_type, active, fetch_interval_seconds,
		       last_fetched_at, created_at, updated_at
		FROM sources
		WHERE name = ?
	`, name)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

func (r *SourceRepositoryImpl) GetActiveSources() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT name, url, feed_url, parser_type, active, fetch_interval_seconds,
		       last_fetched_at, created_at, updated_at
		FROM sources
		WHERE active = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// UpdateLastFetched records the completion of a fetch pass for a source.
func (r *SourceRepositoryImpl) UpdateLastFetched(name string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_fetched_at = ?, updated_at = ?
		WHERE name = ?
	`, fetchedAt.UTC(), time.Now().UTC(), name)

	if err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}

	return nil
}

func (r *SourceRepositoryImpl) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

func (r *SourceRepositoryImpl) GetActiveSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources WHERE active = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get active source count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*Source, error) {
	var source Source
	var intervalSeconds int64

	err := row.Scan(
		&source.Name, &source.URL, &source.FeedURL, &source.ParserType,
		&source.Active, &intervalSeconds, &source.LastFetchedAt,
		&source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	source.FetchInterval = time.Duration(intervalSeconds) * time.Second
	return &source, nil
}
