package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var _ ItemRepository = (*ItemRepositoryImpl)(nil)

// ItemRepositoryImpl handles database operations for content items
type ItemRepositoryImpl struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepositoryImpl {
	return &ItemRepositoryImpl{db: db}
}

const itemColumns = `id, source_name, url, title, COALESCE(description, ''),
	       COALESCE(content, ''), COALESCE(author, ''), language, published_at,
	       is_cleaned, COALESCE(clean_content, ''), COALESCE(rewritten_content, ''),
	       COALESCE(translated_content, ''), is_translated, is_published,
	       created_at, updated_at`

// UpsertItem inserts a content item keyed by URL. A second ingestion of
// the same URL is a no-op: enrichment fields already written by later
// pipeline stages must never be overwritten by re-fetched raw data.
func (r *ItemRepositoryImpl) UpsertItem(item NewItem) (bool, error) {
	now := time.Now().UTC()

	result, err := r.db.Exec(`
		INSERT INTO content_items (
			source_name, url, title, description, content, author,
			language, published_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING
	`, item.SourceName, item.URL, item.Title, item.Description, item.Content,
		item.Author, item.Language, item.PublishedAt, now, now)

	if err != nil {
		return false, fmt.Errorf("failed to upsert item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read upsert result: %w", err)
	}

	return affected > 0, nil
}

func (r *ItemRepositoryImpl) GetItemByURL(url string) (*Item, error) {
	row := r.db.QueryRow(`
		SELECT `+itemColumns+`
		FROM content_items
		WHERE url = ?
	`, url)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item by URL: %w", err)
	}

	return item, nil
}

// ListItems returns items matching the filter, newest first.
func (r *ItemRepositoryImpl) ListItems(filter ItemFilter) ([]Item, error) {
	builder := sq.Select(itemColumns).
		From("content_items").
		OrderBy("COALESCE(published_at, created_at) DESC")

	if filter.SourceName != "" {
		builder = builder.Where(sq.Eq{"source_name": filter.SourceName})
	}
	if filter.Language != "" {
		builder = builder.Where(sq.Eq{"language": filter.Language})
	}
	if filter.IsCleaned != nil {
		builder = builder.Where(sq.Eq{"is_cleaned": *filter.IsCleaned})
	}
	if filter.IsTranslated != nil {
		builder = builder.Where(sq.Eq{"is_translated": *filter.IsTranslated})
	}
	if filter.IsPublished != nil {
		builder = builder.Where(sq.Eq{"is_published": *filter.IsPublished})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build items query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// GetItemsForProcessing returns items that have not reached the terminal
// pipeline state, oldest first so stalled items are retried before new ones.
func (r *ItemRepositoryImpl) GetItemsForProcessing(limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM content_items
		WHERE content IS NOT NULL AND content != ''
		  AND NOT (is_cleaned = 1 AND is_translated = 1 AND is_published = 1)
		ORDER BY created_at
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for processing: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// MarkCleaned stores the clean stage output. rewrittenContent may be
// empty when no rewrite was performed.
func (r *ItemRepositoryImpl) MarkCleaned(itemID int64, cleanContent, rewrittenContent string) error {
	var rewritten any
	if rewrittenContent != "" {
		rewritten = rewrittenContent
	}

	_, err := r.db.Exec(`
		UPDATE content_items
		SET is_cleaned = 1, clean_content = ?, rewritten_content = COALESCE(?, rewritten_content), updated_at = ?
		WHERE id = ?
	`, cleanContent, rewritten, time.Now().UTC(), itemID)

	if err != nil {
		return fmt.Errorf("failed to mark item cleaned: %w", err)
	}

	return nil
}

func (r *ItemRepositoryImpl) MarkTranslated(itemID int64, translatedContent string) error {
	_, err := r.db.Exec(`
		UPDATE content_items
		SET is_translated = 1, translated_content = ?, updated_at = ?
		WHERE id = ?
	`, translatedContent, time.Now().UTC(), itemID)

	if err != nil {
		return fmt.Errorf("failed to mark item translated: %w", err)
	}

	return nil
}

func (r *ItemRepositoryImpl) MarkPublished(itemID int64) error {
	_, err := r.db.Exec(`
		UPDATE content_items
		SET is_published = 1, updated_at = ?
		WHERE id = ?
	`, time.Now().UTC(), itemID)

	if err != nil {
		return fmt.Errorf("failed to mark item published: %w", err)
	}

	return nil
}

func (r *ItemRepositoryImpl) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM content_items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *ItemRepositoryImpl) GetItemStats() (total, cleaned, translated, published int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(is_cleaned), 0) as cleaned,
			COALESCE(SUM(is_translated), 0) as translated,
			COALESCE(SUM(is_published), 0) as published
		FROM content_items
	`).Scan(&total, &cleaned, &translated, &published)

	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}

	return total, cleaned, translated, published, nil
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID, &item.SourceName, &item.URL, &item.Title, &item.Description,
		&item.Content, &item.Author, &item.Language, &item.PublishedAt,
		&item.IsCleaned, &item.CleanContent, &item.RewrittenContent,
		&item.TranslatedContent, &item.IsTranslated, &item.IsPublished,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}
