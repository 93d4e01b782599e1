package database

import (
	"time"
)

// NewItem is a normalized article handed over for persistence.
type NewItem struct {
	SourceName  string
	URL         string
	Title       string
	Description string
	Content     string
	Author      string
	Language    string
	PublishedAt *time.Time
}

// ItemFilter narrows ListItems results. Nil boolean fields are not applied.
type ItemFilter struct {
	SourceName   string
	Language     string
	IsCleaned    *bool
	IsTranslated *bool
	IsPublished  *bool
	Limit        uint64
	Offset       uint64
}

type SourceRepository interface {
	GetSource(name string) (*Source, error)
	GetActiveSources() ([]Source, error)
	GetSourceCount() (int, error)
	GetActiveSourceCount() (int, error)

	UpsertSource(name, url, feedURL, parserType string, active bool, fetchInterval time.Duration) error
	UpdateLastFetched(name string, fetchedAt time.Time) error
}

type ItemRepository interface {
	GetItemByURL(url string) (*Item, error)
	ListItems(filter ItemFilter) ([]Item, error)
	GetItemCount() (int, error)
	GetItemStats() (total, cleaned, translated, published int, err error)

	// UpsertItem inserts an item keyed by URL. An already known URL is a
	// no-op that leaves existing enrichment fields untouched; the return
	// value reports whether a new row was created.
	UpsertItem(item NewItem) (bool, error)

	GetItemsForProcessing(limit int) ([]Item, error)
	MarkCleaned(itemID int64, cleanContent, rewrittenContent string) error
	MarkTranslated(itemID int64, translatedContent string) error
	MarkPublished(itemID int64) error
}
