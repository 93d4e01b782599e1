package database

import (
	"time"
)

type Source struct {
	Name          string // Configuration source identifier derived from filename
	URL           string // Listing/homepage URL from configuration
	FeedURL       string // RSS/Atom feed URL, empty for page sources
	ParserType    string
	Active        bool
	FetchInterval time.Duration
	LastFetchedAt *time.Time // Updated only after a completed fetch pass
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Item struct {
	ID          int64
	SourceName  string
	URL         string // Globally unique, the dedup key
	Title       string
	Description string
	Content     string // Raw body as ingested
	Author      string
	Language    string
	PublishedAt *time.Time

	IsCleaned         bool
	CleanContent      string
	RewrittenContent  string
	TranslatedContent string
	IsTranslated      bool
	IsPublished       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
