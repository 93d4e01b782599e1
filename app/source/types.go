package source

import (
	"context"
	"strings"
	"time"
)

// ParserType is the closed set of supported source parser kinds.
type ParserType string

const (
	ParserTypeFeed    ParserType = "feed"
	ParserTypePage    ParserType = "page"
	ParserTypeUnknown ParserType = ""
)

// NormalizeType maps a declared parser type string onto the closed set.
// Legacy spellings from imported source lists are accepted.
func NormalizeType(raw string) ParserType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "feed", "rss", "atom":
		return ParserTypeFeed
	case "page", "html":
		return ParserTypePage
	default:
		return ParserTypeUnknown
	}
}

// Article is one normalized record emitted by a parser.
type Article struct {
	Title       string
	URL         string
	PublishedAt *time.Time
	Source      string
	Author      string
	Description string
	Content     string
	Language    string
	CreatedAt   time.Time
}

type EntryStatus string

const (
	EntryParsed  EntryStatus = "parsed"
	EntrySkipped EntryStatus = "skipped"
	EntryFailed  EntryStatus = "failed"
)

// EntryResult records the outcome of normalizing a single raw entry.
type EntryResult struct {
	Status EntryStatus
	Link   string
	Reason string
}

// Report aggregates per-entry outcomes for one source run.
type Report struct {
	Total   int
	Parsed  int
	Skipped int
	Failed  int
	Entries []EntryResult
}

func (r *Report) add(result EntryResult) {
	r.Total++
	switch result.Status {
	case EntryParsed:
		r.Parsed++
	case EntrySkipped:
		r.Skipped++
	case EntryFailed:
		r.Failed++
	}
	r.Entries = append(r.Entries, result)
}

// Parser turns a source's listing into normalized articles. An empty
// result is valid; entry-level failures are reported, not returned as
// errors.
type Parser interface {
	Run(ctx context.Context) ([]Article, *Report, error)
}

// Configuration types

type Config struct {
	Name      string            // Derived from filename (without .yml extension)
	URL       string            `yaml:"url"`
	FeedURL   string            `yaml:"feed_url"`
	Type      string            `yaml:"parser_type"`
	Selectors map[string]string `yaml:"selectors"`
	Settings  ConfigSettings    `yaml:"settings"`
}

type ConfigSettings struct {
	Active           bool `yaml:"active"`
	FetchInterval    int  `yaml:"fetch_interval"` // seconds
	MaxItems         int  `yaml:"max_items"`
	Timeout          int  `yaml:"timeout"` // seconds
	FetchFullContent bool `yaml:"fetch_full_content"`
}
