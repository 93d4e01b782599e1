package source

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Configuration-error conditions surfaced by parser selection. Callers
// treat any of them as "skip this source, continue with the others".
var (
	ErrUnknownParserType        = errors.New("unknown parser type")
	ErrPageParserNotImplemented = errors.New("page parser is not implemented")
	ErrMissingFeedURL           = errors.New("feed source has no feed URL")
)

// FetchOptions carries process-wide fetch behavior applied on top of
// per-source settings.
type FetchOptions struct {
	UserAgent string
	// Delay is the polite pause between article page fetches.
	Delay time.Duration
	// ForceFullText enables full-content extraction even for sources
	// that do not request it.
	ForceFullText bool
	// ExtractLimit caps full-content extractions per source pass, 0
	// means unlimited.
	ExtractLimit int
}

// Selector constructs the parser matching a source's declared type.
type Selector struct {
	httpClient *http.Client
	extractor  *Extractor
	opts       FetchOptions
}

func NewSelector(httpClient *http.Client, extractor *Extractor, opts FetchOptions) *Selector {
	return &Selector{
		httpClient: httpClient,
		extractor:  extractor,
		opts:       opts,
	}
}

// ForConfig returns the parser for the source's declared type. The
// switch over ParserType is exhaustive: page sources are accepted in
// configuration but yield ErrPageParserNotImplemented, any other value
// yields ErrUnknownParserType.
func (s *Selector) ForConfig(sourceConfig *Config) (Parser, error) {
	switch NormalizeType(sourceConfig.Type) {
	case ParserTypeFeed:
		if sourceConfig.FeedURL == "" {
			return nil, fmt.Errorf("source %s: %w", sourceConfig.Name, ErrMissingFeedURL)
		}
		return NewFeedParser(sourceConfig, s.httpClient, s.extractor, s.opts), nil

	case ParserTypePage:
		return nil, fmt.Errorf("source %s: %w", sourceConfig.Name, ErrPageParserNotImplemented)

	default:
		return nil, fmt.Errorf("source %s: %w: %q", sourceConfig.Name, ErrUnknownParserType, sourceConfig.Type)
	}
}
