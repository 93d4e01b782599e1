package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/language"
)

var _ Parser = (*FeedParser)(nil)

// FeedParser collects articles from an RSS/Atom feed.
type FeedParser struct {
	sourceConfig *Config
	httpClient   *http.Client
	extractor    *Extractor
	opts         FetchOptions
	gofeedParser *gofeed.Parser
	extracted    int
}

func NewFeedParser(sourceConfig *Config, httpClient *http.Client, extractor *Extractor, opts FetchOptions) *FeedParser {
	return &FeedParser{
		sourceConfig: sourceConfig,
		httpClient:   httpClient,
		extractor:    extractor,
		opts:         opts,
		gofeedParser: gofeed.NewParser(),
	}
}

// Run fetches the feed document and normalizes its entries. Each entry
// is handled independently: a rejected or failed entry is recorded in
// the report and skipped without affecting its siblings.
func (p *FeedParser) Run(ctx context.Context) ([]Article, *Report, error) {
	data, err := p.fetchFeed(ctx, p.sourceConfig.FeedURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	feedLanguage := normalizeLanguage(feed.Language)

	report := &Report{}
	articles := make([]Article, 0, len(feed.Items))

	for _, entry := range feed.Items {
		article, result := p.normalizeEntry(ctx, entry, feedLanguage)
		report.add(result)

		if result.Status != EntryParsed {
			slog.Debug("Entry not parsed", "source", p.sourceConfig.Name, "link", result.Link, "status", result.Status, "reason", result.Reason)
			continue
		}

		articles = append(articles, *article)

		if p.sourceConfig.Settings.MaxItems > 0 && len(articles) >= p.sourceConfig.Settings.MaxItems {
			break
		}
	}

	return articles, report, nil
}

// normalizeEntry converts one raw feed entry into an Article. The link
// is the dedup key and cannot be synthesized; link and title are
// mandatory, everything else degrades to empty or nil.
func (p *FeedParser) normalizeEntry(ctx context.Context, entry *gofeed.Item, feedLanguage string) (*Article, EntryResult) {
	link := strings.TrimSpace(entry.Link)
	if link == "" {
		return nil, EntryResult{Status: EntrySkipped, Reason: "missing link"}
	}

	title := collapseWhitespace(entry.Title)
	if title == "" {
		return nil, EntryResult{Status: EntrySkipped, Link: link, Reason: "missing title"}
	}

	var publishedAt *time.Time
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = entry.UpdatedParsed
	}

	description := collapseWhitespace(entry.Description)

	content := entry.Content
	hasFeedBody := content != ""
	if content == "" {
		content = description
	}

	// Full-content enrichment is best effort: a failed page fetch falls
	// back to whatever summary text the feed supplied.
	if p.wantFullContent() && !hasFeedBody && p.extractor != nil {
		p.extracted++
		if body := p.extractor.Extract(ctx, link); body != "" {
			content = body
		}

		select {
		case <-ctx.Done():
			return nil, EntryResult{Status: EntryFailed, Link: link, Reason: ctx.Err().Error()}
		case <-time.After(p.opts.Delay):
		}
	}

	article := &Article{
		Title:       title,
		URL:         link,
		PublishedAt: publishedAt,
		Source:      p.sourceConfig.Name,
		Author:      firstAuthor(entry),
		Description: description,
		Content:     content,
		Language:    feedLanguage,
		CreatedAt:   time.Now().UTC(),
	}

	return article, EntryResult{Status: EntryParsed, Link: link}
}

func (p *FeedParser) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(p.sourceConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.opts.UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// wantFullContent reports whether the current entry should be enriched
// with extracted page content, honoring the per-pass extraction cap.
func (p *FeedParser) wantFullContent() bool {
	if !p.sourceConfig.Settings.FetchFullContent && !p.opts.ForceFullText {
		return false
	}
	if p.opts.ExtractLimit > 0 && p.extracted >= p.opts.ExtractLimit {
		return false
	}
	return true
}

// firstAuthor prefers the entry's direct author, then the first entry of
// the extended authors list.
func firstAuthor(entry *gofeed.Item) string {
	if entry.Author != nil && strings.TrimSpace(entry.Author.Name) != "" {
		return strings.TrimSpace(entry.Author.Name)
	}
	for _, author := range entry.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			return strings.TrimSpace(author.Name)
		}
	}
	return ""
}

// normalizeLanguage reduces a feed language tag ("en-US", "ru") to its
// base code, defaulting to "en" when absent or unparsable.
func normalizeLanguage(raw string) string {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "en"
	}

	base, confidence := tag.Base()
	if confidence == language.No {
		return "en"
	}

	return base.String()
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
