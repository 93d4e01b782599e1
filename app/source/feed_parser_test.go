package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func feedConfig(feedURL string) *Config {
	return &Config{
		Name:    "test-source",
		URL:     "https://example.com",
		FeedURL: feedURL,
		Type:    "feed",
		Settings: ConfigSettings{
			Active:        true,
			FetchInterval: 3600,
			Timeout:       10,
		},
	}
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
}

func TestFeedParserRun(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <language>en-US</language>
    <item>
      <title>First   Article</title>
      <link>https://example.com/first</link>
      <description>First article summary</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <author>author@example.com (Jane Writer)</author>
    </item>
    <item>
      <title>Second Article</title>
      <link>https://example.com/second</link>
      <description>Second article summary</description>
    </item>
  </channel>
</rss>`

	server := serveFeed(t, rssData)
	defer server.Close()

	parser := NewFeedParser(feedConfig(server.URL), server.Client(), nil, FetchOptions{UserAgent: "test"})
	articles, report, err := parser.Run(context.Background())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got: %d", len(articles))
	}
	if report.Total != 2 || report.Parsed != 2 {
		t.Errorf("Expected report 2/2 parsed, got: %d/%d", report.Parsed, report.Total)
	}

	first := articles[0]
	if first.Title != "First Article" {
		t.Errorf("Expected collapsed title 'First Article', got: %s", first.Title)
	}
	if first.URL != "https://example.com/first" {
		t.Errorf("Expected URL 'https://example.com/first', got: %s", first.URL)
	}
	if first.Source != "test-source" {
		t.Errorf("Expected source 'test-source', got: %s", first.Source)
	}
	if first.Language != "en" {
		t.Errorf("Expected language 'en', got: %s", first.Language)
	}
	if first.PublishedAt == nil {
		t.Error("Expected published date to be set")
	}
	if first.Description != "First article summary" {
		t.Errorf("Expected description 'First article summary', got: %s", first.Description)
	}
	// Without a dedicated content element the summary doubles as content
	if first.Content != "First article summary" {
		t.Errorf("Expected content to fall back to description, got: %s", first.Content)
	}

	second := articles[1]
	if second.PublishedAt != nil {
		t.Errorf("Expected no published date, got: %v", second.PublishedAt)
	}
	if second.Author != "" {
		t.Errorf("Expected empty author, got: %s", second.Author)
	}
}

func TestFeedParserSkipsIncompleteEntries(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item>
      <title>Complete</title>
      <link>https://example.com/complete</link>
    </item>
    <item>
      <title>No Link Here</title>
      <description>Entry without a link</description>
    </item>
    <item>
      <link>https://example.com/untitled</link>
      <description>Entry without a title</description>
    </item>
  </channel>
</rss>`

	server := serveFeed(t, rssData)
	defer server.Close()

	parser := NewFeedParser(feedConfig(server.URL), server.Client(), nil, FetchOptions{UserAgent: "test"})
	articles, report, err := parser.Run(context.Background())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got: %d", len(articles))
	}
	if articles[0].URL != "https://example.com/complete" {
		t.Errorf("Expected the complete entry to survive, got: %s", articles[0].URL)
	}
	if report.Skipped != 2 {
		t.Errorf("Expected 2 skipped entries, got: %d", report.Skipped)
	}

	reasons := make(map[string]bool)
	for _, entry := range report.Entries {
		if entry.Status == EntrySkipped {
			reasons[entry.Reason] = true
		}
	}
	if !reasons["missing link"] || !reasons["missing title"] {
		t.Errorf("Expected skip reasons for missing link and title, got: %v", reasons)
	}
}

func TestFeedParserPublishedFallsBackToUpdated(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <id>urn:uuid:feed</id>
  <updated>2023-07-03T12:00:00Z</updated>
  <entry>
    <title>Updated Only</title>
    <link href="https://example.com/updated-only"/>
    <id>urn:uuid:entry-1</id>
    <updated>2023-07-03T10:00:00Z</updated>
  </entry>
</feed>`

	server := serveFeed(t, atomData)
	defer server.Close()

	parser := NewFeedParser(feedConfig(server.URL), server.Client(), nil, FetchOptions{UserAgent: "test"})
	articles, _, err := parser.Run(context.Background())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got: %d", len(articles))
	}
	if articles[0].PublishedAt == nil {
		t.Fatal("Expected published date from the updated element")
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !articles[0].PublishedAt.Equal(expected) {
		t.Errorf("Expected published date %v, got: %v", expected, articles[0].PublishedAt)
	}
}

func TestFeedParserMaxItems(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item><title>One</title><link>https://example.com/1</link></item>
    <item><title>Two</title><link>https://example.com/2</link></item>
    <item><title>Three</title><link>https://example.com/3</link></item>
  </channel>
</rss>`

	server := serveFeed(t, rssData)
	defer server.Close()

	config := feedConfig(server.URL)
	config.Settings.MaxItems = 2

	parser := NewFeedParser(config, server.Client(), nil, FetchOptions{UserAgent: "test"})
	articles, _, err := parser.Run(context.Background())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("Expected 2 articles, got: %d", len(articles))
	}
}

func TestFeedParserFullContentFallsBackToSummary(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>` + server.URL + `</link>
    <item>
      <title>Gone</title>
      <link>` + server.URL + `/gone</link>
      <description>Summary text survives</description>
    </item>
  </channel>
</rss>`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	config := feedConfig(server.URL + "/feed")
	config.Settings.FetchFullContent = true

	extractor := NewExtractor(server.Client(), "test")
	parser := NewFeedParser(config, server.Client(), extractor, FetchOptions{UserAgent: "test"})
	articles, _, err := parser.Run(context.Background())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got: %d", len(articles))
	}
	if articles[0].Content != "Summary text survives" {
		t.Errorf("Expected summary fallback after failed extraction, got: %s", articles[0].Content)
	}
}

func TestFeedParserFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	parser := NewFeedParser(feedConfig(server.URL), server.Client(), nil, FetchOptions{UserAgent: "test"})
	_, _, err := parser.Run(context.Background())

	if err == nil {
		t.Fatal("Expected error for HTTP 500 response")
	}
}

func TestFeedParserInvalidFeed(t *testing.T) {
	server := serveFeed(t, "this is not a feed document")
	defer server.Close()

	parser := NewFeedParser(feedConfig(server.URL), server.Client(), nil, FetchOptions{UserAgent: "test"})
	_, _, err := parser.Run(context.Background())

	if err == nil {
		t.Fatal("Expected error for unparsable feed document")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"en-US": "en",
		"ru-RU": "ru",
		"pt-BR": "pt",
		"de":    "de",
		"":      "en",
		"!!":    "en",
	}

	for raw, expected := range cases {
		if got := normalizeLanguage(raw); got != expected {
			t.Errorf("Expected %q for %q, got: %q", expected, raw, got)
		}
	}
}
