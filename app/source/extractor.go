package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Extractor retrieves an article page and extracts its main body text.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
}

func NewExtractor(httpClient *http.Client, userAgent string) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Extract returns the readable body text of the page, or "" when the
// page cannot be fetched or yields no usable text. Callers treat "" as
// "use the summary instead"; extraction failure is never an error.
func (e *Extractor) Extract(ctx context.Context, pageURL string) string {
	data, err := e.fetchPage(ctx, pageURL)
	if err != nil {
		slog.Warn("Failed to fetch article page", "url", pageURL, "error", err)
		return ""
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		slog.Warn("Failed to parse article URL", "url", pageURL, "error", err)
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		slog.Warn("Failed to extract article content", "url", pageURL, "error", err)
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		slog.Warn("No readable text extracted", "url", pageURL)
		return ""
	}

	slog.Debug("Content extracted successfully", "url", pageURL, "content_length", len(text))
	return text
}

func (e *Extractor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
