package content

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Cleaner strips markup from raw article bodies, producing the plain
// text handed to the rewrite and translate stages.
type Cleaner struct{}

func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Run converts HTML content to cleaned plain text: scripts, styles and
// embedded frames are dropped, each remaining text line is trimmed and
// blank lines are collapsed. Plain-text input passes through with the
// same line normalization.
func (c *Cleaner) Run(rawContent string) (string, error) {
	if strings.TrimSpace(rawContent) == "" {
		return "", fmt.Errorf("content is empty")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse content: %w", err)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}

	cleaned := strings.Join(lines, "\n")
	if cleaned == "" {
		return "", fmt.Errorf("no text left after cleaning")
	}

	return cleaned, nil
}
