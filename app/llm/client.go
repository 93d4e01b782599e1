package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const rewritePrompt = `Rewrite the following article in a professional, journalistic style,
maintaining the technical accuracy and important information.
Focus on clarity, professionalism, and engagement while keeping the original meaning intact.

Original article:
%s`

const translatePrompt = `Translate the following article into %s.
Maintain the professional tone and ensure technical terms are translated appropriately.

Article:
%s`

// Client talks to an OpenAI-compatible chat completions endpoint and
// powers the rewrite and translate enrichment stages.
type Client struct {
	endpoint       string
	model          string
	apiKey         string
	targetLanguage string
	httpClient     *http.Client
}

func NewClient(endpoint, model, apiKey, targetLanguage string) *Client {
	return &Client{
		endpoint:       endpoint,
		model:          model,
		apiKey:         apiKey,
		targetLanguage: targetLanguage,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Configured reports whether the client can perform requests. An
// unconfigured client makes the rewrite/translate stages unavailable;
// cleaning and publishing still run.
func (c *Client) Configured() bool {
	return c != nil && c.endpoint != "" && c.model != ""
}

// Rewrite returns a journalistic rewrite of the cleaned article text.
func (c *Client) Rewrite(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, fmt.Sprintf(rewritePrompt, text))
}

// Translate returns the article text translated into the configured
// target language.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, fmt.Sprintf(translatePrompt, c.targetLanguage, text))
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("llm client is not configured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call llm endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("llm returned no content")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
