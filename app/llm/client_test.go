package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got: %s", r.Method)
		}

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode request payload: %v", err)
		}
		if payload.Model != "test-model" {
			t.Errorf("Expected model 'test-model', got: %s", payload.Model)
		}
		if len(payload.Messages) != 1 {
			t.Errorf("Expected 1 message, got: %d", len(payload.Messages))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestClientTranslate(t *testing.T) {
	server := chatServer(t, "Переведённый текст статьи.")
	defer server.Close()

	client := NewClient(server.URL, "test-model", "secret", "Russian")
	translated, err := client.Translate(context.Background(), "Article body.")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if translated != "Переведённый текст статьи." {
		t.Errorf("Expected translated text, got: %s", translated)
	}
}

func TestClientRewrite(t *testing.T) {
	server := chatServer(t, "A polished rewrite.")
	defer server.Close()

	client := NewClient(server.URL, "test-model", "", "Russian")
	rewritten, err := client.Rewrite(context.Background(), "rough draft")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if rewritten != "A polished rewrite." {
		t.Errorf("Expected rewritten text, got: %s", rewritten)
	}
}

func TestClientSendsTargetLanguage(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if len(payload.Messages) > 0 {
			prompt = payload.Messages[0].Content
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "", "German")
	if _, err := client.Translate(context.Background(), "text"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(prompt, "German") {
		t.Errorf("Expected target language in prompt, got: %s", prompt)
	}
}

func TestClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "", "Russian")
	if _, err := client.Translate(context.Background(), "text"); err == nil {
		t.Error("Expected error for HTTP 429 response")
	}
}

func TestClientEmptyResponse(t *testing.T) {
	server := chatServer(t, "")
	defer server.Close()

	client := NewClient(server.URL, "test-model", "", "Russian")
	if _, err := client.Translate(context.Background(), "text"); err == nil {
		t.Error("Expected error for empty completion")
	}
}

func TestClientConfigured(t *testing.T) {
	if NewClient("", "model", "", "Russian").Configured() {
		t.Error("Expected client without endpoint to be unconfigured")
	}
	if NewClient("https://api.example.com/v1/chat/completions", "", "", "Russian").Configured() {
		t.Error("Expected client without model to be unconfigured")
	}
	if !NewClient("https://api.example.com/v1/chat/completions", "model", "", "Russian").Configured() {
		t.Error("Expected fully specified client to be configured")
	}

	var nilClient *Client
	if nilClient.Configured() {
		t.Error("Expected nil client to be unconfigured")
	}
}
