package source

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestConfigCacheRun(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "tech-news", `
url: "https://example.com"
feed_url: "https://example.com/rss"
parser_type: "feed"
settings:
  active: true
  fetch_interval: 3600
`)
	writeConfigFile(t, dir, "dormant", `
url: "https://other.example.com"
feed_url: "https://other.example.com/rss"
parser_type: "feed"
settings:
  active: false
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got: %d", cache.GetConfigCount())
	}

	config, err := cache.GetConfig("tech-news")
	if err != nil {
		t.Fatalf("Expected config to exist, got: %v", err)
	}
	if config.Name != "tech-news" {
		t.Errorf("Expected name from filename 'tech-news', got: %s", config.Name)
	}
	if config.Settings.FetchInterval != 3600 {
		t.Errorf("Expected fetch interval 3600, got: %d", config.Settings.FetchInterval)
	}

	active := cache.GetActiveConfigs()
	if len(active) != 1 {
		t.Fatalf("Expected 1 active config, got: %d", len(active))
	}
	if _, ok := active["tech-news"]; !ok {
		t.Error("Expected 'tech-news' among active configs")
	}
}

func TestConfigCacheDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "minimal", `
url: "https://example.com"
feed_url: "https://example.com/rss"
parser_type: "feed"
settings:
  active: true
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	config, err := cache.GetConfig("minimal")
	if err != nil {
		t.Fatalf("Expected config to exist, got: %v", err)
	}
	if config.Settings.FetchInterval != 86400 {
		t.Errorf("Expected default fetch interval 86400, got: %d", config.Settings.FetchInterval)
	}
	if config.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got: %d", config.Settings.Timeout)
	}
}

func TestConfigCacheFeedRequiresFeedURL(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "broken", `
url: "https://example.com"
parser_type: "feed"
settings:
  active: true
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err == nil {
		t.Error("Expected error for feed source without feed URL")
	}
}

func TestConfigCachePageRequiresSelectors(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "scraped", `
url: "https://example.com"
parser_type: "page"
selectors:
  list_item: "article"
  url: "a"
settings:
  active: true
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err == nil {
		t.Error("Expected error for page source missing the title selector")
	}
}

func TestConfigCacheUnknownParserType(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "odd", `
url: "https://example.com"
parser_type: "telegraph"
settings:
  active: true
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err == nil {
		t.Error("Expected error for unknown parser type")
	}
}

func TestConfigCacheMissingDir(t *testing.T) {
	cache := NewConfigCache(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := cache.Run(); err != nil {
		t.Errorf("Expected no error for missing directory, got: %v", err)
	}
	if cache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got: %d", cache.GetConfigCount())
	}
}

func TestConfigCacheGetConfigMissing(t *testing.T) {
	cache := NewConfigCache(t.TempDir())
	if _, err := cache.GetConfig("nope"); err == nil {
		t.Error("Expected error for unknown source name")
	}
}
