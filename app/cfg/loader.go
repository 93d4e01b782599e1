package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./articlepipe.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for source processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	ItemBatchSize     int    `long:"item-batch-size" env:"ITEM_BATCH_SIZE" default:"10" description:"Maximum number of items processed per enrichment pass"`

	// Fetch behavior
	UserAgent     string `long:"user-agent" env:"USER_AGENT" default:"ArticlePipe/1.0" description:"User agent string for HTTP requests"`
	FetchTimeout  int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"HTTP fetch timeout in seconds"`
	FetchDelayMs  int    `long:"fetch-delay" env:"FETCH_DELAY_MS" default:"500" description:"Delay between article page fetches in milliseconds"`
	FetchLimit    int    `long:"limit" env:"FETCH_LIMIT" default:"0" description:"Maximum number of articles to ingest per source (0 for no limit)"`
	ExtractLimit  int    `long:"extract-limit" env:"EXTRACT_LIMIT" default:"25" description:"Maximum number of full-content extractions per source pass"`
	FetchFullText bool   `long:"fetch-full-text" env:"FETCH_FULL_TEXT" description:"Fetch full article text for entries that only carry a summary"`

	// Enrichment (LLM) configuration
	LLMEndpoint    string `long:"llm-endpoint" env:"LLM_ENDPOINT" description:"OpenAI-compatible chat completions endpoint for rewrite/translate stages"`
	LLMModel       string `long:"llm-model" env:"LLM_MODEL" default:"gpt-4o-mini" description:"Model name for rewrite/translate stages"`
	LLMAPIKey      string `long:"llm-api-key" env:"LLM_API_KEY" description:"API key for the LLM endpoint"`
	TargetLanguage string `long:"target-language" env:"TARGET_LANGUAGE" default:"Russian" description:"Target language for the translate stage"`

	// Run modes
	RunOnce    bool   `long:"once" description:"Run a single fetch pass over due sources and exit"`
	SourceName string `long:"source" description:"Restrict a --once run to a single source by name"`
	DryRun     bool   `long:"dry-run" description:"Run extraction without persisting articles"`
	AllSources bool   `long:"all-sources" description:"Treat every active source as due regardless of last fetch time"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		SourcesDir:        raw.SourcesDir,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		ItemBatchSize:     raw.ItemBatchSize,
		UserAgent:         raw.UserAgent,
		FetchTimeout:      raw.FetchTimeout,
		FetchDelayMs:      raw.FetchDelayMs,
		FetchLimit:        raw.FetchLimit,
		ExtractLimit:      raw.ExtractLimit,
		FetchFullText:     raw.FetchFullText,
		LLMEndpoint:       raw.LLMEndpoint,
		LLMModel:          raw.LLMModel,
		LLMAPIKey:         raw.LLMAPIKey,
		TargetLanguage:    raw.TargetLanguage,
		RunOnce:           raw.RunOnce,
		SourceName:        raw.SourceName,
		DryRun:            raw.DryRun,
		AllSources:        raw.AllSources,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
