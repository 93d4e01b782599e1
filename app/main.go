package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivpopov/articlepipe/app/api"
	"github.com/ivpopov/articlepipe/app/cfg"
	"github.com/ivpopov/articlepipe/app/content"
	"github.com/ivpopov/articlepipe/app/database"
	"github.com/ivpopov/articlepipe/app/llm"
	"github.com/ivpopov/articlepipe/app/source"
	"github.com/ivpopov/articlepipe/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appConfig.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting ArticlePipe", "version", appConfig.Version)

	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appConfig.DBPath, "migration_version", version, "dirty", dirty)

	configCache := source.NewConfigCache(appConfig.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount(), "dir", appConfig.SourcesDir)

	sourceRepo := database.NewSourceRepository(db)
	itemRepo := database.NewItemRepository(db)

	httpClient := &http.Client{
		Timeout: time.Duration(appConfig.FetchTimeout) * time.Second,
	}
	extractor := source.NewExtractor(httpClient, appConfig.UserAgent)
	selector := source.NewSelector(httpClient, extractor, source.FetchOptions{
		UserAgent:     appConfig.UserAgent,
		Delay:         time.Duration(appConfig.FetchDelayMs) * time.Millisecond,
		ForceFullText: appConfig.FetchFullText,
		ExtractLimit:  appConfig.ExtractLimit,
	})

	cleaner := content.NewCleaner()
	llmClient := llm.NewClient(appConfig.LLMEndpoint, appConfig.LLMModel,
		appConfig.LLMAPIKey, appConfig.TargetLanguage)
	if !llmClient.Configured() {
		slog.Warn("LLM endpoint not configured, rewrite and translate stages disabled")
	}

	if appConfig.RunOnce {
		if err := runOnce(appConfig, configCache, selector, sourceRepo, itemRepo); err != nil {
			slog.Error("Fetch pass failed", "error", err)
			os.Exit(1)
		}
		return
	}

	scheduler := tasks.NewScheduler(configCache, sourceRepo, itemRepo, selector, cleaner, llmClient)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appConfig.WorkerCount, "interval_seconds", appConfig.SchedulerInterval)

	apiHandler := api.NewHandler(configCache, sourceRepo, itemRepo, scheduler)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// runOnce executes a single synchronous fetch pass over due sources and
// exits. Used from cron or by hand; --dry-run suppresses persistence
// while still exercising fetch and normalization.
func runOnce(appConfig *cfg.Cfg, configCache *source.ConfigCache, selector *source.Selector,
	sourceRepo database.SourceRepository, itemRepo database.ItemRepository) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if appConfig.DryRun {
		slog.Info("Dry run, articles will not be persisted")
	}

	configs := configCache.GetActiveConfigs()
	if appConfig.SourceName != "" {
		sourceConfig, err := configCache.GetConfig(appConfig.SourceName)
		if err != nil {
			return err
		}
		configs = map[string]*source.Config{appConfig.SourceName: sourceConfig}
	}

	if len(configs) == 0 {
		slog.Warn("No source configurations to process")
		return nil
	}

	now := time.Now().UTC()
	processed := 0
	skipped := 0
	errorCount := 0

	for _, sourceConfig := range configs {
		if err := sourceRepo.UpsertSource(
			sourceConfig.Name, sourceConfig.URL, sourceConfig.FeedURL,
			string(source.NormalizeType(sourceConfig.Type)), sourceConfig.Settings.Active,
			time.Duration(sourceConfig.Settings.FetchInterval)*time.Second); err != nil {
			return fmt.Errorf("failed to sync source %s: %w", sourceConfig.Name, err)
		}

		src, err := sourceRepo.GetSource(sourceConfig.Name)
		if err != nil {
			return fmt.Errorf("failed to load source %s: %w", sourceConfig.Name, err)
		}

		if !tasks.SourceDue(src, now, appConfig.AllSources) {
			slog.Debug("Source not due for refresh, skipping", "source", sourceConfig.Name, "last_fetched_at", src.LastFetchedAt)
			skipped++
			continue
		}

		if appConfig.FetchLimit > 0 {
			limited := *sourceConfig
			limited.Settings.MaxItems = appConfig.FetchLimit
			sourceConfig = &limited
		}

		task := tasks.NewFetchSourceTask(sourceConfig.Name, sourceConfig, selector, sourceRepo, itemRepo, appConfig.DryRun)
		task.Start()
		if err := task.Execute(ctx); err != nil {
			slog.Error("Source processing failed", "source", sourceConfig.Name, "error", err)
			errorCount++
		} else {
			processed++
		}

		// Polite pause between sources
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(appConfig.FetchDelayMs) * time.Millisecond):
		}
	}

	slog.Info("Fetch pass completed",
		"sources", len(configs),
		"processed", processed,
		"not_due", skipped,
		"errors", errorCount)

	return nil
}
