package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivpopov/articlepipe/app/database"
	"github.com/ivpopov/articlepipe/app/source"
)

// FetchSourceTask runs one full fetch-and-normalize pass over a single
// source: parser selection, article collection, upsert keyed by URL,
// and the last-fetched timestamp update.
type FetchSourceTask struct {
	Task
	SourceConfig *source.Config
	selector     *source.Selector
	sourceRepo   database.SourceRepository
	itemRepo     database.ItemRepository
	dryRun       bool
}

func NewFetchSourceTask(sourceName string, sourceConfig *source.Config, selector *source.Selector, sourceRepo database.SourceRepository, itemRepo database.ItemRepository, dryRun bool) *FetchSourceTask {
	return &FetchSourceTask{
		Task:         NewTask(TaskTypeFetchSource, sourceName),
		SourceConfig: sourceConfig,
		selector:     selector,
		sourceRepo:   sourceRepo,
		itemRepo:     itemRepo,
		dryRun:       dryRun,
	}
}

func (t *FetchSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Active {
		slog.Debug("Source inactive, skipping", "source", t.SourceName)
		return nil
	}

	parser, err := t.selector.ForConfig(t.SourceConfig)
	if err != nil {
		// Configuration errors are per-source and final: log once, skip
		// this source, never abort or retry the run.
		if errors.Is(err, source.ErrPageParserNotImplemented) {
			slog.Warn("Source skipped", "source", t.SourceName, "reason", err)
		} else {
			slog.Error("Parser selection failed", "source", t.SourceName, "error", err)
		}
		return nil
	}

	articles, report, err := parser.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect articles: %w", err)
	}

	added := 0
	known := 0

	if t.dryRun {
		slog.Info("Dry run, articles not persisted", "source", t.SourceName, "count", len(articles))
	} else {
		for _, article := range articles {
			inserted, err := t.itemRepo.UpsertItem(database.NewItem{
				SourceName:  article.Source,
				URL:         article.URL,
				Title:       article.Title,
				Description: article.Description,
				Content:     article.Content,
				Author:      article.Author,
				Language:    article.Language,
				PublishedAt: article.PublishedAt,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert item: %w", err)
			}

			if inserted {
				added++
			} else {
				known++
			}
		}

		// The timestamp moves only after the whole pass completed
		// without a fatal error.
		if err := t.sourceRepo.UpdateLastFetched(t.SourceName, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to update last fetched time: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "FetchSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"entries", report.Total,
		"parsed", report.Parsed,
		"rejected", report.Skipped,
		"failed", report.Failed,
		"added", added,
		"known", known)

	return nil
}
