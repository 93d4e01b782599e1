package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivpopov/articlepipe/app/content"
	"github.com/ivpopov/articlepipe/app/database"
	"github.com/ivpopov/articlepipe/app/llm"
)

// ProcessContentTask advances stored items through the enrichment
// pipeline. For each non-terminal item it consults the state tracker,
// runs exactly one stage, and applies the matching transition. A failed
// stage leaves the item's state untouched so the same stage is retried
// on the next scheduled pass.
type ProcessContentTask struct {
	Task
	itemRepo  database.ItemRepository
	cleaner   *content.Cleaner
	llmClient *llm.Client
	batchSize int
	dryRun    bool
}

func NewProcessContentTask(itemRepo database.ItemRepository, cleaner *content.Cleaner, llmClient *llm.Client, batchSize int, dryRun bool) *ProcessContentTask {
	return &ProcessContentTask{
		Task:      NewTask(TaskTypeProcessContent, ""),
		itemRepo:  itemRepo,
		cleaner:   cleaner,
		llmClient: llmClient,
		batchSize: batchSize,
		dryRun:    dryRun,
	}
}

func (t *ProcessContentTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := t.itemRepo.GetItemsForProcessing(t.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get items for processing: %w", err)
	}

	if len(items) == 0 {
		slog.Debug("No items need processing")
		return nil
	}

	successCount := 0
	errorCount := 0
	skippedCount := 0

	for i := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		item := &items[i]
		stage := content.NextStage(item)

		stageCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
		err := t.runStage(stageCtx, item, stage)
		cancel()

		switch {
		case err == errStageUnavailable:
			skippedCount++
		case err != nil:
			slog.Error("Stage failed", "item_id", item.ID, "url", item.URL, "stage", stage, "error", err)
			errorCount++
		default:
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", "ProcessContent",
		"duration", t.GetDuration(),
		"items", len(items),
		"success", successCount,
		"skipped", skippedCount,
		"errors", errorCount)

	return nil
}

// errStageUnavailable marks stages that cannot run in the current
// configuration (no LLM client); the item stays pending, not failed.
var errStageUnavailable = fmt.Errorf("stage unavailable")

func (t *ProcessContentTask) runStage(ctx context.Context, item *database.Item, stage content.Stage) error {
	switch stage {
	case content.StageClean:
		return t.runClean(ctx, item)
	case content.StageTranslate:
		return t.runTranslate(ctx, item)
	case content.StagePublish:
		return t.runPublish(item)
	case content.StageNone:
		return nil
	default:
		return fmt.Errorf("unexpected stage: %s", stage)
	}
}

func (t *ProcessContentTask) runClean(ctx context.Context, item *database.Item) error {
	cleanContent, err := t.cleaner.Run(item.Content)
	if err != nil {
		return fmt.Errorf("failed to clean content: %w", err)
	}

	// Rewriting rides along with the clean stage; a rewrite failure is
	// not fatal, the cleaned text stands on its own.
	rewritten := ""
	if t.llmClient.Configured() {
		rewritten, err = t.llmClient.Rewrite(ctx, cleanContent)
		if err != nil {
			slog.Warn("Rewrite failed, keeping cleaned text only", "item_id", item.ID, "error", err)
			rewritten = ""
		}
	}

	if t.dryRun {
		slog.Info("Dry run, clean stage not persisted", "item_id", item.ID)
		return nil
	}

	if err := t.itemRepo.MarkCleaned(item.ID, cleanContent, rewritten); err != nil {
		return fmt.Errorf("failed to store clean stage result: %w", err)
	}

	slog.Debug("Item cleaned", "item_id", item.ID, "content_length", len(cleanContent), "rewritten", rewritten != "")
	return nil
}

func (t *ProcessContentTask) runTranslate(ctx context.Context, item *database.Item) error {
	if !t.llmClient.Configured() {
		slog.Debug("Translate stage unavailable without an LLM endpoint", "item_id", item.ID)
		return errStageUnavailable
	}

	text := item.RewrittenContent
	if text == "" {
		text = item.CleanContent
	}
	if text == "" {
		return fmt.Errorf("item has no cleaned text to translate")
	}

	translated, err := t.llmClient.Translate(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to translate content: %w", err)
	}

	if t.dryRun {
		slog.Info("Dry run, translate stage not persisted", "item_id", item.ID)
		return nil
	}

	if err := t.itemRepo.MarkTranslated(item.ID, translated); err != nil {
		return fmt.Errorf("failed to store translate stage result: %w", err)
	}

	slog.Debug("Item translated", "item_id", item.ID, "content_length", len(translated))
	return nil
}

func (t *ProcessContentTask) runPublish(item *database.Item) error {
	if t.dryRun {
		slog.Info("Dry run, publish stage not persisted", "item_id", item.ID)
		return nil
	}

	if err := t.itemRepo.MarkPublished(item.ID); err != nil {
		return fmt.Errorf("failed to mark item published: %w", err)
	}

	slog.Debug("Item published", "item_id", item.ID)
	return nil
}
