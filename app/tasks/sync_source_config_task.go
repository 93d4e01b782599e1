package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivpopov/articlepipe/app/database"
	"github.com/ivpopov/articlepipe/app/source"
)

// SyncSourceConfigTask registers a source configuration in the store.
type SyncSourceConfigTask struct {
	Task
	SourceConfig *source.Config
	sourceRepo   database.SourceRepository
}

func NewSyncSourceConfigTask(sourceName string, sourceConfig *source.Config, sourceRepo database.SourceRepository) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:         NewTask(TaskTypeSyncSourceConfig, sourceName),
		SourceConfig: sourceConfig,
		sourceRepo:   sourceRepo,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.sourceRepo.UpsertSource(
		t.SourceConfig.Name,
		t.SourceConfig.URL,
		t.SourceConfig.FeedURL,
		string(source.NormalizeType(t.SourceConfig.Type)),
		t.SourceConfig.Settings.Active,
		time.Duration(t.SourceConfig.Settings.FetchInterval)*time.Second)
	if err != nil {
		slog.Error("Task failed", "type", "SyncSourceConfig", "source", t.SourceName, "error", err)
		return fmt.Errorf("failed to sync source config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSourceConfig",
		"source", t.SourceName,
		"duration", t.GetDuration())

	return nil
}
