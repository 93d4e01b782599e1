package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ivpopov/articlepipe/app/cfg"
	"github.com/ivpopov/articlepipe/app/content"
	"github.com/ivpopov/articlepipe/app/database"
	"github.com/ivpopov/articlepipe/app/llm"
	"github.com/ivpopov/articlepipe/app/source"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	sourceRepo  database.SourceRepository
	itemRepo    database.ItemRepository
	configCache *source.ConfigCache
	selector    *source.Selector
	cleaner     *content.Cleaner
	llmClient   *llm.Client
	interval    time.Duration
	workerCount int
	batchSize   int
	dryRun      bool
	allSources  bool
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *source.ConfigCache, sourceRepo database.SourceRepository,
	itemRepo database.ItemRepository, selector *source.Selector, cleaner *content.Cleaner,
	llmClient *llm.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		sourceRepo:  sourceRepo,
		itemRepo:    itemRepo,
		configCache: configCache,
		selector:    selector,
		cleaner:     cleaner,
		llmClient:   llmClient,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.ItemBatchSize,
		dryRun:      cfg.DryRun,
		allSources:  cfg.AllSources,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueSourceRefresh queues an immediate fetch pass for one source,
// bypassing the freshness predicate. Used by the API refresh trigger.
func (s *Scheduler) EnqueueSourceRefresh(sourceName string) error {
	sourceConfig, err := s.configCache.GetConfig(sourceName)
	if err != nil {
		return err
	}

	task := NewFetchSourceTask(sourceName, sourceConfig, s.selector, s.sourceRepo, s.itemRepo, s.dryRun)
	return s.EnqueueTask(task)
}

func (s *Scheduler) enqueueStartupTasks() {
	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Syncing source configurations", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		syncTask := NewSyncSourceConfigTask(sourceConfig.Name, sourceConfig, s.sourceRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSourceConfigTask", "source", sourceConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetActiveConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No active source configurations found")
		return
	}

	now := time.Now().UTC()

	for _, sourceConfig := range sourceConfigs {
		src, err := s.sourceRepo.GetSource(sourceConfig.Name)
		if err != nil {
			slog.Warn("Failed to get source from database, skipping", "source", sourceConfig.Name, "error", err)
			continue
		}
		if src == nil {
			slog.Warn("Source not found in database, skipping", "source", sourceConfig.Name)
			continue
		}

		if !SourceDue(src, now, s.allSources) {
			slog.Debug("Source not due for refresh yet", "source", sourceConfig.Name, "last_fetched_at", src.LastFetchedAt)
			continue
		}

		fetchTask := NewFetchSourceTask(sourceConfig.Name, sourceConfig, s.selector, s.sourceRepo, s.itemRepo, s.dryRun)
		if err := s.EnqueueTask(fetchTask); err != nil {
			slog.Warn("Failed to enqueue FetchSourceTask", "source", sourceConfig.Name, "error", err)
		}
	}

	processTask := NewProcessContentTask(s.itemRepo, s.cleaner, s.llmClient, s.batchSize, s.dryRun)
	if err := s.EnqueueTask(processTask); err != nil {
		slog.Warn("Failed to enqueue ProcessContentTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
