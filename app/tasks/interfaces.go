package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. Used by the main application and the API layer to manage
// queued source and content processing.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueSourceRefresh(sourceName string) error
}
