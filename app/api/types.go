package api

import (
	"github.com/ivpopov/articlepipe/app/database"
	"github.com/ivpopov/articlepipe/app/source"
	"github.com/ivpopov/articlepipe/app/tasks"
)

type Handler struct {
	sourceRepo  database.SourceRepository
	itemRepo    database.ItemRepository
	configCache *source.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
}
