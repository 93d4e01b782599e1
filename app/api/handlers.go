package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ivpopov/articlepipe/app/database"
	"github.com/ivpopov/articlepipe/app/source"
	"github.com/ivpopov/articlepipe/app/tasks"
)

func NewHandler(configCache *source.ConfigCache, sourceRepo database.SourceRepository,
	itemRepo database.ItemRepository, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		sourceRepo:  sourceRepo,
		itemRepo:    itemRepo,
		configCache: configCache,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"loaded_configurations": h.configCache.GetConfigCount(),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		stats["sources"] = sourceCount
	}
	if activeCount, err := h.sourceRepo.GetActiveSourceCount(); err == nil {
		stats["active_sources"] = activeCount
	}

	if total, cleaned, translated, published, err := h.itemRepo.GetItemStats(); err == nil {
		stats["items"] = map[string]interface{}{
			"total":      total,
			"cleaned":    cleaned,
			"translated": translated,
			"published":  published,
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))

	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":           sourceConfig.Name,
			"url":            sourceConfig.URL,
			"feed_url":       sourceConfig.FeedURL,
			"parser_type":    string(source.NormalizeType(sourceConfig.Type)),
			"active":         sourceConfig.Settings.Active,
			"fetch_interval": (time.Duration(sourceConfig.Settings.FetchInterval) * time.Second).String(),
		}

		if src, err := h.sourceRepo.GetSource(sourceConfig.Name); err == nil && src != nil {
			sourceInfo["last_fetched_at"] = src.LastFetchedAt
			sourceInfo["updated_at"] = src.UpdatedAt
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIListItems(c *gin.Context) {
	filter := database.ItemFilter{
		SourceName: c.Query("source"),
		Language:   c.Query("language"),
		Limit:      50,
	}

	if limitParam := c.Query("limit"); limitParam != "" {
		if limit, err := strconv.ParseUint(limitParam, 10, 64); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetParam := c.Query("offset"); offsetParam != "" {
		if offset, err := strconv.ParseUint(offsetParam, 10, 64); err == nil {
			filter.Offset = offset
		}
	}

	filter.IsCleaned = parseBoolQuery(c, "cleaned")
	filter.IsTranslated = parseBoolQuery(c, "translated")
	filter.IsPublished = parseBoolQuery(c, "published")

	items, err := h.itemRepo.ListItems(filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	results := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		results = append(results, map[string]interface{}{
			"id":            item.ID,
			"source":        item.SourceName,
			"url":           item.URL,
			"title":         item.Title,
			"author":        item.Author,
			"language":      item.Language,
			"published_at":  item.PublishedAt,
			"is_cleaned":    item.IsCleaned,
			"is_translated": item.IsTranslated,
			"is_published":  item.IsPublished,
			"created_at":    item.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"items": results,
		"total": len(results),
	})
}

func parseBoolQuery(c *gin.Context, name string) *bool {
	value := c.Query(name)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}
	return &parsed
}

func (h *Handler) APIRefreshSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	_, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	if err := h.scheduler.EnqueueSourceRefresh(name); err != nil {
		slog.Error("Error enqueueing fetch task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue fetch task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Fetch task enqueued",
		"source":  name,
	})
}
