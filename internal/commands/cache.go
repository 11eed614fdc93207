package commands

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/internal/cache"
	"github.com/minjae/udbridge/internal/config"
	"github.com/minjae/udbridge/pkg/types"
)

// SearchFTSCommand searches the local full-text index
type SearchFTSCommand struct {
	config      *config.Config
	cacheStore  *cache.Store
	searchCache *lru.Cache[string, []types.SearchResult]
	logger      *logrus.Logger
}

// NewSearchFTSCommand creates a new FTS search command
func NewSearchFTSCommand(cfg *config.Config, cacheStore *cache.Store, searchCache *lru.Cache[string, []types.SearchResult], logger *logrus.Logger) *SearchFTSCommand {
	return &SearchFTSCommand{config: cfg, cacheStore: cacheStore, searchCache: searchCache, logger: logger}
}

func (c *SearchFTSCommand) Name() string {
	return "search_fts"
}

func (c *SearchFTSCommand) Description() string {
	return "Full-text search over the local search index (prefix match first, exact fallback)"
}

func (c *SearchFTSCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Optional: Result limit (default from configuration)",
			},
		},
		"required": []string{"query"},
	}
}

func (c *SearchFTSCommand) Execute(params map[string]interface{}) (interface{}, error) {
	query := stringParam(params, "query")
	if query == "" {
		return []types.SearchResult{}, nil
	}
	limit := intParam(params, "limit", int64(c.config.SearchResultLimit))

	cacheKey := fmt.Sprintf("fts:%d:%s", limit, query)
	if cached, ok := c.searchCache.Get(cacheKey); ok {
		c.logger.WithField("query", query).Debug("Search cache hit")
		return cached, nil
	}

	results, err := c.cacheStore.Search(query, limit)
	if err != nil {
		return nil, err
	}

	c.searchCache.Add(cacheKey, results)
	return results, nil
}

// SyncSearchDBCommand pulls new messages from the UDB into the search
// index. With force unset it is a no-op while the index is fresh.
type SyncSearchDBCommand struct {
	config     *config.Config
	cacheStore *cache.Store
	logger     *logrus.Logger
}

// NewSyncSearchDBCommand creates a new sync command
func NewSyncSearchDBCommand(cfg *config.Config, cacheStore *cache.Store, logger *logrus.Logger) *SyncSearchDBCommand {
	return &SyncSearchDBCommand{config: cfg, cacheStore: cacheStore, logger: logger}
}

func (c *SyncSearchDBCommand) Name() string {
	return "sync_search_db"
}

func (c *SyncSearchDBCommand) Description() string {
	return "Synchronize the search index with the messenger database (incremental)"
}

func (c *SyncSearchDBCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"force": map[string]interface{}{
				"type":        "boolean",
				"description": "Optional: Sync even if the index is fresh",
			},
		},
	}
}

func (c *SyncSearchDBCommand) Execute(params map[string]interface{}) (interface{}, error) {
	force, _ := params["force"].(bool)
	if !force {
		stale, err := c.cacheStore.ShouldSync()
		if err != nil {
			return nil, err
		}
		if !stale {
			return &types.SyncStats{}, nil
		}
	}
	return c.cacheStore.Sync(c.config.UDBPath)
}

// CachedMessagesCommand reads a message page from the search cache, usable
// while the messenger database is locked or absent
type CachedMessagesCommand struct {
	cacheStore *cache.Store
	logger     *logrus.Logger
}

// NewCachedMessagesCommand creates a new cached messages command
func NewCachedMessagesCommand(cacheStore *cache.Store, logger *logrus.Logger) *CachedMessagesCommand {
	return &CachedMessagesCommand{cacheStore: cacheStore, logger: logger}
}

func (c *CachedMessagesCommand) Name() string {
	return "cached_messages"
}

func (c *CachedMessagesCommand) Description() string {
	return "Read a paginated page of messages from the local search cache"
}

func (c *CachedMessagesCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Optional: Page size (default: 50)",
			},
			"offset": map[string]interface{}{
				"type":        "integer",
				"description": "Optional: Rows to skip (default: 0)",
			},
		},
	}
}

func (c *CachedMessagesCommand) Execute(params map[string]interface{}) (interface{}, error) {
	limit := intParam(params, "limit", 50)
	offset := intParam(params, "offset", 0)
	return c.cacheStore.ReadPaginated(limit, offset)
}

// GetCachedMessageCommand fetches one message from the search cache
type GetCachedMessageCommand struct {
	cacheStore *cache.Store
	logger     *logrus.Logger
}

// NewGetCachedMessageCommand creates a new get cached message command
func NewGetCachedMessageCommand(cacheStore *cache.Store, logger *logrus.Logger) *GetCachedMessageCommand {
	return &GetCachedMessageCommand{cacheStore: cacheStore, logger: logger}
}

func (c *GetCachedMessageCommand) Name() string {
	return "get_cached_message"
}

func (c *GetCachedMessageCommand) Description() string {
	return "Get a single message from the local search cache by id"
}

func (c *GetCachedMessageCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "integer",
				"description": "Message id",
			},
		},
		"required": []string{"id"},
	}
}

func (c *GetCachedMessageCommand) Execute(params map[string]interface{}) (interface{}, error) {
	if _, ok := params["id"]; !ok {
		return nil, fmt.Errorf("id parameter is required")
	}
	id := intParam(params, "id", 0)

	msg, err := c.cacheStore.GetByID(id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("message not cached: %d", id)
	}
	return msg, nil
}

// CacheStatsCommand reports search cache health
type CacheStatsCommand struct {
	cacheStore *cache.Store
	logger     *logrus.Logger
}

// NewCacheStatsCommand creates a new cache stats command
func NewCacheStatsCommand(cacheStore *cache.Store, logger *logrus.Logger) *CacheStatsCommand {
	return &CacheStatsCommand{cacheStore: cacheStore, logger: logger}
}

func (c *CacheStatsCommand) Name() string {
	return "cache_stats"
}

func (c *CacheStatsCommand) Description() string {
	return "Report search cache statistics (message count, last sync, size)"
}

func (c *CacheStatsCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (c *CacheStatsCommand) Execute(params map[string]interface{}) (interface{}, error) {
	return c.cacheStore.Stats()
}
