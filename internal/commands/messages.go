package commands

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/internal/config"
	"github.com/minjae/udbridge/internal/udb"
	"github.com/minjae/udbridge/pkg/types"
)

// intParam reads an integer parameter. JSON numbers decode as float64, but
// callers hand-building params may pass int or int64 too.
func intParam(params map[string]interface{}, key string, defaultValue int64) int64 {
	switch v := params[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return defaultValue
}

func stringParam(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return s
}

// ReadMessagesCommand reads a message page straight from the UDB
type ReadMessagesCommand struct {
	config *config.Config
	reader *udb.Reader
	logger *logrus.Logger
}

// NewReadMessagesCommand creates a new read messages command
func NewReadMessagesCommand(cfg *config.Config, reader *udb.Reader, logger *logrus.Logger) *ReadMessagesCommand {
	return &ReadMessagesCommand{config: cfg, reader: reader, logger: logger}
}

func (c *ReadMessagesCommand) Name() string {
	return "read_messages"
}

func (c *ReadMessagesCommand) Description() string {
	return "Read a paginated page of received messages directly from the messenger database"
}

func (c *ReadMessagesCommand) InputSchema() map[string]interface{} {
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
			"search_term": map[string]interface{}{
				"type":        "string",
				"description": "Optional: Filter by sender or message text (substring match)",
			},
			"min_id": map[string]interface{}{
				"type":        "integer",
				"description": "Optional: Only messages with id greater than this value",
			},
		},
	}
}

func (c *ReadMessagesCommand) Execute(params map[string]interface{}) (interface{}, error) {
	limit := intParam(params, "limit", 50)
	offset := intParam(params, "offset", 0)
	searchTerm := stringParam(params, "search_term")

	var minID *int64
	if _, ok := params["min_id"]; ok {
		v := intParam(params, "min_id", 0)
		minID = &v
	}

	return c.reader.ReadMessages(c.config.UDBPath, limit, offset, searchTerm, minID)
}

// GetMessageCommand fetches one message by id
type GetMessageCommand struct {
	config *config.Config
	reader *udb.Reader
	logger *logrus.Logger
}

// NewGetMessageCommand creates a new get message command
func NewGetMessageCommand(cfg *config.Config, reader *udb.Reader, logger *logrus.Logger) *GetMessageCommand {
	return &GetMessageCommand{config: cfg, reader: reader, logger: logger}
}

func (c *GetMessageCommand) Name() string {
	return "get_message"
}

func (c *GetMessageCommand) Description() string {
	return "Get a single message by id, with decoded content and attachment paths"
}

func (c *GetMessageCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "integer",
				"description": "Message id (MessageKey)",
			},
		},
		"required": []string{"id"},
	}
}

func (c *GetMessageCommand) Execute(params map[string]interface{}) (interface{}, error) {
	if _, ok := params["id"]; !ok {
		return nil, fmt.Errorf("id parameter is required")
	}
	return c.reader.GetByID(c.config.UDBPath, intParam(params, "id", 0))
}

// SearchMessagesCommand runs a LIKE search against the UDB with an LRU
// result cache in front of it
type SearchMessagesCommand struct {
	config      *config.Config
	reader      *udb.Reader
	searchCache *lru.Cache[string, []types.SearchResult]
	logger      *logrus.Logger
}

// NewSearchMessagesCommand creates a new search messages command
func NewSearchMessagesCommand(cfg *config.Config, reader *udb.Reader, searchCache *lru.Cache[string, []types.SearchResult], logger *logrus.Logger) *SearchMessagesCommand {
	return &SearchMessagesCommand{config: cfg, reader: reader, searchCache: searchCache, logger: logger}
}

func (c *SearchMessagesCommand) Name() string {
	return "search_messages"
}

func (c *SearchMessagesCommand) Description() string {
	return "Search messages in the messenger database by sender or text (substring match, cached)"
}

func (c *SearchMessagesCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"search_term": map[string]interface{}{
				"type":        "string",
				"description": "Term to match against sender and message text",
			},
		},
		"required": []string{"search_term"},
	}
}

func (c *SearchMessagesCommand) Execute(params map[string]interface{}) (interface{}, error) {
	searchTerm := stringParam(params, "search_term")
	if searchTerm == "" {
		return []types.SearchResult{}, nil
	}

	cacheKey := "udb:" + searchTerm
	if cached, ok := c.searchCache.Get(cacheKey); ok {
		c.logger.WithField("term", searchTerm).Debug("Search cache hit")
		return cached, nil
	}

	results, err := c.reader.QuickSearch(c.config.UDBPath, searchTerm, int64(c.config.SearchResultLimit))
	if err != nil {
		return nil, err
	}

	c.searchCache.Add(cacheKey, results)
	return results, nil
}
