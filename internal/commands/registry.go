// Package commands exposes the application's operations as named commands
// with JSON-schema-described inputs, invokable over the RPC surface.
package commands

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/internal/cache"
	"github.com/minjae/udbridge/internal/config"
	"github.com/minjae/udbridge/internal/schedule"
	"github.com/minjae/udbridge/internal/udb"
	"github.com/minjae/udbridge/internal/watcher"
	"github.com/minjae/udbridge/pkg/types"
)

// Registry manages the available commands
type Registry struct {
	config     *config.Config
	logger     *logrus.Logger
	reader     *udb.Reader
	cacheStore *cache.Store
	schedules  *schedule.Store
	hideState  *watcher.HideState

	// Recent search results keyed by query, evicted LRU
	searchCache *lru.Cache[string, []types.SearchResult]

	commands map[string]Command
}

// Command represents one invokable operation
type Command interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Execute(params map[string]interface{}) (interface{}, error)
}

// NewRegistry creates a command registry wired to the given stores
func NewRegistry(cfg *config.Config, reader *udb.Reader, cacheStore *cache.Store, schedules *schedule.Store, hideState *watcher.HideState, logger *logrus.Logger) (*Registry, error) {
	searchCache, err := lru.New[string, []types.SearchResult](cfg.SearchCacheSize)
	if err != nil {
		return nil, err
	}

	reg := &Registry{
		config:      cfg,
		logger:      logger,
		reader:      reader,
		cacheStore:  cacheStore,
		schedules:   schedules,
		hideState:   hideState,
		searchCache: searchCache,
		commands:    make(map[string]Command),
	}

	reg.registerCommands()
	return reg, nil
}

func (r *Registry) registerCommands() {
	list := []Command{
		NewReadMessagesCommand(r.config, r.reader, r.logger),
		NewGetMessageCommand(r.config, r.reader, r.logger),
		NewSearchMessagesCommand(r.config, r.reader, r.searchCache, r.logger),
		NewSearchFTSCommand(r.config, r.cacheStore, r.searchCache, r.logger),
		NewSyncSearchDBCommand(r.config, r.cacheStore, r.logger),
		NewCachedMessagesCommand(r.cacheStore, r.logger),
		NewGetCachedMessageCommand(r.cacheStore, r.logger),
		NewCacheStatsCommand(r.cacheStore, r.logger),
		NewNotifyHiddenCommand(r.hideState, r.logger),
		NewListSchedulesCommand(r.schedules, r.logger),
		NewCreateScheduleCommand(r.schedules, r.logger),
		NewUpdateScheduleCommand(r.schedules, r.logger),
		NewDeleteScheduleCommand(r.schedules, r.logger),
	}

	for _, cmd := range list {
		r.commands[cmd.Name()] = cmd
		r.logger.WithField("command", cmd.Name()).Debug("Registered command")
	}

	r.logger.WithField("count", len(r.commands)).Info("Registered commands")
}

// GetCommand returns a command by name
func (r *Registry) GetCommand(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandDefinitions returns command descriptors for the RPC surface
func (r *Registry) GetCommandDefinitions() []map[string]interface{} {
	definitions := make([]map[string]interface{}, 0, len(r.commands))
	for _, cmd := range r.commands {
		definitions = append(definitions, map[string]interface{}{
			"name":        cmd.Name(),
			"description": cmd.Description(),
			"inputSchema": cmd.InputSchema(),
		})
	}
	return definitions
}
