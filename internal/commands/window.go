package commands

import (
	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/internal/watcher"
)

// NotifyHiddenCommand records that the user dismissed the window, starting
// the auto-show cooldown
type NotifyHiddenCommand struct {
	hideState *watcher.HideState
	logger    *logrus.Logger
}

// NewNotifyHiddenCommand creates a new notify hidden command
func NewNotifyHiddenCommand(hideState *watcher.HideState, logger *logrus.Logger) *NotifyHiddenCommand {
	return &NotifyHiddenCommand{hideState: hideState, logger: logger}
}

func (c *NotifyHiddenCommand) Name() string {
	return "notify_hidden"
}

func (c *NotifyHiddenCommand) Description() string {
	return "Record that the window was hidden, suppressing auto-show briefly"
}

func (c *NotifyHiddenCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (c *NotifyHiddenCommand) Execute(params map[string]interface{}) (interface{}, error) {
	c.hideState.MarkHidden()
	c.logger.Debug("Window hidden; auto-show cooldown started")
	return map[string]interface{}{"acknowledged": true}, nil
}
