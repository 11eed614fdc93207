package commands

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/internal/schedule"
	"github.com/minjae/udbridge/pkg/types"
)

// itemParam decodes the "item" parameter into a ScheduleItem by
// round-tripping through JSON, so the wire field names apply.
func itemParam(params map[string]interface{}) (types.ScheduleItem, error) {
	raw, ok := params["item"]
	if !ok {
		return types.ScheduleItem{}, fmt.Errorf("item parameter is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return types.ScheduleItem{}, fmt.Errorf("invalid item: %w", err)
	}
	var item types.ScheduleItem
	if err := json.Unmarshal(data, &item); err != nil {
		return types.ScheduleItem{}, fmt.Errorf("invalid item: %w", err)
	}
	return item, nil
}

// ListSchedulesCommand lists schedule entries overlapping a date window
type ListSchedulesCommand struct {
	schedules *schedule.Store
	logger    *logrus.Logger
}

// NewListSchedulesCommand creates a new list schedules command
func NewListSchedulesCommand(schedules *schedule.Store, logger *logrus.Logger) *ListSchedulesCommand {
	return &ListSchedulesCommand{schedules: schedules, logger: logger}
}

func (c *ListSchedulesCommand) Name() string {
	return "schedule_list"
}

func (c *ListSchedulesCommand) Description() string {
	return "List schedule entries overlapping the given date range"
}

func (c *ListSchedulesCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"start": map[string]interface{}{
				"type":        "string",
				"description": "Range start (ISO 8601)",
			},
			"end": map[string]interface{}{
				"type":        "string",
				"description": "Range end (ISO 8601)",
			},
		},
		"required": []string{"start", "end"},
	}
}

func (c *ListSchedulesCommand) Execute(params map[string]interface{}) (interface{}, error) {
	start := stringParam(params, "start")
	end := stringParam(params, "end")
	if start == "" || end == "" {
		return nil, fmt.Errorf("start and end parameters are required")
	}
	return c.schedules.List(start, end)
}

// CreateScheduleCommand creates a schedule entry
type CreateScheduleCommand struct {
	schedules *schedule.Store
	logger    *logrus.Logger
}

// NewCreateScheduleCommand creates a new create schedule command
func NewCreateScheduleCommand(schedules *schedule.Store, logger *logrus.Logger) *CreateScheduleCommand {
	return &CreateScheduleCommand{schedules: schedules, logger: logger}
}

func (c *CreateScheduleCommand) Name() string {
	return "schedule_create"
}

func (c *CreateScheduleCommand) Description() string {
	return "Create a new schedule entry"
}

func (c *CreateScheduleCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"item": map[string]interface{}{
				"type":        "object",
				"description": "Schedule entry to create",
			},
		},
		"required": []string{"item"},
	}
}

func (c *CreateScheduleCommand) Execute(params map[string]interface{}) (interface{}, error) {
	item, err := itemParam(params)
	if err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, fmt.Errorf("item id is required")
	}
	return c.schedules.Create(item)
}

// UpdateScheduleCommand updates an existing schedule entry
type UpdateScheduleCommand struct {
	schedules *schedule.Store
	logger    *logrus.Logger
}

// NewUpdateScheduleCommand creates a new update schedule command
func NewUpdateScheduleCommand(schedules *schedule.Store, logger *logrus.Logger) *UpdateScheduleCommand {
	return &UpdateScheduleCommand{schedules: schedules, logger: logger}
}

func (c *UpdateScheduleCommand) Name() string {
	return "schedule_update"
}

func (c *UpdateScheduleCommand) Description() string {
	return "Update an existing schedule entry"
}

func (c *UpdateScheduleCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Id of the entry to update",
			},
			"item": map[string]interface{}{
				"type":        "object",
				"description": "Replacement field values",
			},
		},
		"required": []string{"id", "item"},
	}
}

func (c *UpdateScheduleCommand) Execute(params map[string]interface{}) (interface{}, error) {
	id := stringParam(params, "id")
	if id == "" {
		return nil, fmt.Errorf("id parameter is required")
	}
	item, err := itemParam(params)
	if err != nil {
		return nil, err
	}
	return c.schedules.Update(id, item)
}

// DeleteScheduleCommand soft-deletes a schedule entry
type DeleteScheduleCommand struct {
	schedules *schedule.Store
	logger    *logrus.Logger
}

// NewDeleteScheduleCommand creates a new delete schedule command
func NewDeleteScheduleCommand(schedules *schedule.Store, logger *logrus.Logger) *DeleteScheduleCommand {
	return &DeleteScheduleCommand{schedules: schedules, logger: logger}
}

func (c *DeleteScheduleCommand) Name() string {
	return "schedule_delete"
}

func (c *DeleteScheduleCommand) Description() string {
	return "Delete a schedule entry (soft delete)"
}

func (c *DeleteScheduleCommand) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Id of the entry to delete",
			},
		},
		"required": []string{"id"},
	}
}

func (c *DeleteScheduleCommand) Execute(params map[string]interface{}) (interface{}, error) {
	id := stringParam(params, "id")
	if id == "" {
		return nil, fmt.Errorf("id parameter is required")
	}
	if err := c.schedules.Delete(id); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": id}, nil
}
