// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadCatalog reads a catalogue from a JSON file. An empty path returns the
// built-in catalogue.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(cat.Commands) == 0 {
		return nil, fmt.Errorf("catalog %s has no commands", path)
	}
	return &cat, nil
}

func Default() *Catalog {
	return &Catalog{
		Version:     "1.0.0",
		LastUpdated: "2024-05-01",
		Commands: []Command{
			{
				Intent:      "add_task",
				DisplayName: "Add task",
				Description: "Create a new task with a title.",
				Params:      []string{"title"},
				Examples:    []string{`add task "Buy milk"`, "create a task to call mom"},
				Tags:        []string{"write"},
			},
			{
				Intent:      "list_tasks",
				DisplayName: "List tasks",
				Description: "Show every task with its id and status.",
				Examples:    []string{"list tasks", "show my tasks"},
				Tags:        []string{"read"},
			},
			{
				Intent:      "update_task",
				DisplayName: "Update task",
				Description: "Rename an existing task.",
				Params:      []string{"taskId", "newTitle"},
				Examples:    []string{`update task 3 to "Buy oat milk"`},
				Tags:        []string{"write"},
			},
			{
				Intent:      "complete_task",
				DisplayName: "Complete task",
				Description: "Mark a task as done.",
				Params:      []string{"taskId"},
				Examples:    []string{"complete task 1", "mark task 2 as done"},
				Tags:        []string{"write"},
			},
			{
				Intent:      "incomplete_task",
				DisplayName: "Reopen task",
				Description: "Mark a finished task as not done.",
				Params:      []string{"taskId"},
				Examples:    []string{"mark task 2 as incomplete"},
				Tags:        []string{"write"},
			},
			{
				Intent:      "delete_task",
				DisplayName: "Delete task",
				Description: "Remove a task permanently.",
				Params:      []string{"taskId"},
				Examples:    []string{"delete task 4", "remove task 5"},
				Tags:        []string{"write"},
			},
			{
				Intent:      "complete_all",
				DisplayName: "Complete all tasks",
				Description: "Mark every open task as done.",
				Examples:    []string{"complete all tasks"},
				Tags:        []string{"write", "bulk"},
			},
			{
				Intent:      "delete_all",
				DisplayName: "Delete all tasks",
				Description: "Remove every task.",
				Examples:    []string{"delete all tasks"},
				Tags:        []string{"write", "bulk"},
			},
			{
				Intent:      "summary",
				DisplayName: "Task summary",
				Description: "Count total, completed and open tasks.",
				Examples:    []string{"task summary", "how many tasks do I have"},
				Tags:        []string{"read"},
			},
		},
	}
}
