// Package tasks holds the task model and the stores the dispatcher talks to.
package tasks

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrTaskNotFound    = errors.New("TASK_NOT_FOUND")
	ErrInvalidTitle    = errors.New("INVALID_TASK_TITLE")
	ErrTaskStoreFailed = errors.New("TASK_STORE_FAILED")
)

// Task is a single to-do item.
type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is the task persistence contract. Completing an already completed
// task (or reopening an open one) succeeds. Missing ids return ErrTaskNotFound.
type Store interface {
	AddTask(ctx context.Context, title string) (*Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	GetTask(ctx context.Context, id int) (*Task, error)
	UpdateTask(ctx context.Context, id int, title string) error
	CompleteTask(ctx context.Context, id int) error
	IncompleteTask(ctx context.Context, id int) error
	DeleteTask(ctx context.Context, id int) error
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrInvalidTitle
	}
	return title, nil
}

// Ids are positive; anything else can never name a stored task.
func validID(id int) bool {
	return id > 0
}
