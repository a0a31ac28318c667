// Package dispatch runs classified commands against a task store and packages
// the outcome in an Envelope.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-command-router/internal/common/logger"
	"task-command-router/internal/common/metrics"
	"task-command-router/internal/intent"
	"task-command-router/internal/tasks"
	"task-command-router/pkg/registry"

	"github.com/sahilm/fuzzy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxSuggestions = 3

type Dispatcher struct {
	store   tasks.Store
	catalog *registry.Catalog
	logger  logger.Logger
}

func NewDispatcher(store tasks.Store, catalog *registry.Catalog, log logger.Logger) *Dispatcher {
	if catalog == nil {
		catalog = registry.Default()
	}
	return &Dispatcher{
		store:   store,
		catalog: catalog,
		logger:  log.With(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Dispatch never returns an error: store failures are reported in the
// envelope with Success=false.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd intent.Command) Envelope {
	op := cmd.Intent.String()
	ctx, span := otel.Tracer("task-router/dispatch").Start(ctx, "dispatch."+op)
	defer span.End()

	start := time.Now()
	env := d.execute(ctx, cmd)

	metrics.DispatchDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.DispatchTotal.WithLabelValues(op, metrics.Outcome(env.Success)).Inc()

	span.SetAttributes(
		attribute.String("router.operation", op),
		attribute.Bool("router.success", env.Success),
	)
	if !env.Success {
		span.SetStatus(codes.Error, env.Message)
	}
	return env
}

func (d *Dispatcher) execute(ctx context.Context, cmd intent.Command) Envelope {
	op := cmd.Intent.String()

	switch cmd.Intent {
	case intent.AddTask:
		return d.addTask(ctx, op, cmd.Text(intent.ParamTitle))
	case intent.ListTasks:
		return d.listTasks(ctx, op)
	case intent.UpdateTask:
		id, found := cmd.TaskID()
		if !found {
			return fail(op, "Please specify which task to update and its new title.")
		}
		return d.updateTask(ctx, op, id, cmd.Text(intent.ParamNewTitle))
	case intent.CompleteTask:
		id, found := cmd.TaskID()
		if !found {
			return fail(op, "Please specify which task to complete.")
		}
		return d.setCompleted(ctx, op, id, true)
	case intent.IncompleteTask:
		id, found := cmd.TaskID()
		if !found {
			return fail(op, "Please specify which task to mark as incomplete.")
		}
		return d.setCompleted(ctx, op, id, false)
	case intent.DeleteTask:
		id, found := cmd.TaskID()
		if !found {
			return fail(op, "Please specify which task to delete.")
		}
		return d.deleteTask(ctx, op, id)
	case intent.CompleteAll:
		return d.completeAll(ctx, op)
	case intent.DeleteAll:
		return d.deleteAll(ctx, op)
	case intent.Summary:
		return d.summary(ctx, op)
	case intent.Unknown:
		return d.unknown(cmd.Text(intent.ParamInput))
	default:
		return fail(intent.Unknown.String(), fmt.Sprintf("Unsupported operation: %s", op))
	}
}

func (d *Dispatcher) addTask(ctx context.Context, op, title string) Envelope {
	if strings.TrimSpace(title) == "" {
		return fail(op, "Please provide a task title to add.")
	}

	task, err := d.store.AddTask(ctx, title)
	if err != nil {
		d.logFailure(op, 0, err)
		return fail(op, "Failed to add task")
	}
	return ok(op, fmt.Sprintf("Added task: %s", task.Title), map[string]interface{}{
		"task_id":   task.ID,
		"title":     task.Title,
		"completed": task.Completed,
	})
}

func (d *Dispatcher) listTasks(ctx context.Context, op string) Envelope {
	list, err := d.store.ListTasks(ctx)
	if err != nil {
		d.logFailure(op, 0, err)
		return fail(op, "Failed to list tasks")
	}
	if list == nil {
		list = []tasks.Task{}
	}

	msg := "No tasks found"
	if len(list) > 0 {
		msg = fmt.Sprintf("Found %d tasks", len(list))
	}
	return ok(op, msg, map[string]interface{}{"tasks": list})
}

func (d *Dispatcher) updateTask(ctx context.Context, op string, id int, title string) Envelope {
	if strings.TrimSpace(title) == "" {
		return fail(op, "Please provide a new title for the task.")
	}

	if err := d.store.UpdateTask(ctx, id, title); err != nil {
		d.logFailure(op, id, err)
		return fail(op, fmt.Sprintf("Failed to update task %d", id))
	}
	return ok(op, fmt.Sprintf("Updated task %d", id), map[string]interface{}{
		"task_id":   id,
		"new_title": strings.TrimSpace(title),
	})
}

// setCompleted looks the task up first so that repeating a complete or
// reopen succeeds with an "already" message instead of a second write.
func (d *Dispatcher) setCompleted(ctx context.Context, op string, id int, completed bool) Envelope {
	failMsg := fmt.Sprintf("Failed to complete task %d", id)
	if !completed {
		failMsg = fmt.Sprintf("Failed to mark task %d as incomplete", id)
	}

	task, err := d.store.GetTask(ctx, id)
	if err != nil {
		d.logFailure(op, id, err)
		return fail(op, failMsg)
	}

	data := map[string]interface{}{"task_id": id, "title": task.Title, "completed": completed}
	if task.Completed == completed {
		state := "complete"
		if !completed {
			state = "incomplete"
		}
		data["already"] = true
		return ok(op, fmt.Sprintf("Task %d is already %s: %s", id, state, task.Title), data)
	}

	if completed {
		err = d.store.CompleteTask(ctx, id)
	} else {
		err = d.store.IncompleteTask(ctx, id)
	}
	if err != nil {
		d.logFailure(op, id, err)
		return fail(op, failMsg)
	}

	if completed {
		return ok(op, fmt.Sprintf("Completed task %d: %s", id, task.Title), data)
	}
	return ok(op, fmt.Sprintf("Marked task %d as incomplete: %s", id, task.Title), data)
}

func (d *Dispatcher) deleteTask(ctx context.Context, op string, id int) Envelope {
	if err := d.store.DeleteTask(ctx, id); err != nil {
		d.logFailure(op, id, err)
		return fail(op, fmt.Sprintf("Failed to delete task %d", id))
	}
	return ok(op, fmt.Sprintf("Deleted task %d", id), map[string]interface{}{"task_id": id})
}

func (d *Dispatcher) completeAll(ctx context.Context, op string) Envelope {
	list, err := d.store.ListTasks(ctx)
	if err != nil {
		d.logFailure(op, 0, err)
		return fail(op, "Failed to list tasks for completion")
	}

	completed, failed := 0, 0
	for _, t := range list {
		if t.Completed {
			continue
		}
		if err := d.store.CompleteTask(ctx, t.ID); err != nil {
			d.logFailure(op, t.ID, err)
			failed++
			continue
		}
		completed++
	}

	return ok(op, fmt.Sprintf("Completed %d tasks, %d failed", completed, failed), map[string]interface{}{
		"completed_count": completed,
		"failed_count":    failed,
	})
}

func (d *Dispatcher) deleteAll(ctx context.Context, op string) Envelope {
	list, err := d.store.ListTasks(ctx)
	if err != nil {
		d.logFailure(op, 0, err)
		return fail(op, "Failed to list tasks for deletion")
	}

	deleted, failed := 0, 0
	for _, t := range list {
		if err := d.store.DeleteTask(ctx, t.ID); err != nil {
			d.logFailure(op, t.ID, err)
			failed++
			continue
		}
		deleted++
	}

	return ok(op, fmt.Sprintf("Deleted %d tasks, %d failed", deleted, failed), map[string]interface{}{
		"deleted_count": deleted,
		"failed_count":  failed,
	})
}

func (d *Dispatcher) summary(ctx context.Context, op string) Envelope {
	list, err := d.store.ListTasks(ctx)
	if err != nil {
		d.logFailure(op, 0, err)
		return fail(op, "Failed to get task summary")
	}

	done := 0
	for _, t := range list {
		if t.Completed {
			done++
		}
	}
	total := len(list)

	return ok(op, fmt.Sprintf("Task summary: %d total, %d completed, %d incomplete", total, done, total-done),
		map[string]interface{}{
			"total_count":      total,
			"completed_count":  done,
			"incomplete_count": total - done,
		})
}

func (d *Dispatcher) unknown(input string) Envelope {
	env := fail(intent.Unknown.String(), Guidance(d.catalog))
	env.Data = map[string]interface{}{
		"input":       input,
		"suggestions": d.Suggest(input),
	}
	return env
}

// Guidance is the help text returned for utterances that match no command.
func Guidance(cat *registry.Catalog) string {
	var examples []string
	for _, cmd := range cat.Commands {
		if len(cmd.Examples) > 0 {
			examples = append(examples, "'"+cmd.Examples[0]+"'")
		}
		if len(examples) == 3 {
			break
		}
	}
	if len(examples) == 0 {
		return "I didn't understand that command."
	}
	return fmt.Sprintf("I didn't understand that command. Please try again with something like %s, etc.",
		strings.Join(examples, ", "))
}

// Suggest ranks catalogue examples by fuzzy similarity to input. Words of the
// input are matched independently so "lst taks" still finds "list tasks".
func (d *Dispatcher) Suggest(input string) []string {
	examples := d.catalog.Examples()
	out := []string{}
	if strings.TrimSpace(input) == "" || len(examples) == 0 {
		return out
	}

	scores := make(map[int]int)
	for _, word := range strings.Fields(strings.ToLower(input)) {
		for _, m := range fuzzy.Find(word, examples) {
			scores[m.Index] += m.Score + 1
		}
	}

	for len(out) < maxSuggestions && len(scores) > 0 {
		best, bestScore := -1, 0
		for idx, score := range scores {
			if best == -1 || score > bestScore || (score == bestScore && idx < best) {
				best, bestScore = idx, score
			}
		}
		out = append(out, examples[best])
		delete(scores, best)
	}
	return out
}

func (d *Dispatcher) logFailure(op string, id int, err error) {
	fields := map[string]interface{}{"operation": op, "error": err.Error()}
	if id > 0 {
		fields["task_id"] = id
	}
	if errors.Is(err, tasks.ErrTaskNotFound) {
		d.logger.Warn("task not found", fields)
		return
	}
	d.logger.Error("task store operation failed", fields)
}
