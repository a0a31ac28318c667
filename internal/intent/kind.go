// Package intent turns free-form task utterances into structured commands.
package intent

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the closed set of task operations an utterance can map to.
type Kind int

const (
	Unknown Kind = iota
	AddTask
	ListTasks
	UpdateTask
	CompleteTask
	IncompleteTask
	DeleteTask
	CompleteAll
	DeleteAll
	Summary
)

var kindNames = map[Kind]string{
	Unknown:        "unknown",
	AddTask:        "add_task",
	ListTasks:      "list_tasks",
	UpdateTask:     "update_task",
	CompleteTask:   "complete_task",
	IncompleteTask: "incomplete_task",
	DeleteTask:     "delete_task",
	CompleteAll:    "complete_all",
	DeleteAll:      "delete_all",
	Summary:        "summary",
}

// String returns the wire name used in envelopes, metrics and job variables.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("unknown intent kind %q", name)
}

// MarshalText lets Kind appear as its wire name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Parameter keys carried in Command.Params.
const (
	ParamTitle    = "title"
	ParamTaskID   = "taskId"
	ParamNewTitle = "newTitle"
	ParamInput    = "input"
)

// Command is the result of classifying one utterance.
type Command struct {
	Intent Kind                   `json:"intent"`
	Params map[string]interface{} `json:"params"`
}

// TaskID returns the taskId parameter when present. Commands decoded from
// JSON carry numbers as float64 or json.Number.
func (c Command) TaskID() (int, bool) {
	switch v := c.Params[ParamTaskID].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := strconv.Atoi(v.String())
		return n, err == nil
	}
	return 0, false
}

// Text returns the named string parameter or "".
func (c Command) Text(key string) string {
	s, _ := c.Params[key].(string)
	return s
}
