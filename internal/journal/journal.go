// Package journal records every chat turn for later inspection.
package journal

import (
	"context"
	"errors"
	"time"
)

var ErrJournalWriteFailed = errors.New("JOURNAL_WRITE_FAILED")

// Entry is one processed chat turn.
type Entry struct {
	RequestID  string    `json:"request_id"`
	Utterance  string    `json:"utterance"`
	Intent     string    `json:"intent"`
	Operation  string    `json:"operation,omitempty"`
	Success    bool      `json:"success"`
	Status     string    `json:"status"`
	Source     string    `json:"source"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"@timestamp"`
}

type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Recent(context.Context, int) ([]Entry, error) { return []Entry{}, nil }
