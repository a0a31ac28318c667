// Package fallback produces free-text replies for utterances that are not task
// commands.
package fallback

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// MinReplyLength is the shortest trimmed reply treated as usable.
const MinReplyLength = 5

var (
	ErrFallbackTimeout = errors.New("FALLBACK_TIMEOUT")
	ErrFallbackFailed  = errors.New("FALLBACK_FAILED")
)

// Responder generates a reply for a free-text utterance.
type Responder interface {
	Generate(ctx context.Context, utterance string) (string, error)
}

// Usable reports whether reply is long enough to show to a user.
func Usable(reply string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(reply)) >= MinReplyLength
}
