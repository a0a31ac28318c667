package intent

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

const defaultMatchTimeout = 250 * time.Millisecond

// MaxUtteranceLength is the longest input, in runes after trimming, that is
// matched against the rule table. Longer input classifies as Unknown without
// running any pattern, which keeps backtracking bounded.
const MaxUtteranceLength = 256

type rule struct {
	kind     Kind
	patterns []*regexp2.Regexp
	extract  extractor
	yields   bool
}

// Classifier maps utterances to commands using an ordered rule table.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules []rule
}

// Option customises a Classifier.
type Option func(*options)

type options struct {
	matchTimeout time.Duration
}

// WithMatchTimeout bounds a single pattern evaluation. A pattern that times
// out is treated as not matching; inputs within MaxUtteranceLength stay well
// under the default.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) { o.matchTimeout = d }
}

// NewClassifier compiles the rule table.
func NewClassifier(opts ...Option) (*Classifier, error) {
	o := options{matchTimeout: defaultMatchTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	table := ruleTable()
	rules := make([]rule, 0, len(table))
	for _, rs := range table {
		compiled := make([]*regexp2.Regexp, 0, len(rs.patterns))
		for _, p := range rs.patterns {
			re, err := regexp2.Compile(p, regexp2.IgnoreCase)
			if err != nil {
				return nil, fmt.Errorf("compile %s pattern %q: %w", rs.kind, p, err)
			}
			re.MatchTimeout = o.matchTimeout
			compiled = append(compiled, re)
		}
		rules = append(rules, rule{kind: rs.kind, patterns: compiled, extract: rs.extract, yields: rs.yields})
	}
	return &Classifier{rules: rules}, nil
}

// MustNewClassifier is NewClassifier for callers that cannot recover from a
// broken rule table.
func MustNewClassifier(opts ...Option) *Classifier {
	c, err := NewClassifier(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the first rule whose pattern matches and whose parameters
// validate. A rejected extraction moves on to the next pattern, and only an
// exhausted table yields Unknown. A yielding rule (ListTasks) is held back
// until every later rule has been tried.
func (c *Classifier) Classify(utterance string) Command {
	original, lowered := normalizeRunes(utterance)
	if len(lowered) > MaxUtteranceLength {
		return unknown(lowered)
	}

	var deferred *Command
	for _, r := range c.rules {
		params, ok := r.match(original, lowered)
		if !ok {
			continue
		}
		cmd := Command{Intent: r.kind, Params: params}
		if r.yields && deferred == nil {
			deferred = &cmd
			continue
		}
		return cmd
	}

	if deferred != nil {
		return *deferred
	}
	return unknown(lowered)
}

func (r rule) match(original, lowered []rune) (map[string]interface{}, bool) {
	for _, re := range r.patterns {
		m, err := re.FindRunesMatch(lowered)
		if err != nil || m == nil {
			continue
		}
		if params, ok := r.extract(captures(m, original)); ok {
			return params, true
		}
	}
	return nil, false
}

func unknown(lowered []rune) Command {
	return Command{
		Intent: Unknown,
		Params: map[string]interface{}{ParamInput: string(lowered)},
	}
}

// captures returns groups 1..n cut from the original runes. Groups that did
// not take part in the match come back empty.
func captures(m *regexp2.Match, original []rune) []string {
	groups := m.Groups()
	if len(groups) <= 1 {
		return nil
	}
	out := make([]string, 0, len(groups)-1)
	for _, g := range groups[1:] {
		if len(g.Captures) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, string(original[g.Index:g.Index+g.Length]))
	}
	return out
}
