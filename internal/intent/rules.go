package intent

import (
	"strconv"
	"strings"
)

// extractor turns the capture groups of a matched pattern into parameters.
// Returning false rejects the match and lets scanning continue.
type extractor func(groups []string) (map[string]interface{}, bool)

type ruleSpec struct {
	kind     Kind
	patterns []string
	extract  extractor
	// yields makes the rule a default: it wins only when no later rule
	// matches the same utterance.
	yields bool
}

// ruleTable lists intents in priority order. Patterns are written against
// normalized (lower-cased) text and tried in the order given.
func ruleTable() []ruleSpec {
	return []ruleSpec{
		{
			kind:     AddTask,
			patterns: verbPatterns([]string{"add", "create", "make"}, addForms),
			extract:  extractTitle,
		},
		{
			kind: ListTasks,
			patterns: []string{
				`\blist.*?task`,
				`\bshow(?!.*summary)(?!.*statistic).*?task`,
				`\bdisplay.*?task`,
				`\bview.*?task`,
				`\ball\b.*?task`,
				`\bwhat\b.*?task`,
				`\bmy\b.*?task`,
				`\btasks.*?\blist`,
				`\blist.*?\ball\b.*?task`,
			},
			extract: noParams,
			yields:  true,
		},
		{
			kind:     UpdateTask,
			patterns: verbPatterns([]string{"update", "change", "modify"}, updateForms),
			extract:  extractUpdate,
		},
		{
			kind: CompleteTask,
			patterns: []string{
				`\bcomplete.*?task.*?(\d+)`,
				`\bfinish.*?task.*?(\d+)`,
				`(?<!\bnot\s+)\bdone.*?task.*?(\d+)`,
				`\bmark.*?task.*?(\d+).*?\bas\b.*?\bcomplete`,
				`\bmark.*?task.*?(\d+)(?!.*\bnot\b).*?\bdone\b`,
			},
			extract: extractTaskID,
		},
		{
			kind: IncompleteTask,
			patterns: []string{
				`\bmark.*?task.*?(\d+).*?\bas\b.*?\bincomplete`,
				`\bmark.*?task.*?(\d+).*?\bas\b.*?\bnot\b.*?\bdone`,
				`\bincomplete.*?task.*?(\d+)`,
				`\bnot\b.*?\bdone.*?task.*?(\d+)`,
			},
			extract: extractTaskID,
		},
		{
			kind: DeleteTask,
			patterns: []string{
				`\bdelete.*?task.*?(\d+)`,
				`\bremove.*?task.*?(\d+)`,
				`\bcancel.*?task.*?(\d+)`,
			},
			extract: extractTaskID,
		},
		{
			kind: CompleteAll,
			patterns: []string{
				`\bcomplete.*?\ball\b.*?task`,
				`\bfinish.*?\ball\b.*?task`,
				`\bmark.*?\ball\b.*?task.*?\bas\b.*?\bcomplete`,
				`\bmark.*?\ball\b.*?task.*?\bdone\b`,
				`\bdone.*?\bwith\b.*?\ball\b.*?task`,
			},
			extract: noParams,
		},
		{
			kind: DeleteAll,
			patterns: []string{
				`\bdelete.*?\ball\b.*?task`,
				`\bremove.*?\ball\b.*?task`,
				`\bclear.*?\ball\b.*?task`,
				`\bget.*?\brid\b.*?\bof\b.*?\ball\b.*?task`,
			},
			extract: noParams,
		},
		{
			kind: Summary,
			patterns: []string{
				`\bsummary.*?task`,
				`\bshow.*?task.*?summary`,
				`\btask.*?summary`,
				`\bhow\b.*?\bmany\b.*?task`,
				`\bstatistics?.*?task`,
				`\btask.*?statistic`,
				`\bcount.*?task`,
			},
			extract: noParams,
		},
	}
}

// Quoted forms come first so a quoted title wins over free trailing text.
var addForms = []string{
	`\b%s.*?task.*?"([^"]+)"`,
	`\b%s.*?task.*?'([^']+)'`,
	`\b%s.*?\btask\b(?:\s+(?:to|for))?\s+(.+?)(?:\.|!|\?|$)`,
}

var updateForms = []string{
	`\b%s.*?task.*?(\d+).*?\bto\b.*?"([^"]+)"`,
	`\b%s.*?task.*?(\d+).*?\bto\b.*?'([^']+)'`,
	`\b%s.*?task.*?(\d+).*?\bto\b\s*(.+)$`,
}

// verbPatterns expands every form for each verb, keeping verb order outermost.
func verbPatterns(verbs, forms []string) []string {
	out := make([]string, 0, len(verbs)*len(forms))
	for _, verb := range verbs {
		for _, form := range forms {
			out = append(out, strings.ReplaceAll(form, "%s", verb))
		}
	}
	return out
}

func noParams(_ []string) (map[string]interface{}, bool) {
	return map[string]interface{}{}, true
}

// extractTitle takes the last non-empty group as the task title.
func extractTitle(groups []string) (map[string]interface{}, bool) {
	for i := len(groups) - 1; i >= 0; i-- {
		if title := strings.TrimSpace(groups[i]); title != "" {
			return map[string]interface{}{ParamTitle: title}, true
		}
	}
	return nil, false
}

func extractUpdate(groups []string) (map[string]interface{}, bool) {
	if len(groups) < 2 {
		return nil, false
	}
	id, err := strconv.Atoi(groups[0])
	if err != nil {
		return nil, false
	}
	title := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(groups[1]), ".!?"))
	if title == "" {
		return nil, false
	}
	return map[string]interface{}{ParamTaskID: id, ParamNewTitle: title}, true
}

func extractTaskID(groups []string) (map[string]interface{}, bool) {
	if len(groups) == 0 {
		return nil, false
	}
	id, err := strconv.Atoi(groups[0])
	if err != nil {
		return nil, false
	}
	return map[string]interface{}{ParamTaskID: id}, true
}
