package fallback

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"task-command-router/internal/common/metrics"
)

const sourceSimulated = "simulated"

type replySet struct {
	keywords  []string
	phrases   []string
	templates []string
}

// Templates containing %[1]s receive the original utterance.
var simulatedReplies = []replySet{
	{
		keywords: []string{"hello", "hi", "hey", "greetings"},
		templates: []string{
			"Hello there! I received your message: '%[1]s'. I'm an AI assistant ready to help!",
			"Hi! Thanks for reaching out with: '%[1]s'. How can I assist you today?",
			"Greetings! I see you said '%[1]s'. I'm here to help answer questions and provide assistance.",
		},
	},
	{
		phrases: []string{"how are you", "how do you do"},
		templates: []string{
			"I'm functioning well, thank you for asking! I'm an AI designed to assist with your questions and tasks.",
			"I'm operating optimally! As an AI, I don't experience emotions, but I'm ready to help you.",
			"Thank you for asking! I'm an artificial intelligence assistant, so I don't have feelings, but I'm ready to assist!",
		},
	},
	{
		keywords: []string{"thank", "thanks", "appreciate"},
		templates: []string{
			"You're welcome! Is there anything else I can help you with?",
			"I'm glad I could be of assistance! Let me know if you need anything else.",
			"Happy to help! Feel free to ask if you have more questions.",
		},
	},
	{
		keywords: []string{"what", "how", "when", "where", "who", "why"},
		templates: []string{
			"That's an interesting question about '%[1]s'. As an AI, I process information to provide helpful responses.",
			"I understand you're asking about '%[1]s'. I analyze patterns in data to generate responses.",
			"Regarding '%[1]s', I use advanced algorithms to understand and respond to your queries.",
		},
	},
}

var defaultReplies = []string{
	"I've processed your message: '%[1]s'. As an AI assistant, I aim to provide helpful and informative responses.",
	"I understand you're saying '%[1]s'. I'm designed to assist with various questions and tasks.",
	"Thanks for sharing '%[1]s'. I'm here to provide useful information and support.",
	"I've analyzed '%[1]s' and I'm ready to help. As an AI, I can assist with information and problem-solving.",
	"Your input '%[1]s' has been received. I'm prepared to help with questions, explanations, or suggestions.",
}

// Simulated answers locally from keyword templates. The same utterance always
// gets the same reply.
type Simulated struct{}

func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) Generate(_ context.Context, utterance string) (string, error) {
	templates := pickTemplates(utterance)

	h := fnv.New32a()
	_, _ = h.Write([]byte(utterance))
	tmpl := templates[h.Sum32()%uint32(len(templates))]

	metrics.FallbackRequests.WithLabelValues(sourceSimulated, metrics.OutcomeSuccess).Inc()
	if strings.Contains(tmpl, "%[1]s") {
		return fmt.Sprintf(tmpl, utterance), nil
	}
	return tmpl, nil
}

func pickTemplates(utterance string) []string {
	lower := strings.ToLower(utterance)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r == '\'')
	}) {
		words[w] = true
	}

	for _, set := range simulatedReplies {
		for _, p := range set.phrases {
			if strings.Contains(lower, p) {
				return set.templates
			}
		}
		for _, k := range set.keywords {
			if words[k] {
				return set.templates
			}
		}
	}
	return defaultReplies
}
