package chat

type Status string

const (
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
	StatusFallback Status = "fallback"
)

// Turn sources recorded in the journal.
const (
	SourceRouter   = "router"
	SourceFallback = "fallback"
	SourceGuidance = "guidance"
	SourceRejected = "rejected"
)

type Request struct {
	Message string `json:"message"`
}

type Response struct {
	RequestID string                 `json:"request_id"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message"`
	Intent    string                 `json:"intent,omitempty"`
	Operation string                 `json:"operation,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

const (
	msgEmpty         = "Message cannot be empty"
	msgTechnical     = "I'm experiencing technical difficulties right now. Please try again shortly."
	msgNeedDetails   = "I received your message '%s', but I need more details to provide a helpful response. Could you elaborate on what you'd like help with?"
	msgUnderstood    = "I understand you asked: '%s'. I'm an AI assistant ready to help with your questions about tasks, skills, or general topics."
	problematicReply = "I'm having trouble generating a response right now"
)
