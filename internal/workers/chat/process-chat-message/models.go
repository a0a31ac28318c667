package processchatmessage

type Input struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// Output is merged into the process instance variables.
type Output struct {
	RequestID      string                 `json:"chatRequestId"`
	Status         string                 `json:"chatStatus"`
	Reply          string                 `json:"chatReply"`
	Intent         string                 `json:"chatIntent,omitempty"`
	Operation      string                 `json:"chatOperation,omitempty"`
	Data           map[string]interface{} `json:"chatData,omitempty"`
	ConversationID string                 `json:"conversationId,omitempty"`
}
