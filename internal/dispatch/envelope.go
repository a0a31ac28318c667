package dispatch

// Envelope is the uniform result of a dispatched command. Field names are
// stable across every operation.
type Envelope struct {
	Success   bool                   `json:"success"`
	Operation string                 `json:"operation"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func ok(op, msg string, data map[string]interface{}) Envelope {
	return Envelope{Success: true, Operation: op, Message: msg, Data: data}
}

func fail(op, msg string) Envelope {
	return Envelope{Success: false, Operation: op, Message: msg}
}
