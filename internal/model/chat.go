package model

// ToolCall records one tool invocation made while answering a chat turn.
// Appended to the reply payload for observability; never persisted.
type ToolCall struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Result    any            `json:"result"`
}

// ChatRequest is the conversational entry point payload (POST /chat).
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	Reset     bool   `json:"reset,omitempty"`
}

// ChatResponse is the reply produced by the agent orchestrator.
type ChatResponse struct {
	Reply     string     `json:"reply"`
	SessionID string     `json:"sessionId"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Model     string     `json:"model"`
	Provider  string     `json:"provider"`
}

// DispatchRequest is the structured multi-agent entry point payload
// (POST /route). Mode "auto" runs the classifier; any other mode pins
// the target domain.
type DispatchRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// Action is one storage-visible effect of handling a dispatched utterance.
type Action struct {
	Type   string         `json:"type"`
	Detail map[string]any `json:"detail,omitempty"`
}

// DispatchResponse is the structured reply of the dispatcher.
type DispatchResponse struct {
	Agent      Target   `json:"agent"`
	Intent     string   `json:"intent"`
	Message    string   `json:"message"`
	Actions    []Action `json:"actions,omitempty"`
	Confidence float64  `json:"confidence"`
	Model      string   `json:"model"`
	Provider   string   `json:"provider"`
}

// ChatMessage is one turn of persisted conversation history.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
