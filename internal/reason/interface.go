// Package reason provides the reasoning capability behind the routing
// agent: given a conversation and the available tool descriptors, propose
// zero or more tool calls, or a final answer.
package reason

import (
	"context"
	"encoding/json"
)

// Message is one entry in the transcript handed to the reasoner.
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant proposals, echoed back
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on role=tool results
}

// ToolCall is a structured request to invoke a tool with arguments.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolSpec describes one tool the reasoner may propose.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Proposal is the reasoner's output for one round: either tool calls to
// execute, or (when ToolCalls is empty) the final answer text.
type Proposal struct {
	ToolCalls []ToolCall
	Answer    string
}

// Client defines the interface for the reasoning capability.
type Client interface {
	// Propose runs one reasoning round. Passing an empty tools slice
	// withholds tools and forces a textual answer.
	Propose(ctx context.Context, messages []Message, tools []ToolSpec) (*Proposal, error)
}

// Ensure OpenAIClient implements Client.
var _ Client = (*OpenAIClient)(nil)
