package reason

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockClient is a keyword-routed reasoner for local development and tests.
// It approximates the routing contract without a language model: weather
// wording proposes get_weather, book wording proposes the retriever, both
// propose both, anything else gets a scope refusal.
type MockClient struct{}

// NewMockClient creates a new mock reasoner.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Client = (*MockClient)(nil)

// Propose implements Client.
func (m *MockClient) Propose(ctx context.Context, messages []Message, tools []ToolSpec) (*Proposal, error) {
	// After tool results arrive, synthesize from them.
	var toolOutputs []string
	for _, msg := range messages {
		if msg.Role == "tool" {
			toolOutputs = append(toolOutputs, msg.Content)
		}
	}
	if len(toolOutputs) > 0 || len(tools) == 0 {
		if len(toolOutputs) == 0 {
			return &Proposal{Answer: "[MOCK] I have nothing further to add."}, nil
		}
		return &Proposal{Answer: "### Mock Answer\n\n" + strings.Join(toolOutputs, "\n\n")}, nil
	}

	query := lastUserContent(messages)
	lower := strings.ToLower(query)

	var calls []ToolCall
	if containsAny(lower, "twain", "book", "innocents", "sphinx", "wrote", "visited") {
		args, _ := json.Marshal(map[string]string{"query": query})
		calls = append(calls, ToolCall{ID: fmt.Sprintf("call_%d", len(calls)+1), Name: "search_innocents_abroad", Args: args})
	}
	if containsAny(lower, "weather", "temperature", "forecast") {
		args, _ := json.Marshal(map[string]string{"location": guessLocation(query)})
		calls = append(calls, ToolCall{ID: fmt.Sprintf("call_%d", len(calls)+1), Name: "get_weather", Args: args})
	}

	if len(calls) == 0 {
		return &Proposal{
			Answer: "I specialize in Mark Twain's 'The Innocents Abroad' and current weather for travel destinations, so I can't help with that. Ask me about Twain's travels or the weather somewhere he went!",
		}, nil
	}
	return &Proposal{ToolCalls: calls}, nil
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// guessLocation takes the words after the last " in " as the place name.
func guessLocation(query string) string {
	lower := strings.ToLower(query)
	idx := strings.LastIndex(lower, " in ")
	if idx < 0 {
		return strings.TrimRight(strings.TrimSpace(query), "?.!")
	}
	loc := query[idx+len(" in "):]
	return strings.TrimRight(strings.TrimSpace(loc), "?.!")
}
