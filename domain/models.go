// Package domain defines the core domain models for the travel advisor.
package domain

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Conversation groups an ordered sequence of messages under one id.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message is a single turn in a conversation. Messages are immutable once
// created; chronology within a conversation is significant.
type Message struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToolInvocation records one tool call made during an agent run. It is kept
// for the run's trace and logging only, never persisted.
type ToolInvocation struct {
	ToolName string          `json:"tool_name"`
	Args     json.RawMessage `json:"args,omitempty"`
	Output   string          `json:"output,omitempty"`
	Failed   bool            `json:"failed,omitempty"`
}

// AgentResult is the outcome of one agent run: the final answer plus the
// ordered trace of tool calls performed while producing it.
type AgentResult struct {
	Answer      string           `json:"answer"`
	Invocations []ToolInvocation `json:"invocations,omitempty"`
	Rounds      int              `json:"rounds"`
}

// RetrievedPassage is one ranked hit from the book index.
type RetrievedPassage struct {
	Text          string  `json:"text"`
	ChapterNumber string  `json:"chapter_number"`
	ChapterTitle  string  `json:"chapter_title,omitempty"`
	Score         float64 `json:"score"`
}

// WeatherReport holds current conditions for a resolved location. Units
// records the measurement system the numeric fields are in (metric,
// imperial, or standard).
type WeatherReport struct {
	Location   string  `json:"location"`
	Country    string  `json:"country"`
	Units      string  `json:"units"`
	Temp       float64 `json:"temp"`
	FeelsLike  float64 `json:"feels_like"`
	Conditions string  `json:"conditions"`
	Humidity   int     `json:"humidity"`
	WindSpeed  float64 `json:"wind_speed"`
}

// ChatRequest is the inbound payload for POST /chat/message.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is the reply for POST /chat/message.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}
