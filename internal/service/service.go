// Package service orchestrates chat turns: conversation lifecycle, history
// windowing, agent execution, and persistence of both sides of the exchange.
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tomvane/innocents/domain"
	"github.com/tomvane/innocents/internal/format"
	"github.com/tomvane/innocents/store"
)

// agentErrorResponse is returned and persisted when a run fails outright, so
// the conversation transcript stays coherent for the next turn.
const agentErrorResponse = "I apologize, but I encountered an error while processing your request. Please try again."

// titleMaxLen caps auto-generated conversation titles.
const titleMaxLen = 35

// Runner executes one agent run over a history snapshot.
type Runner interface {
	Run(ctx context.Context, history []domain.Message, query string) (*domain.AgentResult, error)
}

// ChatService handles chat turns against a store and an agent.
type ChatService struct {
	store         store.Store
	agent         Runner
	historyWindow int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewChatService creates a chat service. historyWindow bounds how many recent
// messages are replayed to the agent per turn; <=0 means no bound.
func NewChatService(st store.Store, agent Runner, historyWindow int) *ChatService {
	return &ChatService{
		store:         st,
		agent:         agent,
		historyWindow: historyWindow,
		locks:         make(map[string]*sync.Mutex),
	}
}

// HandleMessage processes one user message: it resolves or creates the
// conversation, runs the agent over the prior history, and persists the user
// message and the assistant reply in order. Turns within one conversation are
// serialized; turns across conversations proceed concurrently.
func (s *ChatService) HandleMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("message is empty")
	}

	conv, err := s.resolveConversation(ctx, req.ConversationID, message)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(conv.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	history, err := s.store.GetMessages(ctx, conv.ConversationID, s.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	userMsg := &domain.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conv.ConversationID,
		Role:           domain.RoleUser,
		Content:        message,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	answer := s.runAgent(ctx, conv.ConversationID, history, message)

	assistantMsg := &domain.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conv.ConversationID,
		Role:           domain.RoleAssistant,
		Content:        answer,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}
	if err := s.store.TouchConversation(ctx, conv.ConversationID); err != nil {
		log.Printf("WARN: failed to touch conversation %s: %v", conv.ConversationID, err)
	}

	return &domain.ChatResponse{
		Response:       answer,
		ConversationID: conv.ConversationID,
	}, nil
}

// runAgent executes the agent and converts a fatal run error into the canned
// apology so the turn still completes and is recorded.
func (s *ChatService) runAgent(ctx context.Context, conversationID string, history []domain.Message, message string) string {
	result, err := s.agent.Run(ctx, history, message)
	if err != nil {
		log.Printf("ERROR: agent run failed for conversation %s: %v", conversationID, err)
		return agentErrorResponse
	}
	log.Printf("agent run for conversation %s: %d rounds, %d tool calls", conversationID, result.Rounds, len(result.Invocations))
	return format.Normalize(result.Answer)
}

// ListConversations returns all conversations, most recently updated first.
func (s *ChatService) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	return s.store.ListConversations(ctx)
}

// GetHistory returns the full message history of a conversation in
// chronological order. Returns domain.ErrConversationNotFound for unknown ids.
func (s *ChatService) GetHistory(ctx context.Context, conversationID string) ([]domain.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}
	return s.store.GetMessages(ctx, conversationID, 0)
}

// DeleteConversation removes a conversation and its messages.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationID string) error {
	err := s.store.DeleteConversation(ctx, conversationID)
	if err == nil {
		s.mu.Lock()
		delete(s.locks, conversationID)
		s.mu.Unlock()
	}
	return err
}

// resolveConversation loads the referenced conversation or creates a new one
// titled from the first message. A stale conversation id is not an error; a
// fresh conversation is started instead, matching the reply's conversation_id.
func (s *ChatService) resolveConversation(ctx context.Context, conversationID, firstMessage string) (*domain.Conversation, error) {
	if conversationID != "" {
		conv, err := s.store.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
		if conv != nil {
			return conv, nil
		}
		log.Printf("WARN: conversation %s not found, starting a new one", conversationID)
	}

	now := time.Now().UTC()
	conv := &domain.Conversation{
		ConversationID: uuid.New().String(),
		Title:          titleFrom(firstMessage),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

func (s *ChatService) lockFor(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[conversationID] = lock
	}
	return lock
}

// titleFrom derives a conversation title from its opening message.
func titleFrom(message string) string {
	runes := []rune(message)
	if len(runes) <= titleMaxLen {
		return message
	}
	return strings.TrimSpace(string(runes[:titleMaxLen])) + "..."
}
