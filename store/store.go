// Package store defines the storage interface and implementations.
package store

import (
	"context"

	"github.com/tomvane/innocents/domain"
)

// Store defines the interface for conversation persistence.
type Store interface {
	// Conversation operations
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	TouchConversation(ctx context.Context, conversationID string) error
	DeleteConversation(ctx context.Context, conversationID string) error

	// Message operations
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)

	// Lifecycle
	Close() error
}
