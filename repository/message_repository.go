package repository

import (
	"context"

	"github.com/akinalp/socialspace/models"
)

// MessageRepository stores direct-message conversations and their messages.
type MessageRepository interface {
	// GetOrCreateConversation returns the conversation of the unordered pair
	// {userA, userB}, creating it on first use.
	GetOrCreateConversation(ctx context.Context, userA, userB string) (string, error)
	// FindConversation returns pkg.ErrNotFound when the pair never talked.
	FindConversation(ctx context.Context, userA, userB string) (string, error)
	Create(ctx context.Context, msg *models.Message) error
	// ListByConversation returns messages oldest first.
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
}
