package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/repository"
	"github.com/akinalp/socialspace/ws"
)

// MessageService covers direct messages.
type MessageService interface {
	// Send stores the message (creating the conversation on first use) and
	// pushes it to the receiver if they are online.
	Send(ctx context.Context, senderID, receiverID string, req *models.SendMessageRequest) (*models.Message, error)
	// Conversation returns the messages between two users, oldest first.
	Conversation(ctx context.Context, userID, otherID string) ([]models.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	actors      *ActorCache
	dispatch    ws.Notifier
}

// NewMessageService wires a MessageService.
func NewMessageService(messageRepo repository.MessageRepository, actors *ActorCache, dispatch ws.Notifier) MessageService {
	return &messageService{messageRepo: messageRepo, actors: actors, dispatch: dispatch}
}

func (s *messageService) Send(ctx context.Context, senderID, receiverID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot message yourself", pkg.ErrBadRequest)
	}
	if _, err := s.actors.Summary(ctx, receiverID); err != nil {
		return nil, err
	}

	conversationID, err := s.messageRepo.GetOrCreateConversation(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Message:        req.TextMessage,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.dispatch.DispatchMessage(receiverID, *msg)
	return msg, nil
}

func (s *messageService) Conversation(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	conversationID, err := s.messageRepo.FindConversation(ctx, userID, otherID)
	if errors.Is(err, pkg.ErrNotFound) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.messageRepo.ListByConversation(ctx, conversationID)
}
