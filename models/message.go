package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message is a direct message between two users. Conversations are created on
// the first message and identified by the unordered participant pair.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageRequest is the send-message payload.
type SendMessageRequest struct {
	TextMessage string `json:"text_message"`
}

// Validate checks a SendMessageRequest: 1-2000 characters after trimming.
func (r *SendMessageRequest) Validate() error {
	r.TextMessage = strings.TrimSpace(r.TextMessage)
	n := utf8.RuneCountInString(r.TextMessage)
	if n < 1 {
		return fmt.Errorf("message is required")
	}
	if n > 2000 {
		return fmt.Errorf("message must be at most 2000 characters")
	}
	return nil
}
