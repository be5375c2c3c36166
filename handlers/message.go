package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/pkg/ratelimit"
	"github.com/akinalp/socialspace/services"
)

// MessageHandler serves direct messages.
type MessageHandler struct {
	messageService services.MessageService
	messageLimiter *ratelimit.MessageRateLimiter
}

// NewMessageHandler builds a MessageHandler. A nil messageLimiter disables
// rate limiting.
func NewMessageHandler(messageService services.MessageService, messageLimiter *ratelimit.MessageRateLimiter) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		messageLimiter: messageLimiter,
	}
}

// Send godoc
// POST /api/v1/message/send/{id}
// Body: { "text_message": "..." }
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if h.messageLimiter != nil && !h.messageLimiter.Allow(user.ID) {
		cooldown := h.messageLimiter.CooldownSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", cooldown))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("you are sending messages too fast, please wait %s",
				ratelimit.FormatRetryMessage(cooldown)))
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageService.Send(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, "", msg)
}

// Conversation godoc
// GET /api/v1/message/all/{id}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	messages, err := h.messageService.Conversation(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "", messages)
}
