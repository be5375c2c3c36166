package handlers

import (
	"net/http"

	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/ws"
)

// PresenceSource reports who is connected. Implemented by *ws.Hub.
type PresenceSource interface {
	OnlineUserIDs() []string
	ConnectionCount() int
}

// DispatchCounters exposes fan-out counters. Implemented by *ws.Dispatcher.
type DispatchCounters interface {
	Stats() ws.DispatchStats
}

// OnlineResponse is the payload of GET /api/v1/online.
type OnlineResponse struct {
	OnlineUsers []string         `json:"online_users"`
	Connections int              `json:"connections"`
	Dispatch    ws.DispatchStats `json:"dispatch"`
}

// OnlineHandler serves presence snapshots and liveness.
type OnlineHandler struct {
	presence PresenceSource
	counters DispatchCounters
}

// NewOnlineHandler builds an OnlineHandler.
func NewOnlineHandler(presence PresenceSource, counters DispatchCounters) *OnlineHandler {
	return &OnlineHandler{presence: presence, counters: counters}
}

// Online godoc
// GET /api/v1/online
func (h *OnlineHandler) Online(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, "", OnlineResponse{
		OnlineUsers: h.presence.OnlineUserIDs(),
		Connections: h.presence.ConnectionCount(),
		Dispatch:    h.counters.Stats(),
	})
}

// Health godoc
// GET /api/health
func (h *OnlineHandler) Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, "ok", nil)
}
