package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// DefaultSendBuffer is the per-socket outbound queue size used when the hub
// is built with a non-positive buffer.
const DefaultSendBuffer = 256

// Hub owns the Registry and every live socket, and keeps the presence set
// broadcast to all of them.
//
// Ownership model:
// The registry answers "which connection is this user on right now"; conns
// answers "which sockets are open". They differ while a replaced socket is
// still connected: it stays in conns (and keeps receiving broadcasts) but the
// registry already points at the newer connection.
//
// Concurrency:
// Register and unregister requests are serialized through Run, which makes
// the run loop the registry's single writer. Readers (the dispatcher, called
// from HTTP handlers) go straight to the registry under its RWMutex and never
// wait for the loop. Sends happen under mu.RLock and send queues are closed
// under mu.Lock, so a frame is never queued on a closed channel.
//
// Sequencing:
// Every socket numbers its own frames 1, 2, 3, ... A frame sent to one user
// does not consume a number on anybody else's socket, so a gap seen by a
// client always means a frame of its own stream was lost.
type Hub struct {
	registry *Registry

	// conns: connID → socket. A replaced socket stays here until it
	// disconnects and keeps receiving broadcasts.
	conns map[string]*Client
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}
	stopOnce   sync.Once

	sendBuffer int

	onUserOnline  func(userID string)
	onUserOffline func(userID string)
}

// NewHub creates a hub whose sockets queue at most sendBuffer outbound frames.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		registry:   NewRegistry(),
		conns:      make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		sendBuffer: sendBuffer,
	}
}

// OnUserOnline sets the hook called when a user goes from offline to online.
// Must be set before Run.
func (h *Hub) OnUserOnline(fn func(userID string)) { h.onUserOnline = fn }

// OnUserOffline sets the hook called after an effective unregister.
// Must be set before Run.
func (h *Hub) OnUserOffline(fn func(userID string)) { h.onUserOffline = fn }

// Run is the hub's event loop; it returns when ctx is cancelled.
// main.go starts it with `go hub.Run(ctx)`.
//
// The loop is the only place where sockets join or leave. A presence
// broadcast is computed and queued inside the same iteration that changed the
// registry, so every socket sees the presence sets in the order the changes
// happened and no two broadcasts interleave. Hooks run in their own goroutine:
// a slow database write in OnUserOffline must not stall the next handshake.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.stopped) })

	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			return
		}
	}
}

// Register queues c for registration. It does not block once the run loop
// has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

// Unregister queues c for removal. It does not block once the run loop has
// stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.conns[c.connID] = c
	h.mu.Unlock()

	_, wasOnline := h.registry.Lookup(c.userID)
	if replaced := h.registry.Register(c.userID, c.connID); replaced != "" {
		log.Printf("[ws] user %s reconnected: conn %s replaces %s", c.userID, c.connID, replaced)
	} else {
		log.Printf("[ws] client connected: user=%s conn=%s", c.userID, c.connID)
	}

	h.broadcastPresence()

	if !wasOnline && h.onUserOnline != nil {
		go h.onUserOnline(c.userID)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if current, ok := h.conns[c.connID]; !ok || current != c {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.connID)
	close(c.send)
	h.mu.Unlock()

	userID, removed := h.registry.Unregister(c.connID)
	if !removed {
		log.Printf("[ws] stale connection closed: user=%s conn=%s", c.userID, c.connID)
		return
	}

	log.Printf("[ws] user disconnected: %s", userID)
	h.broadcastPresence()

	if h.onUserOffline != nil {
		go h.onUserOffline(userID)
	}
}

// broadcastPresence sends the full presence set, never a delta.
func (h *Hub) broadcastPresence() {
	h.BroadcastToAll(Event{Op: OpOnlineUsers, Data: h.registry.UserIDs()})
}

// BroadcastToAll queues event on every live socket, replaced ones included.
func (h *Hub) BroadcastToAll(event Event) {
	event, ok := encodePayload(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.conns {
		h.enqueue(c, event)
	}
}

// SendToConn queues event on a single socket. It reports false when the
// socket is gone or its queue is full; it never blocks.
func (h *Hub) SendToConn(connID string, event Event) bool {
	event, ok := encodePayload(event)
	if !ok {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.conns[connID]
	if !ok {
		return false
	}
	return h.enqueue(c, event)
}

// encodePayload marshals the payload once, so a broadcast only re-encodes the
// small envelope per socket.
func encodePayload(event Event) (Event, bool) {
	if event.Data == nil {
		return event, true
	}
	raw, err := json.Marshal(event.Data)
	if err != nil {
		log.Printf("[ws] failed to marshal %s event: %v", event.Op, err)
		return event, false
	}
	event.Data = json.RawMessage(raw)
	return event, true
}

// enqueue stamps the socket's next seq and queues the frame. It must be called
// with mu held for reading.
//
// A frame dropped on a full queue still consumes its number: if the socket
// survives long enough to write later frames, the client sees the gap.
func (h *Hub) enqueue(c *Client, event Event) bool {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()

	c.seq++
	event.Seq = c.seq

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal %s event: %v", event.Op, err)
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		go h.Unregister(c)
		return false
	}
}

// Lookup returns the live connection id of userID.
func (h *Hub) Lookup(userID string) (string, bool) {
	return h.registry.Lookup(userID)
}

// OnlineUserIDs returns the sorted presence set.
func (h *Hub) OnlineUserIDs() []string {
	return h.registry.UserIDs()
}

// ConnectionCount returns the number of open sockets, replaced ones included.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown closes every socket's send queue and empties the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	for _, c := range h.conns {
		close(c.send)
	}
	h.conns = make(map[string]*Client)
	h.mu.Unlock()

	h.registry.Reset()
	log.Println("[ws] hub shut down, all connections closed")
}
