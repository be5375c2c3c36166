package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/socialspace/models"
)

// Server → client channels, mirrored from the server's ws package.
const (
	opOnlineUsers = "presence.online_users"
	opMessageNew  = "message.new"

	notificationPrefix = "notification."
)

// SocketHandlers routes incoming events. Nil fields drop the event.
type SocketHandlers struct {
	// OnPresence receives the full set of online user ids.
	OnPresence    func(userIDs []string)
	Notifications *NotificationStore
	OnMessage     func(models.Message)
	// OnClose is called once when the connection ends, with nil after Close.
	OnClose func(err error)
}

type frame struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  int64           `json:"seq"`
}

// Socket is one open connection to the server's /ws endpoint.
type Socket struct {
	conn     *websocket.Conn
	handlers SocketHandlers

	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

// DialSocket opens the socket at rawURL authenticated with token and starts
// routing events to h.
func DialSocket(ctx context.Context, rawURL, token string, h SocketHandlers) (*Socket, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid socket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("socket handshake failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("socket dial failed: %w", err)
	}

	s := &Socket{
		conn:     conn,
		handlers: h,
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Done is closed when the connection has ended.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Close ends the connection and waits for the reader to stop. Safe to call
// more than once.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// readLoop is the only reader. gorilla's default ping handler answers the
// server's keepalives.
func (s *Socket) readLoop() {
	var err error
	defer func() {
		close(s.done)
		if s.handlers.OnClose != nil {
			s.handlers.OnClose(err)
		}
	}()

	var lastSeq int64
	for {
		var data []byte
		_, data, err = s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closing:
				err = nil
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					err = nil
				}
			}
			return
		}

		var f frame
		if jerr := json.Unmarshal(data, &f); jerr != nil {
			log.Printf("[client] malformed frame: %v", jerr)
			continue
		}
		if lastSeq != 0 && f.Seq > lastSeq+1 {
			log.Printf("[client] missed %d event(s) before seq %d", f.Seq-lastSeq-1, f.Seq)
		}
		if f.Seq > lastSeq {
			lastSeq = f.Seq
		}

		if rerr := s.route(f); rerr != nil {
			log.Printf("[client] dropping %s event: %v", f.Op, rerr)
		}
	}
}

func (s *Socket) route(f frame) error {
	switch {
	case f.Op == opOnlineUsers:
		var ids []string
		if err := json.Unmarshal(f.Data, &ids); err != nil {
			return err
		}
		if s.handlers.OnPresence != nil {
			s.handlers.OnPresence(ids)
		}

	case strings.HasPrefix(f.Op, notificationPrefix):
		var n models.Notification
		if err := json.Unmarshal(f.Data, &n); err != nil {
			return err
		}
		if s.handlers.Notifications != nil {
			s.handlers.Notifications.Push(n)
		}

	case f.Op == opMessageNew:
		var m models.Message
		if err := json.Unmarshal(f.Data, &m); err != nil {
			return err
		}
		if s.handlers.OnMessage != nil {
			s.handlers.OnMessage(m)
		}

	default:
		return errors.New("unknown op")
	}
	return nil
}
