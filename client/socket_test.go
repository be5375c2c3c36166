package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/ws"
)

type staticTokens struct{}

func (staticTokens) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	user, ok := strings.CutPrefix(token, "tok-")
	if !ok || user == "" {
		return nil, errors.New("invalid token")
	}
	return &models.TokenClaims{UserID: user}, nil
}

type hubServer struct {
	hub        *ws.Hub
	dispatcher *ws.Dispatcher
	url        string
}

func newHubServer(t *testing.T) *hubServer {
	t.Helper()

	hub := ws.NewHub(ws.DefaultSendBuffer)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", ws.NewHandler(hub, staticTokens{}, nil).HandleConnection)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
		cancel()
	})

	return &hubServer{
		hub:        hub,
		dispatcher: ws.NewDispatcher(hub, hub),
		url:        "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

// presenceLog records presence sets as they arrive.
type presenceLog struct {
	mu   sync.Mutex
	sets [][]string
}

func (p *presenceLog) record(ids []string) {
	p.mu.Lock()
	p.sets = append(p.sets, ids)
	p.mu.Unlock()
}

func (p *presenceLog) last() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sets) == 0 {
		return nil
	}
	return p.sets[len(p.sets)-1]
}

func dial(t *testing.T, s *hubServer, user string, h SocketHandlers) *Socket {
	t.Helper()
	sock, err := DialSocket(context.Background(), s.url, "tok-"+user, h)
	require.NoError(t, err)
	t.Cleanup(func() { sock.Close() })
	return sock
}

func TestSocketPresence(t *testing.T) {
	s := newHubServer(t)

	var alice presenceLog
	dial(t, s, "alice", SocketHandlers{OnPresence: alice.record})
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice"}, alice.last())
	}, 2*time.Second, 10*time.Millisecond)

	bob := dial(t, s, "bob", SocketHandlers{})
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice", "bob"}, alice.last())
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bob.Close())
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice"}, alice.last())
	}, 2*time.Second, 10*time.Millisecond)
}

// A likes B's post while both are online: B's store holds exactly one like
// from A. With B offline the like goes nowhere.
func TestLikeReachesOnlineOwner(t *testing.T) {
	s := newHubServer(t)

	store := NewNotificationStore()
	dial(t, s, "bob", SocketHandlers{Notifications: store})
	require.Eventually(t, func() bool {
		_, ok := s.hub.Lookup("bob")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	s.dispatcher.Dispatch("bob", models.Notification{
		Type:     models.NotificationLike,
		ActorID:  "alice",
		Actor:    models.UserSummary{ID: "alice", Username: "alice"},
		TargetID: "post-1",
		Message:  "Your post was liked",
	})

	require.Eventually(t, func() bool { return len(store.Likes()) == 1 }, 2*time.Second, 10*time.Millisecond)
	like := store.Likes()[0]
	assert.Equal(t, "alice", like.ActorID)
	assert.Equal(t, "Your post was liked", like.Message)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, store.Total())

	// Offline recipient: dropped, nothing to observe but the counter.
	before := s.dispatcher.Stats()
	s.dispatcher.Dispatch("carol", models.Notification{Type: models.NotificationLike, ActorID: "alice"})
	assert.Equal(t, before.Dropped+1, s.dispatcher.Stats().Dropped)
}

// logBuffer collects log output written from reader goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLog(t *testing.T) *logBuffer {
	t.Helper()
	buf := &logBuffer{}
	prev := log.Writer()
	log.SetOutput(buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return buf
}

// Frames addressed to other users must not look like losses on alice's socket.
func TestOtherUsersNotificationsLeaveNoGap(t *testing.T) {
	logs := captureLog(t)
	s := newHubServer(t)

	var alice presenceLog
	dial(t, s, "alice", SocketHandlers{OnPresence: alice.record})
	bobStore := NewNotificationStore()
	dial(t, s, "bob", SocketHandlers{Notifications: bobStore})
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice", "bob"}, alice.last())
	}, 2*time.Second, 10*time.Millisecond)

	s.dispatcher.Dispatch("bob", models.Notification{Type: models.NotificationLike, ActorID: "carol"})
	require.Eventually(t, func() bool { return len(bobStore.Likes()) == 1 }, 2*time.Second, 10*time.Millisecond)

	dial(t, s, "dave", SocketHandlers{})
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice", "bob", "dave"}, alice.last())
	}, 2*time.Second, 10*time.Millisecond)

	assert.NotContains(t, logs.String(), "missed")
}

func TestSocketRoutesMessagesAndDislikes(t *testing.T) {
	s := newHubServer(t)

	store := NewNotificationStore()
	messages := make(chan models.Message, 1)
	dial(t, s, "bob", SocketHandlers{
		Notifications: store,
		OnMessage:     func(m models.Message) { messages <- m },
	})
	require.Eventually(t, func() bool {
		_, ok := s.hub.Lookup("bob")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	s.dispatcher.Dispatch("bob", models.Notification{Type: models.NotificationLike, ActorID: "alice"})
	s.dispatcher.Dispatch("bob", models.Notification{Type: models.NotificationDislike, ActorID: "alice"})
	s.dispatcher.Dispatch("bob", models.Notification{Type: models.NotificationFollow, ActorID: "alice"})
	s.dispatcher.DispatchMessage("bob", models.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Message: "hi"})

	select {
	case m := <-messages:
		assert.Equal(t, "hi", m.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	// Frames on one socket arrive in order, so the follow landed after the
	// like/dislike pair.
	require.Eventually(t, func() bool { return len(store.Follows()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, store.Likes())
}

func TestDialSocketRejected(t *testing.T) {
	s := newHubServer(t)

	_, err := DialSocket(context.Background(), s.url, "garbage", SocketHandlers{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSocketCloseIsIdempotent(t *testing.T) {
	s := newHubServer(t)

	closed := make(chan error, 1)
	sock, err := DialSocket(context.Background(), s.url, "tok-alice", SocketHandlers{
		OnClose: func(err error) { closed <- err },
	})
	require.NoError(t, err)

	require.NoError(t, sock.Close())
	require.NoError(t, sock.Close())

	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose not called")
	}
	select {
	case <-sock.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestSocketServerShutdown(t *testing.T) {
	s := newHubServer(t)

	sock := dial(t, s, "alice", SocketHandlers{})
	require.Eventually(t, func() bool { return s.hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.hub.Shutdown()

	select {
	case <-sock.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("socket did not notice the server closing")
	}
}

func TestAPIErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/user/login":
			http.SetCookie(w, &http.Cookie{Name: ws.TokenCookieName, Value: "tok-alice", Path: "/"})
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"message": "Welcome back alice",
				"data":    map[string]any{"token": "tok-alice", "user": map[string]any{"id": "alice", "username": "alice"}},
			})
		case "/api/v1/post/p1/like":
			if c, err := r.Cookie(ws.TokenCookieName); err != nil || c.Value != "tok-alice" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "User not authenticated"})
				return
			}
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "post not found"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	api, err := NewAPI(srv.URL)
	require.NoError(t, err)

	err = api.Like(context.Background(), "p1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	result, err := api.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "tok-alice", api.Token())

	err = api.Like(context.Background(), "p1")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "post not found", apiErr.Message)

	assert.Equal(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", api.SocketURL())
}

func TestNewAPIRejectsBadURL(t *testing.T) {
	_, err := NewAPI("ftp://example.com")
	assert.Error(t, err)
}
