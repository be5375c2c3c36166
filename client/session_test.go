package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/ws"
)

// sessionServer serves the REST calls SignIn and SignOut make plus a real
// ws.Hub behind /ws.
type sessionServer struct {
	*hubServer
	base string

	logouts     atomic.Int32
	profileDown atomic.Bool
	socketDown  atomic.Bool
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": status < 400,
		"message": message,
		"data":    data,
	})
}

func newSessionServer(t *testing.T) *sessionServer {
	t.Helper()

	hub := ws.NewHub(ws.DefaultSendBuffer)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	s := &sessionServer{}
	socket := ws.NewHandler(hub, staticTokens{}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/user/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: ws.TokenCookieName, Value: "tok-alice", Path: "/"})
		writeEnvelope(w, http.StatusOK, "Welcome back alice", map[string]any{
			"token": "tok-alice",
			"user":  map[string]any{"id": "alice", "username": "alice"},
		})
	})
	mux.HandleFunc("POST /api/v1/user/logout", func(w http.ResponseWriter, r *http.Request) {
		s.logouts.Add(1)
		http.SetCookie(w, &http.Cookie{Name: ws.TokenCookieName, Value: "", Path: "/", MaxAge: -1})
		writeEnvelope(w, http.StatusOK, "Logged out successfully.", nil)
	})
	mux.HandleFunc("GET /api/v1/post/all", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "", []models.Post{{ID: "p1", AuthorID: "bob", Likes: []string{"bob"}}})
	})
	mux.HandleFunc("GET /api/v1/user/{id}/profile", func(w http.ResponseWriter, r *http.Request) {
		if s.profileDown.Load() {
			writeEnvelope(w, http.StatusInternalServerError, "internal server error", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "", models.Profile{
			User:      models.User{ID: r.PathValue("id"), Username: r.PathValue("id")},
			Bookmarks: []string{"p1"},
			Following: []string{"bob"},
		})
	})
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		if s.socketDown.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		socket.HandleConnection(w, r)
	})
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
		cancel()
	})

	s.hubServer = &hubServer{
		hub:        hub,
		dispatcher: ws.NewDispatcher(hub, hub),
		url:        "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
	s.base = srv.URL
	return s
}

func TestSessionLifecycle(t *testing.T) {
	srv := newSessionServer(t)
	session, err := NewSession(srv.base)
	require.NoError(t, err)

	_, err = session.Feed()
	require.ErrorIs(t, err, ErrSignedOut)

	ctx := context.Background()
	require.NoError(t, session.SignIn(ctx, "alice@example.com", "secret1"))

	require.NotNil(t, session.User())
	assert.Equal(t, "alice", session.User().ID)
	socket := session.Socket()
	require.NotNil(t, socket)

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice"}, session.Online())
	}, 2*time.Second, 10*time.Millisecond)

	feed, err := session.Feed()
	require.NoError(t, err)
	assert.Equal(t, LikeState{Liked: false, Count: 1}, feed.Like("p1"))
	assert.True(t, feed.Bookmarked("p1"))
	assert.True(t, feed.Following("bob"))

	srv.dispatcher.Dispatch("alice", models.Notification{Type: models.NotificationFollow, ActorID: "bob"})
	require.Eventually(t, func() bool { return session.Notifications.Total() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, session.SignOut(ctx))

	select {
	case <-socket.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("socket still open after sign out")
	}
	assert.Zero(t, session.Notifications.Total())
	assert.Nil(t, session.User())
	assert.Nil(t, session.Socket())
	assert.Empty(t, session.Online())
	assert.Empty(t, session.API().Token())
	assert.Equal(t, int32(1), srv.logouts.Load())

	_, err = session.Feed()
	assert.ErrorIs(t, err, ErrSignedOut)

	require.Eventually(t, func() bool { return srv.hub.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionSignInFailureLogsOut(t *testing.T) {
	tests := []struct {
		name string
		fail func(*sessionServer)
	}{
		{"profile unavailable", func(s *sessionServer) { s.profileDown.Store(true) }},
		{"socket rejected", func(s *sessionServer) { s.socketDown.Store(true) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSessionServer(t)
			tt.fail(srv)

			session, err := NewSession(srv.base)
			require.NoError(t, err)

			require.Error(t, session.SignIn(context.Background(), "alice@example.com", "secret1"))

			assert.Equal(t, int32(1), srv.logouts.Load())
			assert.Empty(t, session.API().Token())
			assert.Nil(t, session.User())
			_, err = session.Feed()
			assert.ErrorIs(t, err, ErrSignedOut)
		})
	}
}
