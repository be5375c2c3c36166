package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/akinalp/socialspace/models"
)

// ErrSignedOut is returned by Session methods that need a signed-in user.
var ErrSignedOut = errors.New("not signed in")

// Session is the lifecycle of one signed-in user: SignIn logs in and opens
// the socket, SignOut closes the socket and logs out.
type Session struct {
	api *API

	// Notifications receives every notification pushed over the socket.
	Notifications *NotificationStore

	// OnMessage, OnPresence and OnFailure are optional and must be set
	// before SignIn.
	OnMessage  func(models.Message)
	OnPresence func(userIDs []string)
	OnFailure  func(key string, err error)

	mu     sync.RWMutex
	user   *models.User
	feed   *Feed
	socket *Socket
	online []string
}

// NewSession returns a signed-out session against the server at baseURL.
func NewSession(baseURL string) (*Session, error) {
	api, err := NewAPI(baseURL)
	if err != nil {
		return nil, err
	}
	return &Session{
		api:           api,
		Notifications: NewNotificationStore(),
	}, nil
}

// API returns the REST client of the session.
func (s *Session) API() *API {
	return s.api
}

// SignIn logs in, loads the feed and opens the socket. A session that is
// already signed in is signed out first.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	if s.User() != nil {
		if err := s.SignOut(ctx); err != nil {
			log.Printf("[client] sign out before sign in: %v", err)
		}
	}

	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	user := result.User

	// Past this point the server holds a session for us; any failure logs it
	// out again so client and server agree on being signed out.
	fail := func(err error) error {
		if lerr := s.api.Logout(ctx); lerr != nil {
			log.Printf("[client] logout after failed sign in: %v", lerr)
		}
		return err
	}

	posts, err := s.api.Posts(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load posts: %w", err))
	}
	profile, err := s.api.Profile(ctx, user.ID)
	if err != nil {
		return fail(fmt.Errorf("failed to load profile: %w", err))
	}

	feed := NewFeed(s.api, user.Summary(), s.OnFailure)
	feed.Load(posts, profile.Bookmarks, profile.Following)

	socket, err := DialSocket(ctx, s.api.SocketURL(), result.Token, SocketHandlers{
		OnPresence:    s.setOnline,
		Notifications: s.Notifications,
		OnMessage:     s.OnMessage,
	})
	if err != nil {
		return fail(err)
	}

	s.mu.Lock()
	s.user = &user
	s.feed = feed
	s.socket = socket
	s.mu.Unlock()
	return nil
}

// SignOut closes the socket, logs out and forgets all local state.
//
// The socket is closed before anything is cleared: once Close returns the
// reader has stopped, so no late presence or notification frame can refill
// the state afterwards.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.RLock()
	socket := s.socket
	s.mu.RUnlock()

	if socket != nil {
		_ = socket.Close()
	}

	s.mu.Lock()
	s.user, s.feed, s.socket, s.online = nil, nil, nil, nil
	s.mu.Unlock()

	s.Notifications.Clear()
	return s.api.Logout(ctx)
}

// User returns the signed-in user, nil when signed out.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Feed returns the optimistic view of the signed-in user.
func (s *Session) Feed() (*Feed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.feed == nil {
		return nil, ErrSignedOut
	}
	return s.feed, nil
}

// Socket returns the open socket, nil when signed out.
func (s *Session) Socket() *Socket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.socket
}

// Online returns the last presence set received.
func (s *Session) Online() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.online...)
}

func (s *Session) setOnline(ids []string) {
	s.mu.Lock()
	s.online = ids
	s.mu.Unlock()

	if s.OnPresence != nil {
		s.OnPresence(ids)
	}
}
