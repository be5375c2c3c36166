// Package client is the Go client of the socialspace server: a REST API
// client, the socket handle, and the local state a UI renders from.
//
// Nothing here is a package-level singleton. A Session owns one API client,
// at most one open Socket, a NotificationStore and a Feed, and its lifetime
// runs from SignIn to SignOut.
package client

import (
	"sync"

	"github.com/akinalp/socialspace/models"
)

// NotificationStore accumulates the notifications pushed over the socket in
// three buckets: likes, follows and comments.
//
// A dislike removes the earliest like of the same actor and an unfollow the
// earliest follow. Repeated likes from one actor are kept as separate
// entries, so a single dislike only takes one of them out.
//
// Safe for concurrent use.
type NotificationStore struct {
	mu       sync.Mutex
	likes    []models.Notification
	follows  []models.Notification
	comments []models.Notification

	listenersMu sync.Mutex
	listeners   map[int]func()
	nextID      int
}

// NewNotificationStore returns an empty store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{listeners: make(map[int]func())}
}

// Push applies n to its bucket. Unknown types are ignored.
func (s *NotificationStore) Push(n models.Notification) {
	s.mu.Lock()
	changed := true
	switch n.Type {
	case models.NotificationLike:
		s.likes = append(s.likes, n)
	case models.NotificationDislike:
		s.likes, changed = removeEarliest(s.likes, n.ActorID)
	case models.NotificationFollow:
		s.follows = append(s.follows, n)
	case models.NotificationUnfollow:
		s.follows, changed = removeEarliest(s.follows, n.ActorID)
	case models.NotificationComment:
		s.comments = append(s.comments, n)
	default:
		changed = false
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func removeEarliest(bucket []models.Notification, actorID string) ([]models.Notification, bool) {
	for i, n := range bucket {
		if n.ActorID == actorID {
			return append(bucket[:i:i], bucket[i+1:]...), true
		}
	}
	return bucket, false
}

// Likes returns the like bucket in arrival order.
func (s *NotificationStore) Likes() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.likes)
}

// Follows returns the follow bucket in arrival order.
func (s *NotificationStore) Follows() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.follows)
}

// Comments returns the comment bucket in arrival order.
func (s *NotificationStore) Comments() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.comments)
}

// Total is the number of entries across all buckets.
func (s *NotificationStore) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.likes) + len(s.follows) + len(s.comments)
}

// Clear empties every bucket at once.
func (s *NotificationStore) Clear() {
	s.mu.Lock()
	s.likes, s.follows, s.comments = nil, nil, nil
	s.mu.Unlock()
	s.notify()
}

func (s *NotificationStore) ClearLikes() {
	s.mu.Lock()
	s.likes = nil
	s.mu.Unlock()
	s.notify()
}

func (s *NotificationStore) ClearFollows() {
	s.mu.Lock()
	s.follows = nil
	s.mu.Unlock()
	s.notify()
}

func (s *NotificationStore) ClearComments() {
	s.mu.Lock()
	s.comments = nil
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to run after every change. fn runs on the goroutine
// that made the change, outside the store's lock. The returned func removes
// the listener.
func (s *NotificationStore) Subscribe(fn func()) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *NotificationStore) notify() {
	s.listenersMu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func clone(in []models.Notification) []models.Notification {
	out := make([]models.Notification, len(in))
	copy(out, in)
	return out
}
