package ws

import (
	"log"
	"sync/atomic"

	"github.com/akinalp/socialspace/models"
)

// ConnectionLookup resolves a user to their live connection.
type ConnectionLookup interface {
	Lookup(userID string) (connID string, ok bool)
}

// ConnSender queues an event on one connection without blocking.
type ConnSender interface {
	SendToConn(connID string, event Event) bool
}

// Notifier is what services use to push events. Delivery is best-effort:
// callers must not depend on it for correctness or ordering.
type Notifier interface {
	Dispatch(recipientID string, n models.Notification)
	DispatchMessage(recipientID string, m models.Message)
}

// DispatchStats counts dispatch outcomes since start.
type DispatchStats struct {
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
}

// Dispatcher routes notifications to the recipient's live connection.
// A recipient who is offline, is the actor, or has a full queue gets nothing.
type Dispatcher struct {
	lookup ConnectionLookup
	sender ConnSender

	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewDispatcher returns a dispatcher. The Hub satisfies both arguments.
func NewDispatcher(lookup ConnectionLookup, sender ConnSender) *Dispatcher {
	return &Dispatcher{lookup: lookup, sender: sender}
}

// ChannelFor maps a notification type to its socket channel.
func ChannelFor(t models.NotificationType) (string, bool) {
	switch t {
	case models.NotificationLike, models.NotificationDislike:
		return OpNotificationLike, true
	case models.NotificationFollow, models.NotificationUnfollow:
		return OpNotificationFollow, true
	case models.NotificationComment:
		return OpNotificationComment, true
	default:
		return "", false
	}
}

// Dispatch sends n to recipientID if they are online.
func (d *Dispatcher) Dispatch(recipientID string, n models.Notification) {
	defer d.recoverDispatch(recipientID, string(n.Type))

	if recipientID == "" || recipientID == n.ActorID {
		d.dropped.Add(1)
		return
	}

	op, ok := ChannelFor(n.Type)
	if !ok {
		log.Printf("[dispatch] unknown notification type %q for user %s", n.Type, recipientID)
		d.dropped.Add(1)
		return
	}

	d.deliver(recipientID, Event{Op: op, Data: n})
}

// DispatchMessage sends m on the message channel to recipientID if they are
// online.
func (d *Dispatcher) DispatchMessage(recipientID string, m models.Message) {
	defer d.recoverDispatch(recipientID, OpMessageNew)

	if recipientID == "" || recipientID == m.SenderID {
		d.dropped.Add(1)
		return
	}

	d.deliver(recipientID, Event{Op: OpMessageNew, Data: m})
}

func (d *Dispatcher) deliver(recipientID string, event Event) {
	connID, ok := d.lookup.Lookup(recipientID)
	if !ok {
		d.dropped.Add(1)
		return
	}

	if !d.sender.SendToConn(connID, event) {
		log.Printf("[dispatch] %s to user %s dropped", event.Op, recipientID)
		d.dropped.Add(1)
		return
	}
	d.delivered.Add(1)
}

func (d *Dispatcher) recoverDispatch(recipientID, kind string) {
	if r := recover(); r != nil {
		log.Printf("[dispatch] panic while dispatching %s to user %s: %v", kind, recipientID, r)
		d.dropped.Add(1)
	}
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
	}
}
