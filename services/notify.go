package services

import (
	"context"
	"log"
	"time"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/ws"
)

// notifier builds notifications from persisted records and hands them to
// the dispatcher. It runs after the mutation committed; failures to build
// are logged and never fail the request.
type notifier struct {
	dispatch ws.Notifier
	actors   *ActorCache
	now      func() time.Time
}

func newNotifier(dispatch ws.Notifier, actors *ActorCache) *notifier {
	return &notifier{dispatch: dispatch, actors: actors, now: time.Now}
}

// notify sends n to recipientID, filling actor details and timestamp.
// Self-actions are dropped before the actor lookup.
func (n *notifier) notify(ctx context.Context, recipientID string, note models.Notification) {
	if recipientID == note.ActorID {
		return
	}

	actor, err := n.actors.Summary(ctx, note.ActorID)
	if err != nil {
		log.Printf("[notify] failed to load actor %s: %v", note.ActorID, err)
		return
	}
	note.Actor = actor
	note.Timestamp = n.now()

	n.dispatch.Dispatch(recipientID, note)
}
