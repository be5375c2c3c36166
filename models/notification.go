package models

import "time"

// NotificationType is the kind of a real-time notification.
type NotificationType string

const (
	NotificationLike     NotificationType = "like"
	NotificationDislike  NotificationType = "dislike"
	NotificationFollow   NotificationType = "follow"
	NotificationUnfollow NotificationType = "unfollow"
	NotificationComment  NotificationType = "comment"
)

// Notification is pushed to the recipient's socket when someone acts on their
// post or profile. It is never persisted: an offline recipient misses it.
//
// TargetID is the post id for like/dislike/comment and the recipient's user
// id for follow/unfollow.
type Notification struct {
	Type        NotificationType `json:"type"`
	ActorID     string           `json:"actor_id"`
	Actor       UserSummary      `json:"actor"`
	TargetID    string           `json:"target_id"`
	Message     string           `json:"message"`
	CommentID   string           `json:"comment_id,omitempty"`
	CommentText string           `json:"comment_text,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}
