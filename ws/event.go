// Package ws carries the real-time side of the server.
//
// Pieces:
//   - Registry: user id → live connection id (last connect wins)
//   - Hub: owns the registry and the sockets, broadcasts the presence set
//   - Dispatcher: delivers a notification to its recipient's connection, if any
//   - Client: read/write pumps of a single socket
//   - Handler: the HTTP → WebSocket handshake
//
// Flow of a notification:
//  1. A REST call mutates persisted state (like, follow, comment, message)
//  2. The service builds a models.Notification and calls Dispatcher.Dispatch
//  3. The dispatcher looks the recipient up in the registry and queues the frame
//  4. The recipient's WritePump writes it to the socket
//
// There are no client → server application events; the socket only carries
// server pushes and ping/pong keepalives.
package ws

// Event is the frame written to a socket.
//
// Seq numbers the frames of one socket, starting at 1, so a client can spot
// gaps in its own stream. Numbers are not comparable across sockets.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Server → client channels.
const (
	// OpOnlineUsers carries the full presence set ([]string), never a delta.
	OpOnlineUsers = "presence.online_users"

	OpNotificationLike    = "notification.like"    // like and dislike
	OpNotificationFollow  = "notification.follow"  // follow and unfollow
	OpNotificationComment = "notification.comment" // comment

	// OpMessageNew carries a models.Message to its receiver.
	OpMessageNew = "message.new"
)
