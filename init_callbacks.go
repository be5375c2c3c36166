package main

import (
	"context"
	"log"

	"github.com/akinalp/socialspace/services"
	"github.com/akinalp/socialspace/ws"
)

// registerHubCallbacks wires presence transitions to the user service.
// The hub runs callbacks in their own goroutine, so a slow database write
// never stalls the event loop.
func registerHubCallbacks(hub *ws.Hub, userService services.UserService) {
	hub.OnUserOnline(func(userID string) {
		log.Printf("[presence] user %s is now online", userID)
	})

	hub.OnUserOffline(func(userID string) {
		if err := userService.TouchLastSeen(context.Background(), userID); err != nil {
			log.Printf("[presence] failed to record last seen for user %s: %v", userID, err)
			return
		}
		log.Printf("[presence] user %s is now offline", userID)
	})
}
