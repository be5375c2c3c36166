package repository

import "context"

// FollowRepository stores the follower → following edges.
type FollowRepository interface {
	// Follow is a no-op when the edge already exists.
	Follow(ctx context.Context, followerID, followingID string) error
	// Unfollow is a no-op when the edge does not exist.
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	Followers(ctx context.Context, userID string) ([]string, error)
	Following(ctx context.Context, userID string) ([]string, error)
}
