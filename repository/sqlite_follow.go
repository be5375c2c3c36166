package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/akinalp/socialspace/database"
	"github.com/akinalp/socialspace/pkg"
)

type sqliteFollowRepo struct {
	db database.TxQuerier
}

// NewSQLiteFollowRepo returns a FollowRepository over db.
func NewSQLiteFollowRepo(db database.TxQuerier) FollowRepository {
	return &sqliteFollowRepo{db: db}
}

func (r *sqliteFollowRepo) Follow(ctx context.Context, followerID, followingID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower_id, following_id) VALUES (?, ?)`,
		followerID, followingID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("%w: user", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to follow: %w", err)
	}
	return nil
}

func (r *sqliteFollowRepo) Unfollow(ctx context.Context, followerID, followingID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	return nil
}

func (r *sqliteFollowRepo) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND following_id = ?)`,
		followerID, followingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return exists, nil
}

func (r *sqliteFollowRepo) Followers(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx,
		`SELECT follower_id FROM follows WHERE following_id = ? ORDER BY created_at, follower_id`, userID)
}

func (r *sqliteFollowRepo) Following(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx,
		`SELECT following_id FROM follows WHERE follower_id = ? ORDER BY created_at, following_id`, userID)
}

func (r *sqliteFollowRepo) ids(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan follow row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
