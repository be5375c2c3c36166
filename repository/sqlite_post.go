package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/socialspace/database"
	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
)

const postSelect = `
	SELECT p.id, p.caption, p.image, p.author_id, p.created_at,
	       u.id, u.username, u.avatar_url
	FROM posts p
	JOIN users u ON u.id = p.author_id`

type sqlitePostRepo struct {
	db database.TxQuerier
}

// NewSQLitePostRepo returns a PostRepository over db.
func NewSQLitePostRepo(db database.TxQuerier) PostRepository {
	return &sqlitePostRepo{db: db}
}

func (r *sqlitePostRepo) Create(ctx context.Context, post *models.Post) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, author_id, caption, image)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?)
		RETURNING id, created_at`,
		post.AuthorID, post.Caption, post.Image,
	).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return nil
}

func (r *sqlitePostRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := r.db.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id).Scan(
		&p.ID, &p.Caption, &p.Image, &p.AuthorID, &p.CreatedAt,
		&p.Author.ID, &p.Author.Username, &p.Author.AvatarURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: post", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	posts := []models.Post{p}
	if err := r.attach(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *sqlitePostRepo) List(ctx context.Context) ([]models.Post, error) {
	return r.list(ctx, postSelect+` ORDER BY p.created_at DESC, p.rowid DESC`)
}

func (r *sqlitePostRepo) ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return r.list(ctx, postSelect+` WHERE p.author_id = ? ORDER BY p.created_at DESC, p.rowid DESC`, authorID)
}

func (r *sqlitePostRepo) list(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID, &p.Caption, &p.Image, &p.AuthorID, &p.CreatedAt,
			&p.Author.ID, &p.Author.Username, &p.Author.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}
	// Close before attach: an in-memory database has a single connection.
	rows.Close()

	if err := r.attach(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// attach fills Likes and Comments of posts in two queries.
func (r *sqlitePostRepo) attach(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	index := make(map[string]int, len(posts))
	ids := make([]string, len(posts))
	for i := range posts {
		posts[i].Likes = []string{}
		posts[i].Comments = []models.Comment{}
		index[posts[i].ID] = i
		ids[i] = posts[i].ID
	}
	in := placeholders(len(ids))

	likeRows, err := r.db.QueryContext(ctx,
		`SELECT post_id, user_id FROM post_likes WHERE post_id IN (`+in+`) ORDER BY created_at, rowid`,
		stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}
	for likeRows.Next() {
		var postID, userID string
		if err := likeRows.Scan(&postID, &userID); err != nil {
			likeRows.Close()
			return fmt.Errorf("failed to scan like row: %w", err)
		}
		i := index[postID]
		posts[i].Likes = append(posts[i].Likes, userID)
	}
	if err := likeRows.Err(); err != nil {
		likeRows.Close()
		return fmt.Errorf("error iterating like rows: %w", err)
	}
	likeRows.Close()

	commentRows, err := r.db.QueryContext(ctx,
		commentSelect+` WHERE c.post_id IN (`+in+`) ORDER BY c.created_at, c.rowid`,
		stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	defer commentRows.Close()

	for commentRows.Next() {
		c, err := scanComment(commentRows)
		if err != nil {
			return fmt.Errorf("failed to scan comment row: %w", err)
		}
		i := index[c.PostID]
		posts[i].Comments = append(posts[i].Comments, *c)
	}
	return commentRows.Err()
}

func (r *sqlitePostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireAffected(result, "post")
}

func (r *sqlitePostRepo) AddLike(ctx context.Context, postID, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_likes (post_id, user_id) VALUES (?, ?)`, postID, userID,
	); err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}
	return nil
}

func (r *sqlitePostRepo) RemoveLike(ctx context.Context, postID, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID,
	); err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}
	return nil
}

func (r *sqlitePostRepo) IsBookmarked(ctx context.Context, userID, postID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = ? AND post_id = ?)`, userID, postID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}
	return exists, nil
}

func (r *sqlitePostRepo) AddBookmark(ctx context.Context, userID, postID string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO bookmarks (user_id, post_id) VALUES (?, ?)`, userID, postID,
	); err != nil {
		return fmt.Errorf("failed to bookmark post: %w", err)
	}
	return nil
}

func (r *sqlitePostRepo) RemoveBookmark(ctx context.Context, userID, postID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = ? AND post_id = ?`, userID, postID,
	); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}

func (r *sqlitePostRepo) BookmarkedPostIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id FROM bookmarks WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
