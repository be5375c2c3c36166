package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxCommentLength bounds a single comment.
const MaxCommentLength = 2200

// Post is a row of the posts table, joined with its author, likes and
// comments when served over the API.
type Post struct {
	ID        string      `json:"id"`
	Caption   string      `json:"caption"`
	Image     string      `json:"image"`
	AuthorID  string      `json:"author_id"`
	Author    UserSummary `json:"author"`
	Likes     []string    `json:"likes"`
	Comments  []Comment   `json:"comments"`
	CreatedAt time.Time   `json:"created_at"`
}

// Comment is a row of the comments table.
type Comment struct {
	ID        string      `json:"id"`
	PostID    string      `json:"post_id"`
	AuthorID  string      `json:"author_id"`
	Author    UserSummary `json:"author"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateCommentRequest is the add-comment payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// Validate rejects empty or oversized comments.
func (r *CreateCommentRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return fmt.Errorf("comment can't be empty")
	}
	if utf8.RuneCountInString(r.Text) > MaxCommentLength {
		return fmt.Errorf("comment must be at most %d characters", MaxCommentLength)
	}
	return nil
}

// BookmarkResult tells the client which way a bookmark toggle went.
type BookmarkResult struct {
	Type string `json:"type"` // "saved" or "unsaved"
}

// FollowResult tells the client which way a follow toggle went.
type FollowResult struct {
	Following bool `json:"following"`
}
