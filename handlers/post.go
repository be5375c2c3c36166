package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/pkg/ratelimit"
	"github.com/akinalp/socialspace/services"
)

// PostHandler serves posts, likes, bookmarks and comments.
type PostHandler struct {
	postService    services.PostService
	commentService services.CommentService
	maxUploadSize  int64
	commentLimiter *ratelimit.MessageRateLimiter
}

// NewPostHandler builds a PostHandler. A nil commentLimiter disables comment
// rate limiting.
func NewPostHandler(
	postService services.PostService,
	commentService services.CommentService,
	maxUploadSize int64,
	commentLimiter *ratelimit.MessageRateLimiter,
) *PostHandler {
	return &PostHandler{
		postService:    postService,
		commentService: commentService,
		maxUploadSize:  maxUploadSize,
		commentLimiter: commentLimiter,
	}
}

// Create godoc
// POST /api/v1/post/addpost
//
// Multipart fields: image (file, required), caption.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		pkg.Error(w, err)
		return
	}

	image, file, err := formUpload(r, "image")
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	post, err := h.postService.Create(r.Context(), user.ID, r.FormValue("caption"), image)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, "New post added.", post)
}

// List godoc
// GET /api/v1/post/all
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "", posts)
}

// Get godoc
// GET /api/v1/post/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "", post)
}

// Like godoc
// POST /api/v1/post/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.postService.Like(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "Post liked.", nil)
}

// Dislike godoc
// POST /api/v1/post/{id}/dislike
func (h *PostHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.postService.Dislike(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "Post disliked.", nil)
}

// Delete godoc
// DELETE /api/v1/post/delete/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "Post deleted.", nil)
}

// Bookmark godoc
// POST /api/v1/post/{id}/bookmark
func (h *PostHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.postService.ToggleBookmark(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	message := "Post removed from bookmarks."
	if result.Type == "saved" {
		message = "Post bookmarked."
	}
	pkg.JSON(w, http.StatusOK, message, result)
}

// AddComment godoc
// POST /api/v1/post/{id}/comment
// Body: { "text": "..." }
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if h.commentLimiter != nil && !h.commentLimiter.Allow(user.ID) {
		cooldown := h.commentLimiter.CooldownSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", cooldown))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("you are commenting too fast, please wait %s",
				ratelimit.FormatRetryMessage(cooldown)))
		return
	}

	var req models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.commentService.Add(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, "Comment added.", comment)
}

// ListComments godoc
// GET /api/v1/post/{id}/comment/all
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.ListByPost(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "", comments)
}

// DeleteComment godoc
// DELETE /api/v1/post/{postId}/comment/{commentId}
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.commentService.Delete(r.Context(), user.ID, r.PathValue("postId"), r.PathValue("commentId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "Comment deleted.", nil)
}
