package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/socialspace/models"
)

// fakeFeedAPI answers with the configured error. When gate is set, calls
// block until it is closed so tests can look at the predicted state.
type fakeFeedAPI struct {
	mu    sync.Mutex
	calls []string
	err   error
	gate  chan struct{}

	bookmarkType string
	following    bool
	comment      *models.Comment
}

func (f *fakeFeedAPI) record(ctx context.Context, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeFeedAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFeedAPI) Like(ctx context.Context, postID string) error {
	return f.record(ctx, "like "+postID)
}

func (f *fakeFeedAPI) Dislike(ctx context.Context, postID string) error {
	return f.record(ctx, "dislike "+postID)
}

func (f *fakeFeedAPI) Bookmark(ctx context.Context, postID string) (string, error) {
	if err := f.record(ctx, "bookmark "+postID); err != nil {
		return "", err
	}
	return f.bookmarkType, nil
}

func (f *fakeFeedAPI) AddComment(ctx context.Context, postID, text string) (*models.Comment, error) {
	if err := f.record(ctx, "comment "+postID); err != nil {
		return nil, err
	}
	return f.comment, nil
}

func (f *fakeFeedAPI) DeleteComment(ctx context.Context, postID, commentID string) error {
	return f.record(ctx, "uncomment "+commentID)
}

func (f *fakeFeedAPI) DeletePost(ctx context.Context, postID string) error {
	return f.record(ctx, "delete "+postID)
}

func (f *fakeFeedAPI) FollowOrUnfollow(ctx context.Context, userID string) (bool, error) {
	if err := f.record(ctx, "follow "+userID); err != nil {
		return false, err
	}
	return f.following, nil
}

var me = models.UserSummary{ID: "u-me", Username: "me"}

// postWithLikes returns a post liked by n other users.
func postWithLikes(id string, n int) models.Post {
	likes := make([]string, n)
	for i := range likes {
		likes[i] = "u-" + string(rune('a'+i))
	}
	return models.Post{ID: id, Likes: likes}
}

type failure struct {
	key string
	err error
}

func newTestFeed(api FeedAPI) (*Feed, *[]failure) {
	var failures []failure
	f := NewFeed(api, me, func(key string, err error) {
		failures = append(failures, failure{key, err})
	})
	return f, &failures
}

func TestToggleLikeOptimisticThenRollback(t *testing.T) {
	api := &fakeFeedAPI{
		gate: make(chan struct{}),
		err:  &APIError{Status: http.StatusInternalServerError, Message: "internal server error"},
	}
	feed, failures := newTestFeed(api)
	feed.Load([]models.Post{postWithLikes("p1", 10)}, nil, nil)
	require.Equal(t, LikeState{Liked: false, Count: 10}, feed.Like("p1"))

	done := make(chan error, 1)
	go func() { done <- feed.ToggleLike(context.Background(), "p1") }()

	// Predicted before the server answers.
	require.Eventually(t, func() bool { return len(api.Calls()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, LikeState{Liked: true, Count: 11}, feed.Like("p1"))

	close(api.gate)
	err := <-done

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, LikeState{Liked: false, Count: 10}, feed.Like("p1"))
	require.Len(t, *failures, 1)
	assert.Equal(t, "p1", (*failures)[0].key)
}

func TestToggleLikeCommitsAndUnlikes(t *testing.T) {
	api := &fakeFeedAPI{}
	feed, failures := newTestFeed(api)
	feed.Load([]models.Post{postWithLikes("p1", 10)}, nil, nil)

	require.NoError(t, feed.ToggleLike(context.Background(), "p1"))
	assert.Equal(t, LikeState{Liked: true, Count: 11}, feed.Like("p1"))

	require.NoError(t, feed.ToggleLike(context.Background(), "p1"))
	assert.Equal(t, LikeState{Liked: false, Count: 10}, feed.Like("p1"))

	assert.Equal(t, []string{"like p1", "dislike p1"}, api.Calls())
	assert.Empty(t, *failures)
}

func TestTransportErrorRollsBack(t *testing.T) {
	api := &fakeFeedAPI{err: errors.New("connection refused")}
	feed, failures := newTestFeed(api)
	feed.Load([]models.Post{postWithLikes("p1", 0)}, []string{"p1"}, nil)

	require.Error(t, feed.ToggleBookmark(context.Background(), "p1"))
	assert.True(t, feed.Bookmarked("p1"))
	assert.Len(t, *failures, 1)
}

func TestMutationInFlightRejected(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeFeedAPI{gate: gate}
	feed, _ := newTestFeed(api)
	feed.Load([]models.Post{postWithLikes("p1", 3)}, nil, nil)

	done := make(chan error, 1)
	go func() { done <- feed.ToggleLike(context.Background(), "p1") }()
	require.Eventually(t, func() bool { return len(api.Calls()) == 1 }, time.Second, time.Millisecond)

	err := feed.ToggleLike(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrMutationInFlight)
	assert.Len(t, api.Calls(), 1)

	// A different action on the same post has its own key space.
	api.mu.Lock()
	api.gate = nil
	api.bookmarkType = "saved"
	api.mu.Unlock()
	require.NoError(t, feed.ToggleBookmark(context.Background(), "p1"))
	assert.True(t, feed.Bookmarked("p1"))

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, LikeState{Liked: true, Count: 4}, feed.Like("p1"))
}

func TestAddCommentValidatesBeforePredicting(t *testing.T) {
	api := &fakeFeedAPI{}
	feed, failures := newTestFeed(api)
	feed.Load([]models.Post{{ID: "p1"}}, nil, nil)

	err := feed.AddComment(context.Background(), "p1", "   ")
	require.EqualError(t, err, "comment can't be empty")

	assert.Empty(t, feed.Comments("p1"))
	assert.Empty(t, api.Calls())
	assert.Empty(t, *failures)
}

func TestAddCommentReconcilesTempID(t *testing.T) {
	stored := &models.Comment{ID: "c-42", PostID: "p1", AuthorID: me.ID, Author: me, Text: "nice"}
	api := &fakeFeedAPI{gate: make(chan struct{}), comment: stored}
	feed, _ := newTestFeed(api)
	feed.Load([]models.Post{{ID: "p1", Comments: []models.Comment{{ID: "c-1", Text: "first"}}}}, nil, nil)

	done := make(chan error, 1)
	go func() { done <- feed.AddComment(context.Background(), "p1", "  nice ") }()
	require.Eventually(t, func() bool { return len(api.Calls()) == 1 }, time.Second, time.Millisecond)

	pending := feed.Comments("p1")
	require.Len(t, pending, 2)
	assert.True(t, strings.HasPrefix(pending[1].ID, TempIDPrefix))
	assert.Equal(t, "nice", pending[1].Text)
	assert.Equal(t, me, pending[1].Author)

	close(api.gate)
	require.NoError(t, <-done)

	comments := feed.Comments("p1")
	require.Len(t, comments, 2)
	assert.Equal(t, "c-1", comments[0].ID)
	assert.Equal(t, *stored, comments[1])
}

func TestAddCommentFailureRemovesTemp(t *testing.T) {
	api := &fakeFeedAPI{err: &APIError{Status: http.StatusNotFound, Message: "post not found"}}
	feed, failures := newTestFeed(api)
	feed.Load([]models.Post{{ID: "p1"}}, nil, nil)

	require.Error(t, feed.AddComment(context.Background(), "p1", "hello"))
	assert.Empty(t, feed.Comments("p1"))
	assert.Len(t, *failures, 1)
}

func TestDeleteCommentAndRollback(t *testing.T) {
	api := &fakeFeedAPI{}
	feed, _ := newTestFeed(api)
	feed.Load([]models.Post{{ID: "p1", Comments: []models.Comment{{ID: "c-1"}, {ID: "c-2"}}}}, nil, nil)

	require.Error(t, feed.DeleteComment(context.Background(), "p1", "c-9"))
	require.Error(t, feed.DeleteComment(context.Background(), "p1", TempIDPrefix+"x"))
	assert.Empty(t, api.Calls())

	require.NoError(t, feed.DeleteComment(context.Background(), "p1", "c-1"))
	assert.Equal(t, []models.Comment{{ID: "c-2"}}, feed.Comments("p1"))

	api.err = &APIError{Status: http.StatusForbidden, Message: "not allowed"}
	require.Error(t, feed.DeleteComment(context.Background(), "p1", "c-2"))
	assert.Equal(t, []models.Comment{{ID: "c-2"}}, feed.Comments("p1"))
}

func TestDeletePost(t *testing.T) {
	api := &fakeFeedAPI{err: &APIError{Status: http.StatusForbidden, Message: "not your post"}}
	feed, _ := newTestFeed(api)
	feed.Load([]models.Post{{ID: "p1"}}, nil, nil)

	require.Error(t, feed.DeletePost(context.Background(), "p1"))
	assert.False(t, feed.Deleted("p1"))

	api.err = nil
	require.NoError(t, feed.DeletePost(context.Background(), "p1"))
	assert.True(t, feed.Deleted("p1"))

	require.Error(t, feed.DeletePost(context.Background(), "p1"))
	assert.Len(t, api.Calls(), 2)
}

func TestToggleFollowSettlesOnServerAnswer(t *testing.T) {
	api := &fakeFeedAPI{following: true}
	feed, _ := newTestFeed(api)

	require.Error(t, feed.ToggleFollow(context.Background(), me.ID))
	assert.Empty(t, api.Calls())

	require.NoError(t, feed.ToggleFollow(context.Background(), "u-bob"))
	assert.True(t, feed.Following("u-bob"))

	// The server says we still follow: the prediction (unfollow) is replaced.
	require.NoError(t, feed.ToggleFollow(context.Background(), "u-bob"))
	assert.True(t, feed.Following("u-bob"))
}

func TestControllerRollbackOfNewKey(t *testing.T) {
	c := NewController[string, int](nil)

	err := c.Mutate(context.Background(), "k", Mutation[int]{
		Predict: func(cur int) int { return cur + 1 },
		Send: func(context.Context) (Reconcile[int], error) {
			return nil, errors.New("boom")
		},
	})
	require.Error(t, err)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Pending("k"))
}
