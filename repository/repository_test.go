package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/socialspace/database"
	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo UserRepository, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteUserRepo(newTestDB(t).Conn)

	alice := createUser(t, repo, "alice")
	createUser(t, repo, "bob")
	createUser(t, repo, "Alicia_2")

	t.Run("duplicates", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Username: "ALICE", Email: "other@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

		err = repo.Create(ctx, &models.User{Username: "other", Email: "Alice@Example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
	})

	t.Run("lookups", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, pkg.ErrNotFound)

		summary, err := repo.GetSummary(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.UserSummary{ID: alice.ID, Username: "alice"}, *summary)
	})

	t.Run("search", func(t *testing.T) {
		got, err := repo.Search(ctx, "ALI", 40)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "alice", got[0].Username)
		assert.Equal(t, "Alicia_2", got[1].Username)

		got, err = repo.Search(ctx, "%", 40)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = repo.Search(ctx, "_", 40)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = repo.Search(ctx, "", 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("suggested", func(t *testing.T) {
		got, err := repo.ListExcept(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		for _, u := range got {
			assert.NotEqual(t, alice.ID, u.ID)
		}
	})

	t.Run("profile", func(t *testing.T) {
		alice.Bio = "hello"
		alice.Gender = models.GenderFemale
		alice.AvatarURL = "/api/uploads/a.png"
		require.NoError(t, repo.UpdateProfile(ctx, alice))

		at := time.Now().Truncate(time.Second)
		require.NoError(t, repo.TouchLastSeen(ctx, alice.ID, at))

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Bio)
		assert.Equal(t, models.GenderFemale, got.Gender)
		assert.Equal(t, "/api/uploads/a.png", got.AvatarURL)
		require.NotNil(t, got.LastSeenAt)
		assert.True(t, got.LastSeenAt.Equal(at))

		err = repo.UpdateProfile(ctx, &models.User{ID: "missing"})
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})
}

func TestFollowRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	repo := NewSQLiteFollowRepo(db.Conn)

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

	ok, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	followers, err := repo.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, followers)

	following, err := repo.Following(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, following)

	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))

	followers, err = repo.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	err = repo.Follow(ctx, alice.ID, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestPostRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	posts := NewSQLitePostRepo(db.Conn)
	comments := NewSQLiteCommentRepo(db.Conn)

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	var created []*models.Post
	for i := 0; i < 3; i++ {
		p := &models.Post{AuthorID: alice.ID, Caption: fmt.Sprintf("post %d", i), Image: "/api/uploads/p.png"}
		require.NoError(t, posts.Create(ctx, p))
		created = append(created, p)
	}
	target := created[1]

	require.NoError(t, posts.AddLike(ctx, target.ID, bob.ID))
	require.NoError(t, posts.AddLike(ctx, target.ID, bob.ID))
	require.NoError(t, posts.AddLike(ctx, target.ID, alice.ID))

	c := &models.Comment{PostID: target.ID, AuthorID: bob.ID, Text: "nice"}
	require.NoError(t, comments.Create(ctx, c))

	t.Run("get", func(t *testing.T) {
		got, err := posts.GetByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, "post 1", got.Caption)
		assert.Equal(t, "alice", got.Author.Username)
		assert.ElementsMatch(t, []string{alice.ID, bob.ID}, got.Likes)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "nice", got.Comments[0].Text)
		assert.Equal(t, "bob", got.Comments[0].Author.Username)
	})

	t.Run("list newest first", func(t *testing.T) {
		got, err := posts.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, created[2].ID, got[0].ID)
		assert.Equal(t, created[0].ID, got[2].ID)
		assert.Empty(t, got[0].Likes)
		assert.Len(t, got[1].Likes, 2)

		mine, err := posts.ListByAuthor(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, mine)
	})

	t.Run("unlike", func(t *testing.T) {
		require.NoError(t, posts.RemoveLike(ctx, target.ID, bob.ID))
		got, err := posts.GetByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID}, got.Likes)
	})

	t.Run("bookmarks", func(t *testing.T) {
		require.NoError(t, posts.AddBookmark(ctx, bob.ID, target.ID))
		ok, err := posts.IsBookmarked(ctx, bob.ID, target.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ids, err := posts.BookmarkedPostIDs(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{target.ID}, ids)

		require.NoError(t, posts.RemoveBookmark(ctx, bob.ID, target.ID))
		ok, err = posts.IsBookmarked(ctx, bob.ID, target.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, posts.AddBookmark(ctx, bob.ID, target.ID))
		require.NoError(t, posts.Delete(ctx, target.ID))

		_, err := posts.GetByID(ctx, target.ID)
		assert.ErrorIs(t, err, pkg.ErrNotFound)

		_, err = comments.GetByID(ctx, c.ID)
		assert.ErrorIs(t, err, pkg.ErrNotFound)

		ids, err := posts.BookmarkedPostIDs(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)

		assert.ErrorIs(t, posts.Delete(ctx, target.ID), pkg.ErrNotFound)
	})
}

func TestCommentRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	posts := NewSQLitePostRepo(db.Conn)
	repo := NewSQLiteCommentRepo(db.Conn)

	alice := createUser(t, users, "alice")
	p := &models.Post{AuthorID: alice.ID, Image: "x.png"}
	require.NoError(t, posts.Create(ctx, p))

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, &models.Comment{PostID: p.ID, AuthorID: alice.ID, Text: text}))
	}

	got, err := repo.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{got[0].Text, got[1].Text, got[2].Text})

	require.NoError(t, repo.Delete(ctx, got[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, got[0].ID), pkg.ErrNotFound)

	err = repo.Create(ctx, &models.Comment{PostID: "missing", AuthorID: alice.ID, Text: "x"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMessageRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	repo := NewSQLiteMessageRepo(db.Conn)

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	_, err := repo.FindConversation(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	convA, err := repo.GetOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	convB, err := repo.GetOrCreateConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, convA, convB)

	for i, from := range []*models.User{alice, bob, alice} {
		to := bob
		if from == bob {
			to = alice
		}
		require.NoError(t, repo.Create(ctx, &models.Message{
			ConversationID: convA,
			SenderID:       from.ID,
			ReceiverID:     to.ID,
			Message:        fmt.Sprintf("m%d", i),
		}))
	}

	got, err := repo.ListByConversation(ctx, convA)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m0", got[0].Message)
	assert.Equal(t, bob.ID, got[1].SenderID)
	assert.Equal(t, "m2", got[2].Message)

	_, err = repo.GetOrCreateConversation(ctx, alice.ID, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
