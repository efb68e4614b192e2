package service

import (
	"context"
	"strings"
	"testing"

	"socialnest/internal/models"
	"socialnest/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_Validation(t *testing.T) {
	store := newDocumentStore(t)
	alice := signup(t, store, "alice")
	svc := NewPostService(store, nil, 50)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"empty", CreatePostInput{UserID: alice.ID, Content: "   "}},
		{"too long", CreatePostInput{UserID: alice.ID, Content: strings.Repeat("x", maxContentLen+1)}},
		{"image path", CreatePostInput{UserID: alice.ID, Image: "../etc/passwd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, tt.in)
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
		})
	}

	p, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Image: "cat.png"})
	require.NoError(t, err)
	assert.Equal(t, "cat.png", p.Image)
	assert.Equal(t, "alice", p.User.Username)
}

func TestFeed_NewestFirstAndCapped(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		svc := NewPostService(store, nil, 2)

		for _, c := range []string{"one", "two", "three"} {
			_, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: c})
			require.NoError(t, err)
		}

		feed, err := svc.Feed(ctx, 0)
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, "three", feed[0].Content)
		assert.Equal(t, "two", feed[1].Content)

		feed, err = svc.Feed(ctx, 1000)
		require.NoError(t, err)
		assert.Len(t, feed, 3)
	})
}

// The like flow from the product walkthrough: bob's first like notifies
// alice once, his second call removes the like and leaves her list alone.
func TestToggleLike_Walkthrough(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		bob := signup(t, store, "bob")
		pub := &recordingPublisher{}
		posts := NewPostService(store, pub, 50)
		notes := NewNotificationService(store, pub)

		post, err := posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "hello"})
		require.NoError(t, err)
		assert.Equal(t, uint(1), post.ID)

		res, err := posts.ToggleLike(ctx, bob.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, res.Liked)
		assert.Equal(t, 1, res.LikesCount)

		list, err := store.Notifications().ListForUser(ctx, alice.ID, 50)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.NotificationLike, list[0].Type)
		assert.Equal(t, "bob liked your post", list[0].Message)
		require.Len(t, pub.published(), 1)

		res, err = posts.ToggleLike(ctx, bob.ID, post.ID)
		require.NoError(t, err)
		assert.False(t, res.Liked)
		assert.Equal(t, 0, res.LikesCount)

		after, err := store.Notifications().ListForUser(ctx, alice.ID, 50)
		require.NoError(t, err)
		assert.Equal(t, list, after)
		assert.Len(t, pub.published(), 1)

		got, err := posts.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Empty(t, got.LikedBy)

		count, err := notes.UnreadCount(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestToggleLike_OwnPostIsSilent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		posts := NewPostService(store, nil, 50)

		post, err := posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "mine"})
		require.NoError(t, err)
		res, err := posts.ToggleLike(ctx, alice.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, res.Liked)

		n, err := store.Notifications().UnreadCount(ctx, alice.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = posts.ToggleLike(ctx, alice.ID, 999)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}

func TestComment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		bob := signup(t, store, "bob")
		posts := NewPostService(store, nil, 50)

		post, err := posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "hello"})
		require.NoError(t, err)

		_, err = posts.Comment(ctx, CommentInput{UserID: bob.ID, PostID: post.ID, Content: "  "})
		assert.True(t, models.HasCode(err, models.CodeValidation))

		c, err := posts.Comment(ctx, CommentInput{UserID: bob.ID, PostID: post.ID, Content: "nice"})
		require.NoError(t, err)
		assert.NotZero(t, c.ID)
		assert.Equal(t, "bob", c.User.Username)

		_, err = posts.Comment(ctx, CommentInput{UserID: alice.ID, PostID: post.ID, Content: "thanks"})
		require.NoError(t, err)

		got, err := posts.GetPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, got.Comments, 2)
		assert.Equal(t, "nice", got.Comments[0].Content)
		assert.Equal(t, 2, got.CommentsCount)

		list, err := store.Notifications().ListForUser(ctx, alice.ID, 50)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.NotificationComment, list[0].Type)
		require.NotNil(t, list[0].PostID)
		assert.Equal(t, post.ID, *list[0].PostID)
	})
}

func TestDeletePost_Permissions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		bob := signup(t, store, "bob")
		mod := signup(t, store, "mody")
		boss := signup(t, store, "boss")
		makeAdmin(t, store, mod, models.RoleModerator)
		makeAdmin(t, store, boss, models.RoleAdmin)
		posts := NewPostService(store, nil, 50)

		post, err := posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "keep me"})
		require.NoError(t, err)
		_, err = posts.ToggleLike(ctx, bob.ID, post.ID)
		require.NoError(t, err)

		err = posts.DeletePost(ctx, bob.ID, post.ID)
		assert.True(t, models.HasCode(err, models.CodeForbidden))

		got, err := posts.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
		assert.Equal(t, "keep me", got.Content)
		assert.Equal(t, 1, got.LikesCount)

		adminPost, err := posts.CreatePost(ctx, CreatePostInput{UserID: boss.ID, Content: "rules"})
		require.NoError(t, err)
		err = posts.DeletePost(ctx, mod.ID, adminPost.ID)
		assert.True(t, models.HasCode(err, models.CodeForbidden))

		require.NoError(t, posts.DeletePost(ctx, mod.ID, post.ID))
		_, err = posts.GetPost(ctx, post.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))

		require.NoError(t, posts.DeletePost(ctx, boss.ID, adminPost.ID))

		err = posts.DeletePost(ctx, boss.ID, adminPost.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}
