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

func TestProfile(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		bob := signup(t, store, "bob")
		_, err := NewFollowService(store, nil).Follow(ctx, bob.ID, "alice")
		require.NoError(t, err)
		_, err = NewPostService(store, nil, 50).CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "hello"})
		require.NoError(t, err)

		svc := NewUserService(store)
		p, err := svc.Profile(ctx, "alice", bob.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, p.User.ID)
		require.Len(t, p.Followers, 1)
		assert.Equal(t, "bob", p.Followers[0].Username)
		assert.Empty(t, p.Following)
		require.Len(t, p.Posts, 1)
		assert.True(t, p.IsFollowing)

		anon, err := svc.Profile(ctx, "alice", 0)
		require.NoError(t, err)
		assert.False(t, anon.IsFollowing)

		_, err = svc.Profile(ctx, "Alice", 0)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}

func TestUpdateProfile(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		svc := NewUserService(store)

		bio := "hello there"
		u, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, bio, u.Bio)
		assert.Empty(t, u.ProfilePic)

		pic := "me.png"
		u, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, ProfilePic: &pic})
		require.NoError(t, err)
		assert.Equal(t, bio, u.Bio)
		assert.Equal(t, pic, u.ProfilePic)

		long := strings.Repeat("b", maxBioLen+1)
		_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Bio: &long})
		assert.True(t, models.HasCode(err, models.CodeValidation))

		bad := "dir/me.png"
		_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, ProfilePic: &bad})
		assert.True(t, models.HasCode(err, models.CodeValidation))

		stored, err := store.Users().GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "me.png", stored.ProfilePic)
	})
}

func TestSetRole(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		boss := signup(t, store, "boss")
		svc := NewUserService(store)

		_, err := svc.SetRole(ctx, SetRoleInput{ActorID: alice.ID, Username: "boss", Role: "admin"})
		assert.True(t, models.HasCode(err, models.CodeForbidden))

		makeAdmin(t, store, boss, models.RoleAdmin)
		_, err = svc.SetRole(ctx, SetRoleInput{ActorID: boss.ID, Username: "alice", Role: "overlord"})
		assert.True(t, models.HasCode(err, models.CodeValidation))

		u, err := svc.SetRole(ctx, SetRoleInput{ActorID: boss.ID, Username: "alice", Role: "Moderator"})
		require.NoError(t, err)
		assert.Equal(t, models.RoleModerator, u.Role)

		list, err := svc.ListUsers(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.Total)
		assert.Len(t, list.Users, 2)
	})
}
