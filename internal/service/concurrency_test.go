package service

import (
	"context"
	"sync"
	"testing"

	"socialnest/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow_ConcurrentCallsCreateOneEdge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		bob := signup(t, store, "bob")
		svc := NewFollowService(store, nil)

		const workers = 20
		created := make(chan bool, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := svc.Follow(ctx, bob.ID, "alice")
				if assert.NoError(t, err) {
					created <- res.Created
				}
			}()
		}
		wg.Wait()
		close(created)

		firsts := 0
		for c := range created {
			if c {
				firsts++
			}
		}
		assert.Equal(t, 1, firsts)

		followers, err := store.Follows().Followers(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, followers, 1)

		notes, err := store.Notifications().ListForUser(ctx, alice.ID, 50)
		require.NoError(t, err)
		assert.Len(t, notes, 1)
	})
}

func TestToggleLike_ConcurrentTogglesKeepParity(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		bob := signup(t, store, "bob")
		svc := NewPostService(store, nil, 50)
		post, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "hello"})
		require.NoError(t, err)

		const toggles = 21
		var wg sync.WaitGroup
		for i := 0; i < toggles; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := svc.ToggleLike(ctx, bob.ID, post.ID)
				if assert.NoError(t, err) {
					assert.Contains(t, []int{0, 1}, res.LikesCount)
				}
			}()
		}
		wg.Wait()

		got, err := svc.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, toggles%2, got.LikesCount)
	})
}
