package service

import (
	"context"
	"testing"

	"socialnest/internal/models"
	"socialnest/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_MarksReadAndIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		bob := signup(t, store, "bob")
		carol := signup(t, store, "carol")
		follows := NewFollowService(store, nil)
		svc := NewNotificationService(store, nil)

		_, err := follows.Follow(ctx, bob.ID, "alice")
		require.NoError(t, err)
		_, err = follows.Follow(ctx, carol.ID, "alice")
		require.NoError(t, err)
		_, err = follows.Follow(ctx, alice.ID, "bob")
		require.NoError(t, err)

		first, err := svc.View(ctx, alice.ID, 0)
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, "carol started following you", first[0].Message)
		for _, n := range first {
			assert.False(t, n.IsRead)
		}

		unread, err := svc.UnreadCount(ctx, alice.ID)
		require.NoError(t, err)
		assert.Zero(t, unread)

		second, err := svc.View(ctx, alice.ID, 0)
		require.NoError(t, err)
		require.Len(t, second, 2)
		for i, n := range second {
			assert.True(t, n.IsRead)
			assert.Equal(t, first[i].ID, n.ID)
		}

		third, err := svc.View(ctx, alice.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, second, third)

		bobUnread, err := svc.UnreadCount(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), bobUnread)
	})
}

func TestSendSystem(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		alice := signup(t, store, "alice")
		boss := signup(t, store, "boss")
		pub := &recordingPublisher{}
		svc := NewNotificationService(store, pub)

		_, err := svc.SendSystem(ctx, SystemNotificationInput{ActorID: alice.ID, Recipient: "boss", Message: "hi"})
		assert.True(t, models.HasCode(err, models.CodeForbidden))

		makeAdmin(t, store, boss, models.RoleAdmin)
		_, err = svc.SendSystem(ctx, SystemNotificationInput{ActorID: boss.ID, Recipient: "alice", Message: ""})
		assert.True(t, models.HasCode(err, models.CodeValidation))

		n, err := svc.SendSystem(ctx, SystemNotificationInput{ActorID: boss.ID, Recipient: "alice", Message: "Maintenance tonight"})
		require.NoError(t, err)
		assert.Equal(t, models.NotificationSystem, n.Type)
		assert.Nil(t, n.ActorID)

		list, err := svc.View(ctx, alice.ID, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Maintenance tonight", list[0].Message)
		assert.Nil(t, list[0].Actor)
		assert.Len(t, pub.published(), 1)
	})
}
