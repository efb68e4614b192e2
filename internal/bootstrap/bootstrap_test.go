package bootstrap

import (
	"context"
	"testing"

	"socialnest/internal/config"
	"socialnest/internal/database"
	"socialnest/internal/models"
	"socialnest/internal/repository"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), database.NewGormLogger(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func jsonConfig() *config.Config {
	return &config.Config{StorageDriver: config.DriverJSON, DocstoreDir: "data"}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store, _, err := OpenStore(ctx, jsonConfig(), afero.NewMemMapFs())
	require.NoError(t, err)

	cfg := jsonConfig()
	require.NoError(t, EnsureAdmin(ctx, cfg, store))
	n, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "disabled bootstrap must not create users")

	cfg.AdminBootstrap = true
	cfg.AdminUsername = "root"
	cfg.AdminPassword = "change-me"
	require.NoError(t, EnsureAdmin(ctx, cfg, store))
	require.NoError(t, EnsureAdmin(ctx, cfg, store))

	root, err := store.Users().GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, root.Role)
	n, err = store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	ctx := context.Background()
	store, _, err := OpenStore(ctx, jsonConfig(), afero.NewMemMapFs())
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(ctx, &models.User{Username: "Boss", Password: "x"}))

	cfg := jsonConfig()
	cfg.AdminBootstrap = true
	cfg.AdminUsername = "boss"
	cfg.AdminPassword = "pw"
	require.NoError(t, EnsureAdmin(ctx, cfg, store))

	u, err := store.Users().GetByUsername(ctx, "Boss")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestImportDocuments(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	reg, err := OpenRegistry(ctx, fs, "data")
	require.NoError(t, err)
	docs := repository.NewDocumentStore(reg)

	alice := &models.User{Username: "alice", Password: "a"}
	bob := &models.User{Username: "bob", Password: "b"}
	require.NoError(t, docs.Users().Create(ctx, alice))
	require.NoError(t, docs.Users().Create(ctx, bob))

	first := &models.Post{UserID: alice.ID, Content: "first"}
	second := &models.Post{UserID: alice.ID, Content: "second"}
	require.NoError(t, docs.Posts().Create(ctx, first))
	require.NoError(t, docs.Posts().Create(ctx, second))
	require.NoError(t, docs.Posts().Delete(ctx, first.ID))

	_, err = docs.Posts().Like(ctx, second.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, docs.Posts().AddComment(ctx, &models.Comment{PostID: second.ID, UserID: bob.ID, Content: "nice"}))
	_, err = docs.Follows().Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, docs.Messages().Create(ctx, &models.Message{SenderID: bob.ID, ReceiverID: alice.ID, Content: "hi"}))
	actor := bob.ID
	require.NoError(t, docs.Notifications().Create(ctx, &models.Notification{
		Type: models.NotificationFollow, UserID: alice.ID, ActorID: &actor, Message: "bob started following you",
	}))

	db := newSQLite(t)
	stats, err := ImportDocuments(ctx, db, reg.Export())
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Users: 2, Posts: 1, Likes: 1, Comments: 1, Follows: 1, Messages: 1, Notifications: 1}, stats)

	sql := repository.NewGormStore(db)
	post, err := sql.Posts().GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), post.ID)
	assert.Equal(t, 1, post.LikesCount)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "nice", post.Comments[0].Content)

	following, err := sql.Follows().IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, following)

	unread, err := sql.Notifications().UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	_, err = ImportDocuments(ctx, db, reg.Export())
	assert.ErrorIs(t, err, ErrTargetNotEmpty)
}
