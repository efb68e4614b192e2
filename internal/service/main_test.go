package service

import (
	"context"
	"sync"
	"testing"

	"socialnest/internal/database"
	"socialnest/internal/docstore"
	"socialnest/internal/models"
	"socialnest/internal/registry"
	"socialnest/internal/repository"
	"socialnest/internal/validation"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"
)

func newSQLiteStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), database.NewGormLogger(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	store := repository.NewGormStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newDocumentStore(t *testing.T) repository.Store {
	t.Helper()
	ds, err := docstore.Open(afero.NewMemMapFs(), "data")
	require.NoError(t, err)
	reg, err := registry.Load(context.Background(), ds)
	require.NoError(t, err)
	return repository.NewDocumentStore(reg)
}

// forEachBackend runs fn against a fresh SQLite store and a fresh document store.
func forEachBackend(t *testing.T, fn func(t *testing.T, store repository.Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
	t.Run("documents", func(t *testing.T) { fn(t, newDocumentStore(t)) })
}

func newAuth(store repository.Store) *AuthService {
	return NewAuthService(store, AuthConfig{
		Reserved:       validation.ParseReservedNames("admin,root,system"),
		PasswordPolicy: validation.PolicyBasic,
		HashCost:       bcrypt.MinCost,
	})
}

func signup(t *testing.T, store repository.Store, username string) *models.User {
	t.Helper()
	u, err := newAuth(store).Signup(context.Background(), SignupInput{Username: username, Password: "pw-" + username})
	require.NoError(t, err)
	return u
}

func makeAdmin(t *testing.T, store repository.Store, u *models.User, role models.Role) {
	t.Helper()
	require.NoError(t, store.Users().SetRole(context.Background(), u.ID, role))
	u.Role = role
}

type recordingPublisher struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n *models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, *n)
}

func (p *recordingPublisher) published() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Notification(nil), p.notes...)
}
