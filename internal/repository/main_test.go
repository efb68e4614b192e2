package repository

import (
	"context"
	"testing"

	"socialnest/internal/database"
	"socialnest/internal/docstore"
	"socialnest/internal/models"
	"socialnest/internal/registry"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), database.NewGormLogger(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupDocStore(t *testing.T) (Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	ds, err := docstore.Open(fs, "data")
	require.NoError(t, err)
	reg, err := registry.Load(context.Background(), ds)
	require.NoError(t, err)
	return NewDocumentStore(reg), fs
}

// forEachBackend runs fn against a fresh SQLite store and a fresh document store.
func forEachBackend(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewGormStore(setupTestDB(t)))
	})
	t.Run("documents", func(t *testing.T) {
		store, _ := setupDocStore(t)
		fn(t, store)
	})
}

func createUser(t *testing.T, store Store, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "secret"}
	require.NoError(t, store.Users().Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}
