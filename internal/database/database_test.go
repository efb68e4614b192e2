package database

import (
	"errors"
	"fmt"
	"testing"

	"socialnest/internal/config"
	"socialnest/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOpen_SQLiteSingleConnection(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), NewGormLogger(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, Migrate(db))
	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestMigrate_EnforcesUniqueUsernameKey(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), NewGormLogger(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Create(&models.User{Username: "Alice", UsernameKey: "alice", Password: "x", Role: models.RoleUser}).Error)
	err = db.Create(&models.User{Username: "alice", UsernameKey: "alice", Password: "x", Role: models.RoleUser}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestConnect_RejectsDocumentDriver(t *testing.T) {
	_, err := Connect(&config.Config{StorageDriver: config.DriverJSON})
	assert.Error(t, err)
}

func TestGormLoggerLogMode(t *testing.T) {
	l := NewGormLogger(logger.Warn)
	quiet := l.LogMode(logger.Silent).(*CustomGormLogger)
	assert.Equal(t, logger.Silent, quiet.Config.LogLevel)
	assert.Equal(t, logger.Warn, l.Config.LogLevel)
}
