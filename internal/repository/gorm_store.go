package repository

import (
	"context"
	"errors"

	"socialnest/internal/models"

	"gorm.io/gorm"
)

type gormStore struct {
	db   *gorm.DB
	inTx bool
}

// NewGormStore returns a Store backed by db.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db, cached: !s.inTx}
}

func (s *gormStore) Posts() PostRepository {
	return &postRepository{db: s.db}
}

func (s *gormStore) Follows() FollowRepository {
	return &followRepository{db: s.db}
}

func (s *gormStore) Messages() MessageRepository {
	return &messageRepository{db: s.db}
}

func (s *gormStore) Notifications() NotificationRepository {
	return &notificationRepository{db: s.db}
}

func (s *gormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, inTx: true})
	})
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// notFound maps gorm.ErrRecordNotFound to a NotFound error and anything else to an internal one.
func notFound(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
