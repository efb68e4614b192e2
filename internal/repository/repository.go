// Package repository implements the data access layer for the application.
//
// Two backends satisfy the same interfaces: a GORM store (PostgreSQL or SQLite)
// and a document store backed by the in-memory registry.
package repository

import (
	"context"

	"socialnest/internal/models"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByUsername matches the stored name exactly.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByFoldedUsername matches ignoring case and returns nil when absent.
	FindByFoldedUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, bio, profilePic *string) (*models.User, error)
	SetPassword(ctx context.Context, id uint, hash string) error
	SetRole(ctx context.Context, id uint, role models.Role) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// PostRepository defines persistence operations for posts, likes and comments.
type PostRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// List returns the newest posts first.
	List(ctx context.Context, limit int) ([]models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	// Like reports whether a new like was recorded.
	Like(ctx context.Context, postID, userID uint) (bool, error)
	// Unlike reports whether an existing like was removed.
	Unlike(ctx context.Context, postID, userID uint) (bool, error)
	IsLiked(ctx context.Context, postID, userID uint) (bool, error)
	AddComment(ctx context.Context, comment *models.Comment) error
}

// FollowRepository defines persistence operations for follow edges.
type FollowRepository interface {
	// Follow reports whether a new edge was created.
	Follow(ctx context.Context, followerID, followedID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	Followers(ctx context.Context, userID uint) ([]models.User, error)
	Following(ctx context.Context, userID uint) ([]models.User, error)
}

// MessageRepository defines persistence operations for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// Conversation returns the last limit messages between a and b, oldest first.
	Conversation(ctx context.Context, a, b uint, limit int) ([]models.Message, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// ListForUser returns the newest notifications first.
	ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

// Store groups the repositories of one backend.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Follows() FollowRepository
	Messages() MessageRepository
	Notifications() NotificationRepository

	// Atomic runs fn as one unit: every change fn makes through the given Store
	// is persisted together or not at all.
	Atomic(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
