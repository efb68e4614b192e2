package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"socialnest/internal/models"
	"socialnest/internal/repository"
)

const (
	notificationPage    = 50
	maxSystemMessageLen = 1000
)

type NotificationService struct {
	store repository.Store
	pub   Publisher
}

func NewNotificationService(store repository.Store, pub Publisher) *NotificationService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &NotificationService{store: store, pub: pub}
}

// View returns the newest notifications as they were before the call and
// marks all of them read in the same unit. A second view changes nothing.
func (s *NotificationService) View(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > notificationPage {
		limit = notificationPage
	}
	var list []models.Notification
	err := runAtomic(ctx, s.store, "ViewNotifications", func(tx repository.Store) error {
		var err error
		list, err = tx.Notifications().ListForUser(ctx, userID, limit)
		if err != nil {
			return err
		}
		_, err = tx.Notifications().MarkAllRead(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.store.Notifications().UnreadCount(ctx, userID)
}

type SystemNotificationInput struct {
	ActorID   uint
	Recipient string
	Message   string
}

// SendSystem stores an admin-issued notification that has no actor.
func (s *NotificationService) SendSystem(ctx context.Context, in SystemNotificationInput) (*models.Notification, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, models.NewValidationError("Message cannot be empty")
	}
	if utf8.RuneCountInString(message) > maxSystemMessageLen {
		return nil, models.NewValidationError("Message too long (max 1000 characters)")
	}

	var note *models.Notification
	err := runAtomic(ctx, s.store, "SendSystemNotification", func(tx repository.Store) error {
		actor, err := tx.Users().GetByID(ctx, in.ActorID)
		if err != nil {
			return err
		}
		if actor.Role != models.RoleAdmin {
			return models.NewForbiddenError("Only admins can send system notifications")
		}
		recipient, err := tx.Users().GetByUsername(ctx, in.Recipient)
		if err != nil {
			return err
		}
		note = &models.Notification{
			Type:    models.NotificationSystem,
			UserID:  recipient.ID,
			Message: message,
		}
		return tx.Notifications().Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	deliver(ctx, s.pub, nil, note)
	return note, nil
}
