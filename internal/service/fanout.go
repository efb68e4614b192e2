package service

import (
	"context"
	"fmt"
	"log/slog"

	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/observability"
	"socialnest/internal/repository"
)

// Publisher delivers committed notifications to connected clients.
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification)
}

// NopPublisher discards every notification.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Notification) {}

// Fanout returns the notification that actor's action owes recipient, or nil
// when the two are the same user.
func Fanout(kind models.NotificationType, actor, recipient *models.User, postID *uint) *models.Notification {
	if actor == nil || recipient == nil || actor.ID == recipient.ID {
		return nil
	}
	actorID := actor.ID
	n := &models.Notification{
		Type:    kind,
		UserID:  recipient.ID,
		ActorID: &actorID,
		Message: renderMessage(kind, actor.Username),
	}
	if postID != nil {
		id := *postID
		n.PostID = &id
	}
	return n
}

func renderMessage(kind models.NotificationType, actor string) string {
	switch kind {
	case models.NotificationLike:
		return fmt.Sprintf("%s liked your post", actor)
	case models.NotificationComment:
		return fmt.Sprintf("%s commented on your post", actor)
	case models.NotificationFollow:
		return fmt.Sprintf("%s started following you", actor)
	case models.NotificationDM:
		return fmt.Sprintf("%s sent you a message", actor)
	}
	return ""
}

// emit stores n through tx when it is not nil.
func emit(ctx context.Context, tx repository.Store, n *models.Notification) error {
	if n == nil {
		return nil
	}
	return tx.Notifications().Create(ctx, n)
}

// deliver hands committed notifications to pub.
func deliver(ctx context.Context, pub Publisher, actor *models.User, notes ...*models.Notification) {
	for _, n := range notes {
		if n == nil {
			continue
		}
		observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
		if actor != nil && n.Actor == nil {
			a := *actor
			n.Actor = &a
		}
		pub.Publish(ctx, n)
		middleware.Logger.DebugContext(ctx, "notification delivered",
			slog.String("type", string(n.Type)),
			slog.Uint64("recipient", uint64(n.UserID)),
		)
	}
}

// runAtomic runs fn in one unit of work inside a service span.
func runAtomic(ctx context.Context, store repository.Store, op string, fn func(tx repository.Store) error) error {
	ctx, span := observability.StartAction(ctx, op)
	defer span.End()
	err := store.Atomic(ctx, fn)
	observability.Fail(span, err)
	return err
}
