package models

import "time"

// NotificationType identifies the action that produced a notification.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationDM      NotificationType = "dm"
	NotificationSystem  NotificationType = "system"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationDM, NotificationSystem:
		return true
	}
	return false
}

// Notification is delivered to UserID. ActorID is nil for system notifications.
// Notifications are never deleted; IsRead only moves from false to true.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	ActorID   *uint            `json:"actor_id,omitempty"`
	Actor     *User            `gorm:"foreignKey:ActorID" json:"from,omitempty"`
	PostID    *uint            `json:"post_id,omitempty"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
