package models

import "time"

// Message is a direct message between two users. Messages are immutable.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index:idx_message_pair" json:"sender_id"`
	ReceiverID uint      `gorm:"not null;index:idx_message_pair" json:"receiver_id"`
	Sender     User      `gorm:"foreignKey:SenderID" json:"sender"`
	Receiver   User      `gorm:"foreignKey:ReceiverID" json:"receiver"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
