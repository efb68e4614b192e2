package models

import "time"

// Follow is a directed edge: FollowerID follows FollowedID.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"followed_id"`
	Follower   User      `gorm:"foreignKey:FollowerID" json:"-"`
	Followed   User      `gorm:"foreignKey:FollowedID" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
