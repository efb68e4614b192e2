// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// Role is the privilege level of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole returns the Role named by s, case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleModerator:
		return RoleModerator, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User represents an account. Usernames are unique case-insensitively
// (UsernameKey) but are stored and matched at login with their original case.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	UsernameKey string    `gorm:"uniqueIndex;not null" json:"-"`
	Password    string    `gorm:"not null" json:"-"`
	Bio         string    `json:"bio"`
	ProfilePic  string    `json:"profile_pic,omitempty"`
	Role        Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FoldUsername returns the key used for case-insensitive username checks.
func FoldUsername(username string) string {
	return strings.ToLower(username)
}

// IsPrivileged reports whether the user holds an elevated role.
func (u *User) IsPrivileged() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// UserSummary is the compact form of a user embedded in other payloads.
type UserSummary struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

// Summary returns the compact form of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfilePic: u.ProfilePic}
}
