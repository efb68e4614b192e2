package models

import "time"

// Post represents a post. Likes and Comments are loaded with their users;
// LikedBy, LikesCount and CommentsCount are derived by FillDerived.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID" json:"author"`
	Content       string    `gorm:"type:text" json:"content"`
	Image         string    `json:"image,omitempty"`
	Likes         []Like    `gorm:"foreignKey:PostID" json:"-"`
	Comments      []Comment `gorm:"foreignKey:PostID" json:"comments"`
	LikedBy       []string  `gorm:"-" json:"liked_by"`
	LikesCount    int       `gorm:"-" json:"likes_count"`
	CommentsCount int       `gorm:"-" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// FillDerived computes the serialized like/comment fields from the loaded relations.
func (p *Post) FillDerived() {
	p.LikedBy = make([]string, 0, len(p.Likes))
	for _, l := range p.Likes {
		p.LikedBy = append(p.LikedBy, l.User.Username)
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	p.LikesCount = len(p.Likes)
	p.CommentsCount = len(p.Comments)
}

// LikedByUser reports whether userID is in the post's like set.
func (p *Post) LikedByUser(userID uint) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post;index" json:"post_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment on a post. Comments are append-only.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
