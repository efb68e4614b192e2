package service

import "socialnest/internal/models"

// deleteRule decides whether a role may delete a post written by author.
type deleteRule func(author *models.User) bool

// deleteOthersPosts lists the roles that may delete posts they did not write.
// Roles without an entry may only delete their own posts.
var deleteOthersPosts = map[models.Role]deleteRule{
	models.RoleAdmin: func(*models.User) bool { return true },
	models.RoleModerator: func(author *models.User) bool {
		return author.Role != models.RoleAdmin
	},
}

// CanDeletePost reports whether actor may delete a post written by author.
func CanDeletePost(actor, author *models.User) bool {
	if actor == nil || author == nil {
		return false
	}
	if actor.ID == author.ID {
		return true
	}
	rule, ok := deleteOthersPosts[actor.Role]
	return ok && rule(author)
}
