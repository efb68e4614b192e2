package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"socialnest/internal/models"
	"socialnest/internal/repository"
)

const (
	maxBioLen      = 500
	maxFilenameLen = 255
	profilePosts   = 50
)

type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// Profile is a user page: the user, their edges and their recent posts.
type Profile struct {
	User      models.User          `json:"user"`
	Followers []models.UserSummary `json:"followers"`
	Following []models.UserSummary `json:"following"`
	Posts     []models.Post        `json:"posts"`
	// IsFollowing is set when the viewer follows User.
	IsFollowing bool `json:"is_following"`
}

// Profile returns the public page of username. viewerID 0 means anonymous.
func (s *UserService) Profile(ctx context.Context, username string, viewerID uint) (*Profile, error) {
	users := s.store.Users()
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	followers, err := s.store.Follows().Followers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.store.Follows().Following(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.Posts().ListByUser(ctx, user.ID, profilePosts)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		User:      *user,
		Followers: summaries(followers),
		Following: summaries(following),
		Posts:     posts,
	}
	if viewerID != 0 && viewerID != user.ID {
		p.IsFollowing, err = s.store.Follows().IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}

type UpdateProfileInput struct {
	UserID     uint
	Bio        *string
	ProfilePic *string
}

// UpdateProfile changes only the provided fields.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Bio != nil && utf8.RuneCountInString(*in.Bio) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 500 characters)")
	}
	if in.ProfilePic != nil {
		pic := strings.TrimSpace(*in.ProfilePic)
		if err := validateFilename(pic); err != nil {
			return nil, err
		}
		in.ProfilePic = &pic
	}

	var user *models.User
	err := runAtomic(ctx, s.store, "UpdateProfile", func(tx repository.Store) error {
		var err error
		user, err = tx.Users().UpdateProfile(ctx, in.UserID, in.Bio, in.ProfilePic)
		return err
	})
	return user, err
}

// validateFilename accepts a bare file name reference or the empty string.
func validateFilename(name string) error {
	if len(name) > maxFilenameLen {
		return models.NewValidationError("File name too long")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return models.NewValidationError("File name must not contain a path")
	}
	return nil
}

type UserList struct {
	Users []models.UserSummary `json:"users"`
	Total int64                `json:"total"`
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) (*UserList, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.store.Users().List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Users().Count(ctx)
	if err != nil {
		return nil, err
	}
	return &UserList{Users: summaries(users), Total: total}, nil
}

type SetRoleInput struct {
	ActorID  uint
	Username string
	Role     string
}

// SetRole changes the role of a user. Only admins may do it.
func (s *UserService) SetRole(ctx context.Context, in SetRoleInput) (*models.User, error) {
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, models.NewValidationError("Role must be user, moderator or admin")
	}

	var target *models.User
	err := runAtomic(ctx, s.store, "SetRole", func(tx repository.Store) error {
		actor, err := tx.Users().GetByID(ctx, in.ActorID)
		if err != nil {
			return err
		}
		if actor.Role != models.RoleAdmin {
			return models.NewForbiddenError("Only admins can change roles")
		}
		target, err = tx.Users().GetByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		if err := tx.Users().SetRole(ctx, target.ID, role); err != nil {
			return err
		}
		target.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}
