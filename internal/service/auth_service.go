// Package service implements the business operations behind the HTTP API.
package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/repository"
	"socialnest/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig tunes signup and login.
type AuthConfig struct {
	Reserved       validation.ReservedNames
	PasswordPolicy validation.PasswordPolicy
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

type AuthService struct {
	store repository.Store
	cfg   AuthConfig
}

func NewAuthService(store repository.Store, cfg AuthConfig) *AuthService {
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if cfg.PasswordPolicy == "" {
		cfg.PasswordPolicy = validation.PolicyBasic
	}
	return &AuthService{store: store, cfg: cfg}
}

type SignupInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

// Signup creates a user. Usernames are unique ignoring case.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password, s.cfg.PasswordPolicy); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if s.cfg.Reserved.Contains(username) {
		return nil, models.NewReservedUsernameError(username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.HashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, Password: string(hash), Role: models.RoleUser}
	err = runAtomic(ctx, s.store, "Signup", func(tx repository.Store) error {
		existing, err := tx.Users().FindByFoldedUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewDuplicateUsernameError(username)
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Login matches the username exactly. Any mismatch yields InvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewInvalidCredentialsError()
		}
		return nil, err
	}

	if isBcryptHash(user.Password) {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
			return nil, models.NewInvalidCredentialsError()
		}
		return user, nil
	}

	// Legacy records hold the password verbatim.
	if user.Password == "" || subtle.ConstantTimeCompare([]byte(user.Password), []byte(in.Password)) != 1 {
		return nil, models.NewInvalidCredentialsError()
	}
	s.upgradeLegacyPassword(ctx, user, in.Password)
	return user, nil
}

func (s *AuthService) upgradeLegacyPassword(ctx context.Context, user *models.User, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.HashCost)
	if err == nil {
		err = s.store.Users().SetPassword(ctx, user.ID, string(hash))
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "legacy password upgrade failed",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
		return
	}
	user.Password = string(hash)
}

// HashPassword hashes password with the configured cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.HashCost)
	return string(hash), err
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
