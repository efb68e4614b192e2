package service

import (
	"context"
	"testing"

	"socialnest/internal/models"
	"socialnest/internal/repository"
	"socialnest/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignupThenLogin(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		auth := newAuth(store)

		before, err := store.Users().Count(ctx)
		require.NoError(t, err)

		u, err := auth.Signup(ctx, SignupInput{Username: "alice", Password: "pw1"})
		require.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.Equal(t, models.RoleUser, u.Role)
		assert.NotEqual(t, "pw1", u.Password)

		after, err := store.Users().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+1, after)

		got, err := auth.Login(ctx, LoginInput{Username: "alice", Password: "pw1"})
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = auth.Login(ctx, LoginInput{Username: "alice", Password: "wrong"})
		assert.True(t, models.HasCode(err, models.CodeInvalidCredentials))

		_, err = auth.Login(ctx, LoginInput{Username: "ALICE", Password: "pw1"})
		assert.True(t, models.HasCode(err, models.CodeInvalidCredentials))

		_, err = auth.Login(ctx, LoginInput{Username: "nobody", Password: "pw1"})
		assert.True(t, models.HasCode(err, models.CodeInvalidCredentials))
	})
}

func TestSignup_DuplicateAnyCase(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		auth := newAuth(store)

		_, err := auth.Signup(ctx, SignupInput{Username: "Alice", Password: "pw"})
		require.NoError(t, err)

		for _, name := range []string{"Alice", "alice", "ALICE"} {
			_, err = auth.Signup(ctx, SignupInput{Username: name, Password: "pw"})
			assert.True(t, models.HasCode(err, models.CodeDuplicateUsername), name)
		}

		n, err := store.Users().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestSignup_Rejects(t *testing.T) {
	store := newDocumentStore(t)
	auth := newAuth(store)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SignupInput
		code string
	}{
		{"reserved", SignupInput{Username: "Admin", Password: "pw"}, models.CodeReservedUsername},
		{"short username", SignupInput{Username: "ab", Password: "pw"}, models.CodeValidation},
		{"bad characters", SignupInput{Username: "a b c", Password: "pw"}, models.CodeValidation},
		{"empty password", SignupInput{Username: "carol", Password: ""}, models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Signup(ctx, tt.in)
			assert.True(t, models.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestSignup_StrongPolicy(t *testing.T) {
	store := newDocumentStore(t)
	auth := NewAuthService(store, AuthConfig{PasswordPolicy: validation.PolicyStrong, HashCost: bcrypt.MinCost})

	_, err := auth.Signup(context.Background(), SignupInput{Username: "carol", Password: "short"})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = auth.Signup(context.Background(), SignupInput{Username: "carol", Password: "Correct-Horse-42"})
	assert.NoError(t, err)
}

func TestLogin_UpgradesLegacyPassword(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		legacy := &models.User{Username: "olduser", Password: "plain-secret"}
		require.NoError(t, store.Users().Create(ctx, legacy))

		auth := newAuth(store)
		_, err := auth.Login(ctx, LoginInput{Username: "olduser", Password: "nope"})
		assert.True(t, models.HasCode(err, models.CodeInvalidCredentials))

		_, err = auth.Login(ctx, LoginInput{Username: "olduser", Password: "plain-secret"})
		require.NoError(t, err)

		stored, err := store.Users().GetByUsername(ctx, "olduser")
		require.NoError(t, err)
		assert.True(t, isBcryptHash(stored.Password))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("plain-secret")))

		_, err = auth.Login(ctx, LoginInput{Username: "olduser", Password: "plain-secret"})
		assert.NoError(t, err)
	})
}
