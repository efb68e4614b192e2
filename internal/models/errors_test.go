package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("no session"), fiber.StatusUnauthorized},
		{"invalid credentials", NewInvalidCredentialsError(), fiber.StatusUnauthorized},
		{"forbidden", NewForbiddenError("nope"), fiber.StatusForbidden},
		{"not found", NewNotFoundError("Post", 7), fiber.StatusNotFound},
		{"duplicate", NewDuplicateUsernameError("alice"), fiber.StatusConflict},
		{"reserved", NewReservedUsernameError("admin"), fiber.StatusConflict},
		{"internal", NewInternalError(errors.New("disk")), fiber.StatusInternalServerError},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NewForbiddenError("nope")), fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("signup: %w", NewDuplicateUsernameError("Alice"))
	assert.True(t, HasCode(err, CodeDuplicateUsername))
	assert.False(t, HasCode(err, CodeReservedUsername))
	assert.False(t, HasCode(errors.New("x"), CodeNotFound))
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Post 42 not found", NewNotFoundError("Post", 42).Error())
	assert.Equal(t, "Internal server error: disk full", NewInternalError(errors.New("disk full")).Error())
}

func TestRespondWithAppError(t *testing.T) {
	app := fiber.New()
	app.Get("/missing", func(c *fiber.Ctx) error {
		return RespondWithAppError(c, NewNotFoundError("User", "ghost"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadGateway, errors.New("upstream"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, CodeNotFound, body.Code)
	assert.Equal(t, "User ghost not found", body.Error)

	resp, err = app.Test(httptest.NewRequest("GET", "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	body = ErrorResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "upstream", body.Error)
	assert.Empty(t, body.Code)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Moderator ")
	assert.True(t, ok)
	assert.Equal(t, RoleModerator, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}
