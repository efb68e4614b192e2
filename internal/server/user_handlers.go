package server

import (
	"socialnest/internal/models"
	"socialnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profile/:username
// @Summary Get a user profile
// @Description Returns the user, followers, following and recent posts. Usernames match exactly.
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.userService.Profile(c.UserContext(), c.Params("username"), s.optionalUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

type editProfileRequest struct {
	Bio        *string `json:"bio" form:"bio"`
	ProfilePic *string `json:"profile_pic" form:"profile_pic"`
}

// EditProfile handles POST /api/edit_profile
// @Summary Edit own profile
// @Description Only the provided fields change
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{bio=string,profile_pic=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /edit_profile [post]
func (s *Server) EditProfile(c *fiber.Ctx) error {
	var req editProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:     currentUserID(c),
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// GetUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} service.UserList
// @Security BearerAuth
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	page := parsePagination(c)
	list, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(list)
}

// SetUserRole handles PUT /api/users/:username/role
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param request body object{role=string} true "New role"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{username}/role [put]
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	var req struct {
		Role string `json:"role" form:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.SetRole(c.UserContext(), service.SetRoleInput{
		ActorID:  currentUserID(c),
		Username: c.Params("username"),
		Role:     req.Role,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// GetFeatureFlags handles GET /api/feature-flags
// @Summary Evaluated feature flags for the session user
// @Tags users
// @Produce json
// @Success 200 {object} map[string]bool
// @Security BearerAuth
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(s.featureFlags.Snapshot(currentUserID(c)))
}
