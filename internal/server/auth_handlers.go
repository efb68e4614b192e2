package server

import (
	"errors"
	"time"

	"socialnest/internal/cache"
	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Signup handles POST /api/signup
// @Summary User signup
// @Description Register a new account and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Signup request"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return s.startSession(c, fiber.StatusCreated, user)
}

// Login handles POST /api/login
// @Summary User login
// @Description Authenticate with an exact-case username and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return s.startSession(c, fiber.StatusOK, user)
}

func (s *Server) startSession(c *fiber.Ctx, status int, user *models.User) error {
	token, exp, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, token, exp)
	return c.Status(status).JSON(SessionResponse{Token: token, ExpiresAt: exp, User: *user})
}

// Logout handles GET /api/logout
// @Summary Logout
// @Description Revoke the current session token and clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /logout [get]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals(localsTokenID).(string)
	exp, _ := c.Locals(localsTokenExp).(time.Time)

	if jti != "" {
		err := cache.RevokeToken(c.UserContext(), jti, time.Until(exp))
		switch {
		case errors.Is(err, cache.ErrUnavailable):
			middleware.Logger.WarnContext(c.UserContext(), "logout without redis, token stays valid until expiry")
		case err != nil:
			middleware.Logger.ErrorContext(c.UserContext(), "failed to revoke token", "error", err)
		}
	}

	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}
