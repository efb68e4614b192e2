package server

import (
	"socialnest/internal/models"
	"socialnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Follow handles GET /api/follow/:username
// @Summary Follow a user
// @Description Following someone already followed is a no-op
// @Tags social
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} service.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follow/{username} [get]
func (s *Server) Follow(c *fiber.Ctx) error {
	res, err := s.followService.Follow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// GetConversation handles GET /api/dm/:username
// @Summary Direct messages with a user
// @Description Oldest first, last N messages
// @Tags social
// @Produce json
// @Param username path string true "Username"
// @Param limit query int false "Number of messages"
// @Success 200 {array} models.Message
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dm/{username} [get]
func (s *Server) GetConversation(c *fiber.Ctx) error {
	msgs, err := s.messageService.Conversation(c.UserContext(), currentUserID(c), c.Params("username"), parsePagination(c).Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(msgs)
}

// SendMessage handles POST /api/dm/:username
// @Summary Send a direct message
// @Tags social
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param request body object{content=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dm/{username} [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	msg, err := s.messageService.Send(c.UserContext(), service.SendMessageInput{
		SenderID: currentUserID(c),
		To:       c.Params("username"),
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetNotifications handles GET /api/notifications
// @Summary List notifications and mark them read
// @Description Returns notifications as they were before the call, newest first
// @Tags notifications
// @Produce json
// @Param limit query int false "Number of notifications"
// @Success 200 {array} models.Notification
// @Security BearerAuth
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.notificationService.View(c.UserContext(), currentUserID(c), parsePagination(c).Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(list)
}

// GetUnreadCount handles GET /api/notifications/unread-count
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} object{unread=int}
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	n, err := s.notificationService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"unread": n})
}

// CreateSystemNotification handles POST /api/notifications
// @Summary Send a system notification
// @Tags admin
// @Accept json
// @Produce json
// @Param request body object{username=string,message=string} true "Recipient and message"
// @Success 201 {object} models.Notification
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications [post]
func (s *Server) CreateSystemNotification(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Message  string `json:"message" form:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	n, err := s.notificationService.SendSystem(c.UserContext(), service.SystemNotificationInput{
		ActorID:   currentUserID(c),
		Recipient: req.Username,
		Message:   req.Message,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}
