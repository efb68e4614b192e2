package server

import (
	"socialnest/internal/models"
	"socialnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/post
// @Summary Create a post
// @Description Requires content or an image file name
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{content=string,image=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /post [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content" form:"content"`
		Image   string `json:"image" form:"image"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:  currentUserID(c),
		Content: req.Content,
		Image:   req.Image,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetFeed handles GET /api/feed
// @Summary Latest posts
// @Tags posts
// @Produce json
// @Param limit query int false "Number of posts (max 100)"
// @Success 200 {array} models.Post
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	posts, err := s.postService.Feed(c.UserContext(), parsePagination(c).Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// ToggleLike handles GET /api/like/:post_id
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Param post_id path int true "Post ID"
// @Success 200 {object} service.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /like/{post_id} [get]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "post_id")
	if err != nil {
		return nil
	}
	res, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// CreateComment handles POST /api/comment/:post_id
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Param post_id path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comment/{post_id} [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "post_id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.postService.Comment(c.UserContext(), service.CommentInput{
		UserID:  currentUserID(c),
		PostID:  id,
		Content: req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeletePost handles GET /api/delete_post/:post_id
// @Summary Delete a post
// @Description Authors may delete their posts; moderators may delete non-admin posts; admins may delete any post
// @Tags posts
// @Produce json
// @Param post_id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /delete_post/{post_id} [get]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "post_id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}
