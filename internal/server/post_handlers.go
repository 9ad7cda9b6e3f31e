package server

import (
	"postboard/internal/notifications"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{text=string} true "Post body"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		ActorID: actorID(c),
		Text:    req.Text,
	})
	if err != nil {
		return s.fail(c, err)
	}

	s.publishEvent(notifications.EventPostCreated, map[string]interface{}{
		"post_id":    post.ID,
		"author_id":  post.UserID,
		"created_at": nowRFC3339(),
	})

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	viewerID, _ := s.optionalUserID(c)

	posts, err := s.postService.ListPosts(c.UserContext(), viewerID, page.Limit, page.Offset)
	if err != nil {
		return s.fail(c, err)
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
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	post, err := s.postService.GetPost(c.UserContext(), id, viewerID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post with its comments and likes
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		ActorID: actorID(c),
		PostID:  id,
	}); err != nil {
		return s.fail(c, err)
	}

	s.publishEvent(notifications.EventPostDeleted, map[string]interface{}{
		"post_id":    id,
		"deleted_by": actorID(c),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.ToggleLikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.likeService.ToggleLike(c.UserContext(), actorID(c), id)
	if err != nil {
		return s.fail(c, err)
	}

	s.publishEvent(notifications.EventPostLikeToggled, map[string]interface{}{
		"post_id": result.PostID,
		"user_id": actorID(c),
		"likes":   result.Likes,
		"liked":   result.Liked,
	})

	return c.JSON(result)
}

// GetUserPosts handles GET /api/users/:username/posts
// @Summary List a user's posts, oldest first
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	posts, err := s.postService.ListPostsByUser(c.UserContext(), c.Params("username"), viewerID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(posts)
}
