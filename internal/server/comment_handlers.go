package server

import (
	"postboard/internal/notifications"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment body"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		ActorID: actorID(c),
		PostID:  postID,
		Text:    req.Text,
	})
	if err != nil {
		return s.fail(c, err)
	}

	s.publishEvent(notifications.EventCommentCreated, map[string]interface{}{
		"post_id":    comment.PostID,
		"comment_id": comment.ID,
		"author_id":  comment.UserID,
		"created_at": nowRFC3339(),
	})

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List comments on a post, oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(comments)
}

// DeleteComment handles DELETE /api/comments/:id. The comment author and
// the author of the parent post may delete.
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		ActorID:   actorID(c),
		CommentID: id,
	})
	if err != nil {
		return s.fail(c, err)
	}

	s.publishEvent(notifications.EventCommentDeleted, map[string]interface{}{
		"post_id":    comment.PostID,
		"comment_id": comment.ID,
		"deleted_by": actorID(c),
	})

	return c.SendStatus(fiber.StatusNoContent)
}
