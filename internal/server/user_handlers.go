package server

import (
	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), actorID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:username and returns the public
// view of the account.
// @Summary Public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(user.Summary())
}

// GetFeatureFlags returns the flags evaluated for the current viewer.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)
	return c.JSON(fiber.Map{
		"flags": s.featureFlags.Snapshot(viewerID),
	})
}

// GetOverview handles GET /api/admin/overview
// @Summary Table counts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Overview
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/overview [get]
func (s *Server) GetOverview(c *fiber.Ctx) error {
	overview, err := s.userService.Overview(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(overview)
}

// ListUsers handles GET /api/admin/users
// @Summary List accounts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(users)
}

type createUserRequest struct {
	signupRequest
	Role models.Role `json:"usertype"`
}

// CreateUser handles POST /api/admin/users
// @Summary Create an account of any role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createUserRequest true "Account"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	user, err := s.userService.CreateUser(c.UserContext(), service.CreateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}
