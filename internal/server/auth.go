package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"postboard/internal/featureflags"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "postboard-api"
	tokenAudience = "postboard-client"
)

var errInvalidToken = errors.New("invalid token")

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

// bearerToken returns the token from the Authorization header.
func bearerToken(c *fiber.Ctx) string {
	if parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// websocketToken also accepts the "token" query parameter sent by
// websocket clients.
func websocketToken(c *fiber.Ctx) string {
	if token := bearerToken(c); token != "" {
		return token
	}
	return c.Query("token")
}

// parseToken validates signature, issuer, audience and expiry and returns
// the user id and claims.
func (s *Server) parseToken(tokenString string) (uint, jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(_ *jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, nil, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, nil, errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, nil, errInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, nil, errInvalidToken
	}
	return uint(userID), claims, nil
}

func (s *Server) isRevoked(c *fiber.Ctx, claims jwt.MapClaims) bool {
	jti, _ := claims["jti"].(string)
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(c.UserContext(), blacklistKey(jti)).Result()
	return err == nil && n > 0
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, claims, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}
		if s.isRevoked(c, claims) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("userID", userID)
		c.Locals("claims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

// AdminRequired rejects non-admin users with 403. It must follow
// AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.userService.GetUser(c.UserContext(), actorID(c))
		if err != nil {
			if models.IsNotFoundError(err) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Account no longer exists"))
			}
			return s.fail(c, err)
		}
		if !user.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewPermissionError("Admin access required"))
		}
		return c.Next()
	}
}

// optionalUserID resolves the viewer when a valid token is present but
// never rejects the request.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	return s.viewerFromToken(c, bearerToken(c))
}

func (s *Server) viewerFromToken(c *fiber.Ctx, tokenString string) (uint, bool) {
	if tokenString == "" {
		return 0, false
	}
	userID, claims, err := s.parseToken(tokenString)
	if err != nil || s.isRevoked(c, claims) {
		return 0, false
	}
	return userID, true
}

// generateToken issues a signed token for user.
func (s *Server) generateToken(user *models.User) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(s.config.JWTTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

type signupRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a regular user account. Disabled when the public_signup flag is off.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "Signup request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.PublicSignup) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionError("Signup is disabled"))
	}

	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	user, err := s.userService.CreateUser(c.UserContext(), service.CreateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      models.RoleUser,
	})
	if err != nil {
		return s.fail(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return s.fail(c, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.fail(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return s.fail(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token
// until it would have expired anyway.
func (s *Server) Logout(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Token revocation is unavailable",
		})
	}

	claims, _ := c.Locals("claims").(jwt.MapClaims)
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if jti == "" || err != nil || exp == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token cannot be revoked"))
	}

	ttl := time.Until(exp.Time)
	if ttl > 0 {
		if err := s.redis.Set(c.UserContext(), blacklistKey(jti), "1", ttl).Err(); err != nil {
			return s.fail(c, models.NewInternalError(err))
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
