// Package bootstrap connects the runtime dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and ensures the root
// admin exists. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	users := service.NewUserService(repository.NewStore(db))
	if err := EnsureRootAdmin(ctx, cfg, users); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("failed to bootstrap root admin: %w", err)
	}

	return db, rdb, nil
}

// EnsureRootAdmin creates the configured root admin, or promotes the
// existing account with that username. Nothing happens unless both email
// and password are configured.
func EnsureRootAdmin(ctx context.Context, cfg *config.Config, users *service.UserService) error {
	email := strings.ToLower(strings.TrimSpace(cfg.RootAdminEmail))
	username := strings.TrimSpace(cfg.RootAdminUsername)
	if email == "" || cfg.RootAdminPassword == "" {
		return nil
	}
	if username == "" {
		username = "admin"
	}

	existing, err := users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return nil
		}
		if _, err := users.SetRole(ctx, username, models.RoleAdmin); err != nil {
			return err
		}
		middleware.Logger.InfoContext(ctx, "root admin promoted", "username", username)
		return nil
	case !models.IsNotFoundError(err):
		return err
	}

	if _, err := users.CreateUser(ctx, service.CreateUserInput{
		Email:     email,
		Username:  username,
		FirstName: "Root",
		LastName:  "Admin",
		Password:  cfg.RootAdminPassword,
		Role:      models.RoleAdmin,
	}); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "root admin created", "username", username, "email", email)
	return nil
}
