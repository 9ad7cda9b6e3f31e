package bootstrap

import (
	"context"
	"testing"

	"postboard/internal/config"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"
	"postboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureRootAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("unconfigured is a no-op", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		users := service.NewUserService(repository.NewStore(db))

		require.NoError(t, EnsureRootAdmin(ctx, &config.Config{}, users))
		n, err := repository.NewStore(db).Users().Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("creates and is idempotent", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		users := service.NewUserService(repository.NewStore(db))
		cfg := &config.Config{
			RootAdminEmail:    " Root@Example.com ",
			RootAdminUsername: "root",
			RootAdminPassword: "changeme",
		}

		require.NoError(t, EnsureRootAdmin(ctx, cfg, users))
		require.NoError(t, EnsureRootAdmin(ctx, cfg, users))

		root, err := users.GetByUsername(ctx, "root")
		require.NoError(t, err)
		assert.True(t, root.IsAdmin())
		assert.Equal(t, "root@example.com", root.Email)

		_, err = users.Authenticate(ctx, "root@example.com", "changeme")
		assert.NoError(t, err)
	})

	t.Run("promotes an existing account", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		users := service.NewUserService(repository.NewStore(db))
		testutil.CreateUser(t, db, "boss", models.RoleUser)

		require.NoError(t, EnsureRootAdmin(ctx, &config.Config{
			RootAdminEmail:    "boss@example.com",
			RootAdminUsername: "boss",
			RootAdminPassword: "changeme",
		}, users))

		boss, err := users.GetByUsername(ctx, "boss")
		require.NoError(t, err)
		assert.True(t, boss.IsAdmin())
	})
}
