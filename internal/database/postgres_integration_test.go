package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"postboard/internal/config"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// openTestPostgres connects to TEST_DATABASE_URL, a disposable postgres
// database, and skips the test when it is not set.
func openTestPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	sqlDB, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func postgresTestConfig() *config.Config {
	return &config.Config{DBDriver: "postgres", DBSchemaMode: "hybrid", Env: "test"}
}

// TestPostgresMigrationsRoundTrip runs the embedded SQL against a real
// database.
func TestPostgresMigrationsRoundTrip(t *testing.T) {
	db := openTestPostgres(t)
	ctx := context.Background()

	require.NoError(t, ApplySchema(ctx, db, postgresTestConfig()))

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(GetMigrations()))

	for i := len(applied) - 1; i >= 0; i-- {
		_, err := RollbackLatest(ctx, db)
		require.NoError(t, err)
	}
	assert.False(t, db.Migrator().HasTable("posts"))
}

// TestPostgresToggleLikeConcurrent hammers one post from several users.
// Each user toggles an even number of times, so every user must see
// exactly half of their toggles report liked and the post ends unliked.
func TestPostgresToggleLikeConcurrent(t *testing.T) {
	db := openTestPostgres(t)
	ctx := context.Background()
	require.NoError(t, ApplySchema(ctx, db, postgresTestConfig()))

	suffix := strconv.FormatInt(time.Now().UnixNano(), 36)
	users := make([]*models.User, 4)
	for i := range users {
		u := &models.User{
			Email:     fmt.Sprintf("liker%d-%s@example.com", i, suffix),
			Username:  fmt.Sprintf("liker%d_%s", i, suffix),
			FirstName: "Li",
			LastName:  "Ker",
			Password:  "unused",
			Role:      models.RoleUser,
		}
		require.NoError(t, db.Create(u).Error)
		users[i] = u
	}
	post := &models.Post{UserID: users[0].ID, Text: "contended"}
	require.NoError(t, db.Create(post).Error)
	t.Cleanup(func() {
		db.Where("post_id = ?", post.ID).Delete(&models.Like{})
		db.Unscoped().Delete(post)
		for _, u := range users {
			db.Unscoped().Delete(u)
		}
	})

	likes := service.NewLikeService(repository.NewStore(db))

	const togglesPerUser = 10
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		liked = make(map[uint]int)
		errs  = make(chan error, len(users)*togglesPerUser)
	)
	for _, u := range users {
		for i := 0; i < togglesPerUser; i++ {
			wg.Add(1)
			go func(userID uint) {
				defer wg.Done()
				res, err := likes.ToggleLike(ctx, userID, post.ID)
				if err != nil {
					errs <- err
					return
				}
				assert.LessOrEqual(t, res.Likes, int64(len(users)))
				if res.Liked {
					mu.Lock()
					liked[userID]++
					mu.Unlock()
				}
			}(u.ID)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, u := range users {
		assert.Equal(t, togglesPerUser/2, liked[u.ID], "likes reported for user %d", u.ID)
	}

	var remaining int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}
