package seed

import (
	"context"
	"testing"

	"postboard/internal/repository"
	"postboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()

	res, err := NewSeeder(store, 42).Run(ctx, Options{
		Users:           3,
		PostsPerUser:    2,
		CommentsPerPost: 1,
		LikeChance:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, &Result{Users: 3, Posts: 6, Comments: 6, Likes: 18}, res)

	posts, err := store.Posts().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), posts)

	likes, err := store.Likes().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(18), likes)

	users, err := store.Users().List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for _, u := range users {
		assert.GreaterOrEqual(t, len([]rune(u.FirstName)), 2)
		assert.GreaterOrEqual(t, len([]rune(u.Username)), 2)
	}
}

func TestPadName(t *testing.T) {
	assert.Equal(t, "Ox", padName("O"))
	assert.Equal(t, "Ada", padName("Ada"))
}
