package service

import (
	"context"
	"testing"

	"postboard/internal/models"
	"postboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost(t *testing.T) {
	store, db := newStore(t)
	svc := NewPostService(store)
	ctx := context.Background()
	u1 := testutil.CreateUser(t, db, "u1", models.RoleUser)

	post, err := svc.CreatePost(ctx, CreatePostInput{ActorID: u1.ID, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, u1.ID, post.UserID)
	assert.Equal(t, "hello", post.Text)
	require.NotNil(t, post.Author)
	assert.Equal(t, "u1", post.Author.Username)

	posts, err := svc.ListPostsByUser(ctx, "u1", 0)
	require.NoError(t, err)
	var seen int
	for _, p := range posts {
		if p.ID == post.ID {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	store, db := newStore(t)
	svc := NewPostService(store)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "writer", models.RoleUser)

	tests := []struct {
		name     string
		input    CreatePostInput
		wantCode string
	}{
		{"empty text", CreatePostInput{ActorID: u.ID, Text: ""}, models.CodeValidation},
		{"whitespace text", CreatePostInput{ActorID: u.ID, Text: " \n\t "}, models.CodeValidation},
		{"unknown author", CreatePostInput{ActorID: 999, Text: "hi"}, models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, tt.input)
			assertCode(t, err, tt.wantCode)
		})
	}

	n, err := store.Posts().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostService_CreatePost_KeepsTextVerbatim(t *testing.T) {
	store, db := newStore(t)
	svc := NewPostService(store)
	u := testutil.CreateUser(t, db, "verbatim", models.RoleUser)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{ActorID: u.ID, Text: "  padded  "})
	require.NoError(t, err)
	assert.Equal(t, "  padded  ", post.Text)
}

func TestPostService_ListPostsByUser_InsertionOrder(t *testing.T) {
	store, db := newStore(t)
	svc := NewPostService(store)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.RoleUser)

	var want []uint
	for _, text := range []string{"one", "two", "three"} {
		p, err := svc.CreatePost(ctx, CreatePostInput{ActorID: alice.ID, Text: text})
		require.NoError(t, err)
		want = append(want, p.ID)
		_, err = svc.CreatePost(ctx, CreatePostInput{ActorID: bob.ID, Text: "bob " + text})
		require.NoError(t, err)
	}

	posts, err := svc.ListPostsByUser(ctx, "alice", 0)
	require.NoError(t, err)
	var got []uint
	for _, p := range posts {
		got = append(got, p.ID)
		assert.Equal(t, alice.ID, p.UserID)
	}
	assert.Equal(t, want, got)

	_, err = svc.ListPostsByUser(ctx, "nobody", 0)
	assertMessage(t, err, models.CodeNotFound, msgUsernameMissing)
}

func TestPostService_DeletePost(t *testing.T) {
	store, db := newStore(t)
	svc := NewPostService(store)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	other := testutil.CreateUser(t, db, "other", models.RoleUser)
	admin := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	post := testutil.CreatePost(t, db, owner.ID, "mine")

	t.Run("non-author is refused and post stays", func(t *testing.T) {
		err := svc.DeletePost(ctx, DeletePostInput{ActorID: other.ID, PostID: post.ID})
		assertMessage(t, err, models.CodeForbidden, msgPostForbidden)

		got, err := svc.GetPost(ctx, post.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, "mine", got.Text)
	})

	t.Run("admins get no override", func(t *testing.T) {
		err := svc.DeletePost(ctx, DeletePostInput{ActorID: admin.ID, PostID: post.ID})
		assert.True(t, models.IsPermissionError(err))
	})

	t.Run("missing post", func(t *testing.T) {
		err := svc.DeletePost(ctx, DeletePostInput{ActorID: owner.ID, PostID: 4242})
		assertMessage(t, err, models.CodeNotFound, msgPostMissing)
	})

	t.Run("author deletes", func(t *testing.T) {
		require.NoError(t, svc.DeletePost(ctx, DeletePostInput{ActorID: owner.ID, PostID: post.ID}))
		_, err := svc.GetPost(ctx, post.ID, 0)
		assert.True(t, models.IsNotFoundError(err))

		err = svc.DeletePost(ctx, DeletePostInput{ActorID: owner.ID, PostID: post.ID})
		assert.True(t, models.IsNotFoundError(err))
	})
}

func TestPostService_DeletePost_CascadesChildren(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()
	posts := NewPostService(store)
	comments := NewCommentService(store)
	likes := NewLikeService(store)

	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	fan := testutil.CreateUser(t, db, "fan", models.RoleUser)
	doomed := testutil.CreatePost(t, db, owner.ID, "doomed")
	kept := testutil.CreatePost(t, db, owner.ID, "kept")

	for _, p := range []*models.Post{doomed, kept} {
		_, err := comments.CreateComment(ctx, CreateCommentInput{ActorID: fan.ID, PostID: p.ID, Text: "nice"})
		require.NoError(t, err)
		_, err = likes.ToggleLike(ctx, fan.ID, p.ID)
		require.NoError(t, err)
	}

	require.NoError(t, posts.DeletePost(ctx, DeletePostInput{ActorID: owner.ID, PostID: doomed.ID}))

	var liveComments, likeRows int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", doomed.ID).Count(&liveComments).Error)
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", doomed.ID).Count(&likeRows).Error)
	assert.Zero(t, liveComments)
	assert.Zero(t, likeRows)

	keptPost, err := posts.GetPost(ctx, kept.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), keptPost.CommentsCount)
	assert.Equal(t, int64(1), keptPost.LikesCount)
	assert.True(t, keptPost.Liked)
}

func TestPostService_ListPosts(t *testing.T) {
	store, db := newStore(t)
	svc := NewPostService(store)
	u := testutil.CreateUser(t, db, "feed", models.RoleUser)
	first := testutil.CreatePost(t, db, u.ID, "a")
	testutil.CreatePost(t, db, u.ID, "b")

	posts, err := svc.ListPosts(context.Background(), 0, 1, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, first.ID, posts[0].ID)
}
