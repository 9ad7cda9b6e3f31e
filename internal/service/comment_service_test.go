package service

import (
	"context"
	"testing"

	"postboard/internal/models"
	"postboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateComment(t *testing.T) {
	store, db := newStore(t)
	svc := NewCommentService(store)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "commenter", models.RoleUser)
	post := testutil.CreatePost(t, db, u.ID, "post")

	tests := []struct {
		name        string
		input       CreateCommentInput
		wantCode    string
		wantMessage string
	}{
		{
			name:        "empty text",
			input:       CreateCommentInput{ActorID: u.ID, PostID: post.ID, Text: ""},
			wantCode:    models.CodeValidation,
			wantMessage: msgCommentEmpty,
		},
		{
			name:        "empty text wins over missing post",
			input:       CreateCommentInput{ActorID: u.ID, PostID: 999, Text: "   "},
			wantCode:    models.CodeValidation,
			wantMessage: msgCommentEmpty,
		},
		{
			name:        "missing post",
			input:       CreateCommentInput{ActorID: u.ID, PostID: 999, Text: "hi"},
			wantCode:    models.CodeNotFound,
			wantMessage: msgPostMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateComment(ctx, tt.input)
			assertMessage(t, err, tt.wantCode, tt.wantMessage)
		})
	}

	n, err := store.Comments().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "failed creates must not write")

	comment, err := svc.CreateComment(ctx, CreateCommentInput{ActorID: u.ID, PostID: post.ID, Text: "first!"})
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, u.ID, comment.UserID)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "commenter", comment.Author.Username)
}

func TestCommentService_DeleteComment(t *testing.T) {
	store, db := newStore(t)
	svc := NewCommentService(store)
	ctx := context.Background()

	u1 := testutil.CreateUser(t, db, "u1", models.RoleUser)
	u2 := testutil.CreateUser(t, db, "u2", models.RoleUser)
	u1Post := testutil.CreatePost(t, db, u1.ID, "u1 post")
	u2Post := testutil.CreatePost(t, db, u2.ID, "u2 post")

	t.Run("stranger on another's post is refused", func(t *testing.T) {
		c := testutil.CreateComment(t, db, u1.ID, u1Post.ID, "mine")
		_, err := svc.DeleteComment(ctx, DeleteCommentInput{ActorID: u2.ID, CommentID: c.ID})
		assertMessage(t, err, models.CodeForbidden, msgCommentForbidden)

		still, err := store.Comments().GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)
	})

	t.Run("post author may delete", func(t *testing.T) {
		c := testutil.CreateComment(t, db, u1.ID, u2Post.ID, "on u2's post")
		deleted, err := svc.DeleteComment(ctx, DeleteCommentInput{ActorID: u2.ID, CommentID: c.ID})
		require.NoError(t, err)
		assert.Equal(t, c.ID, deleted.ID)
		assert.Equal(t, u2Post.ID, deleted.PostID)
	})

	t.Run("comment author may delete", func(t *testing.T) {
		c := testutil.CreateComment(t, db, u2.ID, u1Post.ID, "u2 on u1's post")
		_, err := svc.DeleteComment(ctx, DeleteCommentInput{ActorID: u2.ID, CommentID: c.ID})
		require.NoError(t, err)

		_, err = svc.DeleteComment(ctx, DeleteCommentInput{ActorID: u2.ID, CommentID: c.ID})
		assertMessage(t, err, models.CodeNotFound, msgCommentMissing)
	})

	t.Run("missing comment", func(t *testing.T) {
		_, err := svc.DeleteComment(ctx, DeleteCommentInput{ActorID: u1.ID, CommentID: 31337})
		assert.True(t, models.IsNotFoundError(err))
	})
}

func TestCommentService_ListComments(t *testing.T) {
	store, db := newStore(t)
	svc := NewCommentService(store)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "lister", models.RoleUser)
	post := testutil.CreatePost(t, db, u.ID, "p")
	a := testutil.CreateComment(t, db, u.ID, post.ID, "a")
	b := testutil.CreateComment(t, db, u.ID, post.ID, "b")

	comments, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, a.ID, comments[0].ID)
	assert.Equal(t, b.ID, comments[1].ID)
	require.NotNil(t, comments[0].Author)

	_, err = svc.ListComments(ctx, 777)
	assert.True(t, models.IsNotFoundError(err))
}
