package service

import (
	"context"
	"strings"

	"postboard/internal/cache"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	store repository.Store
}

type CreatePostInput struct {
	ActorID uint
	Text    string
}

type DeletePostInput struct {
	ActorID uint
	PostID  uint
}

func NewPostService(store repository.Store) *PostService {
	return &PostService{store: store}
}

// CreatePost stores a post authored by the actor. Text is kept as given;
// whitespace-only text counts as empty.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "CreatePost",
		attribute.Int64("actor.id", int64(in.ActorID)))
	defer span.End(&err)
	defer recordFailure("CreatePost", &err)

	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError(msgPostEmpty)
	}
	author, err := s.store.Users().GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	post = &models.Post{UserID: in.ActorID, Text: in.Text}
	if err = s.store.Posts().Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.Inc()
	cache.InvalidateOverview(ctx)

	summary := author.Summary()
	post.Author = &summary
	return post, nil
}

// DeletePost removes the post together with its comments and likes. Only
// the author may delete a post.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "DeletePost",
		attribute.Int64("actor.id", int64(in.ActorID)),
		attribute.Int64("post.id", int64(in.PostID)))
	defer span.End(&err)
	defer recordFailure("DeletePost", &err)

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		post, err := tx.Posts().GetByIDForUpdate(ctx, in.PostID)
		if err != nil {
			return err
		}
		if post == nil {
			return models.NewNotFoundMessage(msgPostMissing)
		}
		if post.UserID != in.ActorID {
			return models.NewPermissionError(msgPostForbidden)
		}
		if _, err := tx.Comments().DeleteByPost(ctx, post.ID); err != nil {
			return err
		}
		if _, err := tx.Likes().DeleteByPost(ctx, post.ID); err != nil {
			return err
		}
		return tx.Posts().Delete(ctx, post.ID)
	})
	if err != nil {
		return err
	}
	observability.PostsDeleted.Inc()
	cache.InvalidateOverview(ctx)
	return nil
}

// ListPostsByUser returns every post written by username, oldest first.
func (s *PostService) ListPostsByUser(ctx context.Context, username string, viewerID uint) (posts []*models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "ListPostsByUser",
		attribute.String("user.name", username))
	defer span.End(&err)
	defer recordFailure("ListPostsByUser", &err)

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage(msgUsernameMissing)
	}
	return s.store.Posts().ListByUser(ctx, user.ID, viewerID)
}

// ListPosts is the home feed in insertion order.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	return s.store.Posts().List(ctx, viewerID, limit, offset)
}

func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.store.Posts().GetWithDetails(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundMessage(msgPostMissing)
	}
	return post, nil
}
