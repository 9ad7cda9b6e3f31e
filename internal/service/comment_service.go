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

type CommentService struct {
	store repository.Store
}

type CreateCommentInput struct {
	ActorID uint
	PostID  uint
	Text    string
}

type DeleteCommentInput struct {
	ActorID   uint
	CommentID uint
}

func NewCommentService(store repository.Store) *CommentService {
	return &CommentService{store: store}
}

// CreateComment attaches a comment to an existing post. The post row is
// locked so a concurrent DeletePost cannot leave the comment orphaned.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService", "CreateComment",
		attribute.Int64("actor.id", int64(in.ActorID)),
		attribute.Int64("post.id", int64(in.PostID)))
	defer span.End(&err)
	defer recordFailure("CreateComment", &err)

	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError(msgCommentEmpty)
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		post, err := tx.Posts().GetByIDForUpdate(ctx, in.PostID)
		if err != nil {
			return err
		}
		if post == nil {
			return models.NewNotFoundMessage(msgPostMissing)
		}
		author, err := tx.Users().GetByID(ctx, in.ActorID)
		if err != nil {
			return err
		}

		comment = &models.Comment{UserID: in.ActorID, PostID: post.ID, Text: in.Text}
		if err := tx.Comments().Create(ctx, comment); err != nil {
			return err
		}
		summary := author.Summary()
		comment.Author = &summary
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	cache.InvalidateOverview(ctx)
	return comment, nil
}

// DeleteComment removes a comment. The comment's author and the parent
// post's author may delete it. The deleted comment is returned.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService", "DeleteComment",
		attribute.Int64("actor.id", int64(in.ActorID)),
		attribute.Int64("comment.id", int64(in.CommentID)))
	defer span.End(&err)
	defer recordFailure("DeleteComment", &err)

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		c, err := tx.Comments().GetByID(ctx, in.CommentID)
		if err != nil {
			return err
		}
		if c == nil {
			return models.NewNotFoundMessage(msgCommentMissing)
		}
		if c.UserID != in.ActorID {
			post, err := tx.Posts().GetByID(ctx, c.PostID)
			if err != nil {
				return err
			}
			if post == nil || post.UserID != in.ActorID {
				return models.NewPermissionError(msgCommentForbidden)
			}
		}
		if err := tx.Comments().Delete(ctx, c.ID); err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateOverview(ctx)
	return comment, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	post, err := s.store.Posts().GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundMessage(msgPostMissing)
	}
	return s.store.Comments().ListByPost(ctx, postID)
}
