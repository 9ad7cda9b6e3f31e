package service

import (
	"context"

	"postboard/internal/cache"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type LikeService struct {
	store repository.Store
}

func NewLikeService(store repository.Store) *LikeService {
	return &LikeService{store: store}
}

// ToggleLike flips the actor's like on a post and returns the new count
// and state. Toggles on one post are serialized by the post row lock; the
// (user_id, post_id) unique index keeps a single like per pair even where
// the lock is not honoured.
func (s *LikeService) ToggleLike(ctx context.Context, actorID, postID uint) (result *models.ToggleLikeResult, err error) {
	ctx, span := observability.StartSpan(ctx, "LikeService", "ToggleLike",
		attribute.Int64("actor.id", int64(actorID)),
		attribute.Int64("post.id", int64(postID)))
	defer span.End(&err)
	defer recordFailure("ToggleLike", &err)

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		post, err := tx.Posts().GetByIDForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		if post == nil {
			return models.NewNotFoundMessage(msgPostMissing)
		}

		existing, err := tx.Likes().Find(ctx, actorID, postID)
		if err != nil {
			return err
		}
		liked := existing == nil
		if liked {
			if _, err := tx.Likes().Create(ctx, &models.Like{UserID: actorID, PostID: postID}); err != nil {
				return err
			}
		} else if _, err := tx.Likes().Delete(ctx, actorID, postID); err != nil {
			return err
		}

		count, err := tx.Likes().CountByPost(ctx, postID)
		if err != nil {
			return err
		}
		result = &models.ToggleLikeResult{PostID: postID, Likes: count, Liked: liked}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := "unlike"
	if result.Liked {
		action = "like"
	}
	observability.LikeToggles.WithLabelValues(action).Inc()
	cache.InvalidateOverview(ctx)
	return result, nil
}
