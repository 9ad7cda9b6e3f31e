package repository

import (
	"context"
	"errors"

	"postboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations.
// Single-row lookups return nil, nil when the post does not exist.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Post, error)
	GetWithDetails(ctx context.Context, id, viewerID uint) (*models.Post, error)
	List(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID, viewerID uint) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// GetByIDForUpdate locks the post row for the rest of the transaction.
// Databases without row locks (sqlite) serialize writers anyway.
func (r *postRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Post, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *postRepository) first(db *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	if err := db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetWithDetails(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("User").
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	fillPostAuthor(&post)
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	limit, offset = clampPage(limit, offset)
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("User").
		Order("posts.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range posts {
		fillPostAuthor(p)
	}
	return posts, nil
}

// ListByUser returns every post by userID in insertion order.
func (r *postRepository) ListByUser(ctx context.Context, userID, viewerID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("User").
		Where("posts.user_id = ?", userID).
		Order("posts.id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range posts {
		fillPostAuthor(p)
	}
	return posts, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *postRepository) applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

	if viewerID != 0 {
		return db.Model(&models.Post{}).
			Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", viewerID)
	}
	return db.Model(&models.Post{}).Select(selectQuery + ", false AS liked")
}

func fillPostAuthor(p *models.Post) {
	if p.User.ID != 0 {
		s := p.User.Summary()
		p.Author = &s
	}
}
