// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle, so a
// service can run several of them inside a single transaction.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Comments() CommentRepository
	Likes() LikeRepository
	// Transaction runs fn against a Store bound to one database
	// transaction. fn's error rolls the transaction back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository       { return NewUserRepository(s.db) }
func (s *gormStore) Posts() PostRepository       { return NewPostRepository(s.db) }
func (s *gormStore) Comments() CommentRepository { return NewCommentRepository(s.db) }
func (s *gormStore) Likes() LikeRepository       { return NewLikeRepository(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
