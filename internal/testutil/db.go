// Package testutil provides shared fixtures for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"postboard/internal/database"
	"postboard/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// NewSQLiteDB opens a migrated in-memory database private to the test.
// The pool is capped at one connection: every :memory: connection is its
// own database, and one connection also serializes concurrent writers.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with a bcrypt-hashed "password123" and a unique
// email derived from username.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Email:     fmt.Sprintf("%s-%d@example.com", username, seq.Add(1)),
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  string(hash),
		Role:      role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post authored by userID.
func CreatePost(t *testing.T, db *gorm.DB, userID uint, text string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: userID, Text: text}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment by userID on postID.
func CreateComment(t *testing.T, db *gorm.DB, userID, postID uint, text string) *models.Comment {
	t.Helper()
	c := &models.Comment{UserID: userID, PostID: postID, Text: text}
	require.NoError(t, db.Create(c).Error)
	return c
}
