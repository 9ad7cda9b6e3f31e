// Package seed fills a database with demo users, posts, comments and likes.
// Everything goes through the services so the data obeys the same rules as
// API traffic. Intended for development only.
package seed

import (
	"context"
	"fmt"
	"math/rand"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options controls how much data is generated.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	// LikeChance is the probability in [0,1] that a user likes a post.
	LikeChance float64
}

// DefaultOptions is a small but lively dataset.
var DefaultOptions = Options{
	Users:           10,
	PostsPerUser:    3,
	CommentsPerPost: 2,
	LikeChance:      0.3,
}

// Result counts what was created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// Seeder generates demo content through the services.
type Seeder struct {
	users    *service.UserService
	posts    *service.PostService
	comments *service.CommentService
	likes    *service.LikeService
	faker    *gofakeit.Faker
	rng      *rand.Rand
}

// NewSeeder builds a seeder over store. A non-zero seed makes the
// generated data reproducible.
func NewSeeder(store repository.Store, seed int64) *Seeder {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Seeder{
		users:    service.NewUserService(store),
		posts:    service.NewPostService(store),
		comments: service.NewCommentService(store),
		likes:    service.NewLikeService(store),
		faker:    gofakeit.New(seed),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Run creates opts.Users accounts and their content.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	var res Result

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := s.createUser(ctx, i)
		if err != nil {
			return &res, err
		}
		users = append(users, u)
		res.Users++
	}

	var posts []*models.Post
	for _, u := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			p, err := s.posts.CreatePost(ctx, service.CreatePostInput{
				ActorID: u.ID,
				Text:    s.faker.Paragraph(1, 2, 12, " "),
			})
			if err != nil {
				return &res, fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, p)
			res.Posts++
		}
	}

	for _, p := range posts {
		for i := 0; i < opts.CommentsPerPost && len(users) > 0; i++ {
			author := users[s.rng.Intn(len(users))]
			if _, err := s.comments.CreateComment(ctx, service.CreateCommentInput{
				ActorID: author.ID,
				PostID:  p.ID,
				Text:    s.faker.Sentence(8),
			}); err != nil {
				return &res, fmt.Errorf("create comment: %w", err)
			}
			res.Comments++
		}

		for _, u := range users {
			if s.rng.Float64() >= opts.LikeChance {
				continue
			}
			if _, err := s.likes.ToggleLike(ctx, u.ID, p.ID); err != nil {
				return &res, fmt.Errorf("like post: %w", err)
			}
			res.Likes++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		"users", res.Users, "posts", res.Posts, "comments", res.Comments, "likes", res.Likes)
	return &res, nil
}

// createUser suffixes the generated username with i to keep it unique
// within a run.
func (s *Seeder) createUser(ctx context.Context, i int) (*models.User, error) {
	first := s.faker.FirstName()
	last := s.faker.LastName()
	username := fmt.Sprintf("%s%d", s.faker.Username(), i)

	u, err := s.users.CreateUser(ctx, service.CreateUserInput{
		Email:     fmt.Sprintf("%s@example.com", username),
		Username:  username,
		FirstName: padName(first),
		LastName:  padName(last),
		Password:  DefaultPassword,
		Role:      models.RoleUser,
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return u, nil
}

// padName keeps single-letter generated names above the two-character
// minimum.
func padName(name string) string {
	if len([]rune(name)) < 2 {
		return name + "x"
	}
	return name
}
