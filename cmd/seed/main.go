// Command seed fills the configured database with demo content.
package main

import (
	"context"
	"flag"
	"log"

	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/middleware"
	"postboard/internal/repository"
	"postboard/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", opts.PostsPerUser, "Posts per user")
	flag.IntVar(&opts.CommentsPerPost, "comments", opts.CommentsPerPost, "Comments per post")
	flag.Float64Var(&opts.LikeChance, "like-chance", opts.LikeChance, "Probability that a user likes a post")
	seedValue := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	cache.InitRedis(cfg.RedisURL)
	defer func() { _ = cache.Close() }()

	res, err := seed.NewSeeder(repository.NewStore(db), *seedValue).Run(ctx, opts)
	if err != nil {
		log.Fatalf("Seeding failed after %+v: %v", *res, err)
	}
	log.Printf("Seeded %d users, %d posts, %d comments, %d likes (password %q)",
		res.Users, res.Posts, res.Comments, res.Likes, seed.DefaultPassword)
}
