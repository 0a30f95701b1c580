// Command seed fills the configured database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/00xu00/blog/internal/config"
	"github.com/00xu00/blog/internal/database"
	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "Number of users to create")
	posts := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per published post")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Accounts each user follows")
	likes := flag.Int("likes", defaults.LikesPerUser, "Posts each user likes")
	messages := flag.Int("messages", defaults.MessagesPerUser, "Messages each user sends")
	randSeed := flag.Int64("seed", 0, "Random seed, 0 for a random run")
	scenario := flag.String("scenario", "", "YAML scenario file to apply instead of random data")
	clean := flag.Bool("clean", false, "Delete existing data first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := defaults
	opts.Users = *users
	opts.PostsPerUser = *posts
	opts.CommentsPerPost = *comments
	opts.FollowsPerUser = *follows
	opts.LikesPerUser = *likes
	opts.MessagesPerUser = *messages
	opts.RandSeed = *randSeed

	ctx := context.Background()
	s := seed.NewSeeder(db, opts)
	if *clean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	var res *seed.Result
	if *scenario != "" {
		sc, err := seed.LoadScenario(*scenario)
		if err != nil {
			log.Fatalf("Scenario failed: %v", err)
		}
		res, err = s.ApplyScenario(ctx, sc)
		if err != nil {
			log.Fatalf("Scenario failed: %v", err)
		}
	} else {
		res, err = s.Run(ctx, opts)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	log.Printf("Seeded %d users and %d posts. Every account uses the password %q.",
		len(res.Users), len(res.Posts), seed.DefaultPassword)
}
