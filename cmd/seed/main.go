// Command main runs the demo data seeder for SocialNest.
package main

import (
	"context"
	"flag"
	"log"

	"socialnest/internal/bootstrap"
	"socialnest/internal/config"
	"socialnest/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	numMessages := flag.Int("messages", 100, "Number of direct messages to send")
	fast := flag.Bool("fast", false, "Hash passwords with the minimum bcrypt cost")
	seedValue := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, %d messages\n", *numUsers, *numPosts, *numMessages)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() { _ = rt.Store.Close() }()

	s := seed.NewSeeder(rt.Store, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		NumMessages: *numMessages,
		SkipBcrypt:  *fast,
		Seed:        *seedValue,
	})
	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d follows, %d posts, %d likes, %d comments, %d messages.",
		sum.Users, sum.Follows, sum.Posts, sum.Likes, sum.Comments, sum.Messages)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
