package seed

import (
	"context"
	"testing"

	"socialnest/internal/database"
	"socialnest/internal/repository"
	"socialnest/internal/validation"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"
)

func TestSeeder_Run(t *testing.T) {
	db, err := database.Open(sqlite.Open(":memory:"), database.NewGormLogger(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := repository.NewGormStore(db)
	ctx := context.Background()

	s := NewSeeder(store, Options{NumUsers: 6, NumPosts: 10, NumMessages: 4, SkipBcrypt: true, Seed: 42})
	sum, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if sum.Users != 6 || sum.Posts != 10 || sum.Messages != 4 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	n, err := store.Users().Count(ctx)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 users, got %d", n)
	}

	feed, err := store.Posts().List(ctx, 100)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(feed) != 10 {
		t.Fatalf("expected 10 posts, got %d", len(feed))
	}
	likes := 0
	for _, p := range feed {
		likes += p.LikesCount
	}
	if likes != sum.Likes {
		t.Fatalf("expected %d likes stored, got %d", sum.Likes, likes)
	}
}

func TestSeeder_UsernameIsValid(t *testing.T) {
	s := NewSeeder(nil, Options{Seed: 7})
	for i := 0; i < 50; i++ {
		name := s.Username()
		if err := validation.ValidateUsername(name); err != nil {
			t.Fatalf("generated invalid username %q: %v", name, err)
		}
	}
}
