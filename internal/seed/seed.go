// Package seed provides database seeding utilities for development and testing.
// All data goes through the services so counters and notifications stay
// consistent with normal traffic.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	"socialnest/internal/models"
	"socialnest/internal/repository"
	"socialnest/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// FollowsPerUser, LikesPerPost and CommentsPerPost are upper bounds.
	FollowsPerUser  int
	LikesPerPost    int
	CommentsPerPost int
	NumMessages     int
	// SkipBcrypt hashes with the minimum bcrypt cost for fast local runs.
	SkipBcrypt bool
	// Seed makes runs reproducible when non-zero.
	Seed int64
}

// Summary reports what a run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Messages int
}

// Seeder creates demo data through the services.
type Seeder struct {
	opts     Options
	faker    *gofakeit.Faker
	auth     *service.AuthService
	users    *service.UserService
	posts    *service.PostService
	follows  *service.FollowService
	messages *service.MessageService
}

// NewSeeder creates a seeder bound to store. Notifications are stored but not
// pushed to any live connection.
func NewSeeder(store repository.Store, opts Options) *Seeder {
	if opts.FollowsPerUser == 0 {
		opts.FollowsPerUser = 5
	}
	if opts.LikesPerPost == 0 {
		opts.LikesPerPost = 4
	}
	if opts.CommentsPerPost == 0 {
		opts.CommentsPerPost = 2
	}

	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}

	pub := service.NopPublisher{}
	return &Seeder{
		opts:     opts,
		faker:    gofakeit.New(opts.Seed),
		auth:     service.NewAuthService(store, service.AuthConfig{HashCost: cost}),
		users:    service.NewUserService(store),
		posts:    service.NewPostService(store, pub, 50),
		follows:  service.NewFollowService(store, pub),
		messages: service.NewMessageService(store, pub),
	}
}

// Run seeds users, their follow graph, posts with engagement and a few
// direct messages.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	log.Printf("🌱 Starting seeding with %d users and %d posts...", s.opts.NumUsers, s.opts.NumPosts)
	sum := &Summary{}

	users, err := s.createUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)
	if len(users) == 0 {
		return sum, nil
	}

	if sum.Follows, err = s.createFollows(ctx, users); err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}
	log.Printf("✓ %d follows created", sum.Follows)

	posts, err := s.createPosts(ctx, users, s.opts.NumPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	sum.Posts = len(posts)
	log.Printf("✓ %d posts created", sum.Posts)

	if sum.Likes, sum.Comments, err = s.createEngagement(ctx, users, posts); err != nil {
		return nil, fmt.Errorf("failed to create engagement: %w", err)
	}
	log.Printf("✓ %d likes and %d comments created", sum.Likes, sum.Comments)

	if sum.Messages, err = s.createMessages(ctx, users, s.opts.NumMessages); err != nil {
		return nil, fmt.Errorf("failed to create messages: %w", err)
	}
	log.Printf("✓ %d messages sent", sum.Messages)

	return sum, nil
}

// Username returns a faker name reduced to the allowed username alphabet.
func (s *Seeder) Username() string {
	var b strings.Builder
	for _, r := range s.faker.Username() {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) > 24 {
		name = name[:24]
	}
	for len(name) < 3 {
		name += "x"
	}
	return name
}

func (s *Seeder) createUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for attempts := 0; len(users) < n; attempts++ {
		if attempts > n*5 {
			return nil, fmt.Errorf("gave up after %d attempts to find unique usernames", attempts)
		}
		u, err := s.auth.Signup(ctx, service.SignupInput{Username: s.Username(), Password: DefaultPassword})
		if models.HasCode(err, models.CodeDuplicateUsername) {
			continue
		}
		if err != nil {
			return nil, err
		}

		bio := s.faker.Sentence(10)
		pic := fmt.Sprintf("%s.jpg", strings.ToLower(s.faker.Word()))
		u, err = s.users.UpdateProfile(ctx, service.UpdateProfileInput{UserID: u.ID, Bio: &bio, ProfilePic: &pic})
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) createFollows(ctx context.Context, users []*models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	created := 0
	for _, u := range users {
		for i := s.faker.Number(0, s.opts.FollowsPerUser); i > 0; i-- {
			target := users[s.faker.Number(0, len(users)-1)]
			if target.ID == u.ID {
				continue
			}
			res, err := s.follows.Follow(ctx, u.ID, target.Username)
			if err != nil {
				return created, err
			}
			if res.Created {
				created++
			}
		}
	}
	return created, nil
}

func (s *Seeder) createPosts(ctx context.Context, users []*models.User, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		in := service.CreatePostInput{UserID: author.ID, Content: s.faker.Paragraph(1, 3, 12, " ")}
		if s.faker.Number(0, 3) == 0 {
			in.Image = fmt.Sprintf("%s.png", s.faker.UUID())
		}
		p, err := s.posts.CreatePost(ctx, in)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Seeder) createEngagement(ctx context.Context, users []*models.User, posts []*models.Post) (likes, comments int, err error) {
	for _, p := range posts {
		liked := make(map[uint]bool)
		for i := s.faker.Number(0, s.opts.LikesPerPost); i > 0; i-- {
			u := users[s.faker.Number(0, len(users)-1)]
			if liked[u.ID] {
				continue
			}
			liked[u.ID] = true
			if _, err := s.posts.ToggleLike(ctx, u.ID, p.ID); err != nil {
				return likes, comments, err
			}
			likes++
		}

		for i := s.faker.Number(0, s.opts.CommentsPerPost); i > 0; i-- {
			u := users[s.faker.Number(0, len(users)-1)]
			if _, err := s.posts.Comment(ctx, service.CommentInput{UserID: u.ID, PostID: p.ID, Content: s.faker.Sentence(8)}); err != nil {
				return likes, comments, err
			}
			comments++
		}
	}
	return likes, comments, nil
}

func (s *Seeder) createMessages(ctx context.Context, users []*models.User, n int) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	sent := 0
	for sent < n {
		from := users[s.faker.Number(0, len(users)-1)]
		to := users[s.faker.Number(0, len(users)-1)]
		if from.ID == to.ID {
			continue
		}
		if _, err := s.messages.Send(ctx, service.SendMessageInput{SenderID: from.ID, To: to.Username, Content: s.faker.HackerPhrase()}); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
