package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"socialnest/internal/models"
	"socialnest/internal/repository"
)

const (
	maxContentLen = 50000
	maxCommentLen = 5000
	maxFeedLimit  = 100
)

type PostService struct {
	store     repository.Store
	pub       Publisher
	feedLimit int
}

// NewPostService returns a PostService. feedLimit is the feed size used when
// callers do not ask for one.
func NewPostService(store repository.Store, pub Publisher, feedLimit int) *PostService {
	if pub == nil {
		pub = NopPublisher{}
	}
	if feedLimit <= 0 || feedLimit > maxFeedLimit {
		feedLimit = 50
	}
	return &PostService{store: store, pub: pub, feedLimit: feedLimit}
}

type CreatePostInput struct {
	UserID  uint
	Content string
	Image   string
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	image := strings.TrimSpace(in.Image)
	if content == "" && image == "" {
		return nil, models.NewValidationError("Post must have content or an image")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	if err := validateFilename(image); err != nil {
		return nil, err
	}

	post := &models.Post{UserID: in.UserID, Content: content, Image: image}
	err := runAtomic(ctx, s.store, "CreatePost", func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, in.UserID); err != nil {
			return err
		}
		if err := tx.Posts().Create(ctx, post); err != nil {
			return err
		}
		created, err := tx.Posts().GetByID(ctx, post.ID)
		if err != nil {
			return err
		}
		post = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Feed returns the last limit posts, newest first.
func (s *PostService) Feed(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = s.feedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	return s.store.Posts().List(ctx, limit)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.store.Posts().GetByID(ctx, id)
}

// LikeResult is the state of a post after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// ToggleLike removes the user's like when present and adds it otherwise.
// Only an added like by someone other than the author notifies the author.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	var (
		result LikeResult
		actor  *models.User
		note   *models.Notification
	)
	err := runAtomic(ctx, s.store, "ToggleLike", func(tx repository.Store) error {
		post, err := tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return err
		}
		actor, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		removed, err := tx.Posts().Unlike(ctx, postID, userID)
		if err != nil {
			return err
		}
		if !removed {
			added, err := tx.Posts().Like(ctx, postID, userID)
			if err != nil {
				return err
			}
			if added {
				note = Fanout(models.NotificationLike, actor, &post.User, &post.ID)
				if err := emit(ctx, tx, note); err != nil {
					return err
				}
			}
		}

		updated, err := tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return err
		}
		result = LikeResult{Liked: !removed, LikesCount: updated.LikesCount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	deliver(ctx, s.pub, actor, note)
	return &result, nil
}

type CommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

func (s *PostService) Comment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 5000 characters)")
	}

	comment := &models.Comment{PostID: in.PostID, UserID: in.UserID, Content: content}
	var (
		actor *models.User
		note  *models.Notification
	)
	err := runAtomic(ctx, s.store, "Comment", func(tx repository.Store) error {
		post, err := tx.Posts().GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		actor, err = tx.Users().GetByID(ctx, in.UserID)
		if err != nil {
			return err
		}
		if err := tx.Posts().AddComment(ctx, comment); err != nil {
			return err
		}
		note = Fanout(models.NotificationComment, actor, &post.User, &post.ID)
		return emit(ctx, tx, note)
	})
	if err != nil {
		return nil, err
	}
	comment.User = *actor
	deliver(ctx, s.pub, actor, note)
	return comment, nil
}

// DeletePost removes a post with its likes and comments when the actor is
// allowed to. Otherwise the post is left untouched.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	return runAtomic(ctx, s.store, "DeletePost", func(tx repository.Store) error {
		post, err := tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return err
		}
		actor, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !CanDeletePost(actor, &post.User) {
			return models.NewForbiddenError("You cannot delete this post")
		}
		return tx.Posts().Delete(ctx, postID)
	})
}
